package datasetgen

// GenerateResult holds the payloads returned by one outbound call.
type GenerateResult struct {
	// Images contains all returned payloads, in service order
	Images []ImagePayload

	// Text contains any text response from the model
	Text string

	// UsageMetadata contains token/billing information, when reported
	UsageMetadata *UsageMetadata
}

// UsageMetadata contains usage information for billing and monitoring.
type UsageMetadata struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
	ImageCount       int
}
