package datasetgen

// ModelCapabilities describes what a model can be used for.
type ModelCapabilities struct {
	SupportsTextToImage bool
	SupportsVariation   bool // Image + prompt in, one image out

	MaxOutputImages int // Max images generated per request
}

// RateLimits defines rate limiting parameters for a model.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
}

// ModelInfo contains metadata for a model.
type ModelInfo struct {
	// Public model name (e.g., "imagen-4")
	Name string

	// Actual API name (e.g., "imagen-4.0-generate-001")
	APIModelName string

	Capabilities          ModelCapabilities
	SupportedAspectRatios []AspectRatio
	RateLimits            RateLimits
}

// SupportsAspectRatio reports whether the model accepts ratio a.
// An empty SupportedAspectRatios list means no restriction is known.
func (m ModelInfo) SupportsAspectRatio(a AspectRatio) bool {
	if len(m.SupportedAspectRatios) == 0 {
		return true
	}
	for _, r := range m.SupportedAspectRatios {
		if r == a {
			return true
		}
	}
	return false
}

// firstModel returns the API name of the first model matching pred.
func firstModel(models []ModelInfo, pred func(ModelInfo) bool) Model {
	for _, m := range models {
		if pred(m) {
			return Model(m.APIModelName)
		}
	}
	return ""
}
