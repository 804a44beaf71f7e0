// Package gemini provides datasetgen's image and variation generators using
// Google's generative AI API.
//
// Text-to-image requests go to Imagen through Models.GenerateImages.
// Variations send the source image together with its prompt to a Gemini image
// model through Models.GenerateContent.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mhpenta/datasetgen"
	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	// APIModelImagen4 generates images from text.
	APIModelImagen4 = "imagen-4.0-generate-001"

	// APIModelFlashImage is Gemini 2.5 Flash Image, used for variations.
	APIModelFlashImage = "gemini-2.5-flash-image"
)

// ProviderConfig configures the generator.
type ProviderConfig struct {
	// APIKey for authentication. If empty, the SDK falls back to the
	// GOOGLE_API_KEY or GEMINI_API_KEY environment variables.
	APIKey string

	// GenerationModel overrides APIModelImagen4
	GenerationModel string

	// VariationModel overrides APIModelFlashImage
	VariationModel string
}

// modelsAPI is the part of *genai.Models the generator uses.
type modelsAPI interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements datasetgen.ImageGenerator and
// datasetgen.VariationGenerator.
type GeminiGenerator struct {
	models          modelsAPI
	generationModel string
	variationModel  string
}

// Ensure GeminiGenerator implements the interfaces.
var (
	_ datasetgen.ImageGenerator     = (*GeminiGenerator)(nil)
	_ datasetgen.VariationGenerator = (*GeminiGenerator)(nil)
)

// New creates a new GeminiGenerator from a ProviderConfig.
func New(ctx context.Context, config *ProviderConfig) (*GeminiGenerator, error) {
	if config == nil {
		config = &ProviderConfig{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}
	if config.APIKey != "" {
		clientCfg.APIKey = config.APIKey
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGenerator(client.Models, config), nil
}

// NewWithAPIKey creates a generator with an API key for Gemini API.
func NewWithAPIKey(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	return New(ctx, &ProviderConfig{APIKey: apiKey})
}

func newGenerator(models modelsAPI, config *ProviderConfig) *GeminiGenerator {
	g := &GeminiGenerator{
		models:          models,
		generationModel: APIModelImagen4,
		variationModel:  APIModelFlashImage,
	}
	if config.GenerationModel != "" {
		g.generationModel = config.GenerationModel
	}
	if config.VariationModel != "" {
		g.variationModel = config.VariationModel
	}
	return g
}

// Generate creates genConfig.NumberOfImages images from a text prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, config *datasetgen.GenerateConfig) (*datasetgen.GenerateResult, error) {
	if err := datasetgen.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if config == nil {
		config = datasetgen.DefaultConfig()
	}

	modelName := g.generationModel
	if config.Model != "" {
		modelName = config.Model.String()
	}

	mimeType := config.OutputMIMEType
	if mimeType == "" {
		mimeType = datasetgen.DefaultOutputMIMEType
	}

	imgConfig := &genai.GenerateImagesConfig{
		NumberOfImages: int32(datasetgen.ClampQuantity(config.NumberOfImages)),
		OutputMIMEType: mimeType,
	}
	if config.AspectRatio != "" {
		imgConfig.AspectRatio = config.AspectRatio.String()
	}

	resp, err := g.models.GenerateImages(ctx, modelName, prompt, imgConfig)
	if err != nil {
		if rlErr := checkRateLimitError(err, modelName); rlErr != nil {
			err = rlErr
		}
		return nil, fmt.Errorf("failed to generate images: %w", err)
	}

	return parseImagesResponse(resp, mimeType)
}

// Vary sends image and prompt to the variation model and returns the first
// image of the response.
func (g *GeminiGenerator) Vary(ctx context.Context, image datasetgen.ImagePayload, prompt string, config *datasetgen.GenerateConfig) (*datasetgen.GenerateResult, error) {
	if err := datasetgen.ValidatePayload(image); err != nil {
		return nil, err
	}

	data, err := image.Bytes()
	if err != nil {
		return nil, err
	}

	modelName := g.variationModel
	if config != nil && config.Model != "" {
		modelName = config.Model.String()
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{
					InlineData: &genai.Blob{
						Data:     data,
						MIMEType: image.MIMEType,
					},
				},
				{Text: prompt},
			},
		},
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := g.models.GenerateContent(ctx, modelName, contents, genConfig)
	if err != nil {
		if rlErr := checkRateLimitError(err, modelName); rlErr != nil {
			err = rlErr
		}
		return nil, fmt.Errorf("variation request failed: %w", err)
	}

	return parseContentResponse(resp)
}

// Models returns the model definitions supported by this provider.
// The generation model comes first.
func (g *GeminiGenerator) Models() []datasetgen.ModelInfo {
	gen := Imagen4Info
	gen.APIModelName = g.generationModel
	variation := FlashImageInfo
	variation.APIModelName = g.variationModel
	return []datasetgen.ModelInfo{gen, variation}
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// parseImagesResponse converts an Imagen response to our result type.
func parseImagesResponse(resp *genai.GenerateImagesResponse, mimeType string) (*datasetgen.GenerateResult, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, errors.New("failed to generate images: empty response from model")
	}

	result := &datasetgen.GenerateResult{
		Images: make([]datasetgen.ImagePayload, 0, len(resp.GeneratedImages)),
	}
	var filtered []string

	for _, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			if img != nil && img.RAIFilteredReason != "" {
				filtered = append(filtered, img.RAIFilteredReason)
			}
			continue
		}
		mime := img.Image.MIMEType
		if mime == "" {
			mime = mimeType
		}
		result.Images = append(result.Images, datasetgen.PayloadFromBytes(img.Image.ImageBytes, mime))
	}

	if len(result.Images) == 0 {
		if len(filtered) > 0 {
			return nil, fmt.Errorf("failed to generate images: blocked by safety filter: %s", filtered[0])
		}
		return nil, errors.New("failed to generate images: response contained no image data")
	}

	result.UsageMetadata = &datasetgen.UsageMetadata{ImageCount: len(result.Images)}
	return result, nil
}

// parseContentResponse extracts the first inline image of a
// GenerateContent response.
func parseContentResponse(resp *genai.GenerateContentResponse) (*datasetgen.GenerateResult, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, datasetgen.ErrNoImageInResponse
	}

	result := &datasetgen.GenerateResult{}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				result.Text += part.Text
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 && len(result.Images) == 0 {
				result.Images = append(result.Images,
					datasetgen.PayloadFromBytes(part.InlineData.Data, part.InlineData.MIMEType))
			}
		}
	}

	if len(result.Images) == 0 {
		return nil, datasetgen.ErrNoImageInResponse
	}

	if resp.UsageMetadata != nil {
		result.UsageMetadata = &datasetgen.UsageMetadata{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
			ImageCount:       len(result.Images),
		}
	}

	return result, nil
}

// checkRateLimitError checks if an error from the Gemini API is a rate limit error.
// If so, it wraps it in a RateLimitError for standardized handling; otherwise returns nil.
func checkRateLimitError(err error, model string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.Code != 429 && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return nil
	}

	return &datasetgen.RateLimitError{
		RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
		LimitType:  "requests",
		Model:      model,
		Err:        err,
	}
}
