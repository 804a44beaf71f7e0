package datasetgen

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Model is the API name of an image model (e.g. "imagen-4.0-generate-001").
type Model string

// AspectRatio represents the aspect ratio for generated images.
type AspectRatio string

// The closed set of supported aspect ratios. Adding one means extending
// aspectRatioLabels as well, since every validation goes through it.
const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"

	DefaultAspectRatio = AspectRatio1x1
)

// AspectRatioOption pairs a ratio with its display label.
type AspectRatioOption struct {
	Value AspectRatio `json:"value"`
	Label string      `json:"label"`
}

var aspectRatioLabels = []AspectRatioOption{
	{Value: AspectRatio1x1, Label: "Square (1:1)"},
	{Value: AspectRatio16x9, Label: "Widescreen (16:9)"},
	{Value: AspectRatio9x16, Label: "Portrait (9:16)"},
	{Value: AspectRatio4x3, Label: "Landscape (4:3)"},
	{Value: AspectRatio3x4, Label: "Tall (3:4)"},
}

// AspectRatios returns the supported aspect ratios in display order.
func AspectRatios() []AspectRatioOption {
	out := make([]AspectRatioOption, len(aspectRatioLabels))
	copy(out, aspectRatioLabels)
	return out
}

// Valid reports whether a is one of the supported ratios.
func (a AspectRatio) Valid() bool {
	for _, opt := range aspectRatioLabels {
		if opt.Value == a {
			return true
		}
	}
	return false
}

// String returns the string representation for API calls.
func (a AspectRatio) String() string {
	return string(a)
}

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}

// DefaultOutputMIMEType is the MIME type requested from the generation service.
const DefaultOutputMIMEType = "image/jpeg"

// GenerateConfig holds configuration options for a single outbound call.
type GenerateConfig struct {
	// Model to use (if empty, the provider's default is used)
	Model Model

	// AspectRatio of the output image
	AspectRatio AspectRatio

	// NumberOfImages to generate (1-4)
	NumberOfImages int

	// OutputMIMEType requested from the service
	OutputMIMEType string

	// Metadata to attach to requests (for logging/tracking)
	Metadata map[string]string

	// WaitOnRateLimit, if true, waits for capacity when rate limited.
	// If false, a RateLimitError is returned immediately.
	WaitOnRateLimit bool

	// MaxWaitDuration is the maximum time to wait when WaitOnRateLimit is true.
	// Zero means no limit.
	MaxWaitDuration time.Duration
}

// WithModel returns a copy of the config with the specified model.
func (c *GenerateConfig) WithModel(model Model) *GenerateConfig {
	if c == nil {
		return &GenerateConfig{Model: model}
	}
	cX := *c
	cX.Model = model
	return &cX
}

// DefaultConfig returns a GenerateConfig with sensible defaults.
func DefaultConfig() *GenerateConfig {
	return &GenerateConfig{
		AspectRatio:    DefaultAspectRatio,
		NumberOfImages: 1,
		OutputMIMEType: DefaultOutputMIMEType,
	}
}

// ImagePayload is a text-encoded (base64) image as exchanged with the
// external services. The core never looks inside Data.
type ImagePayload struct {
	Data     string
	MIMEType string
}

// PayloadFromBytes encodes raw image bytes into a payload.
func PayloadFromBytes(data []byte, mimeType string) ImagePayload {
	return ImagePayload{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}
}

// Bytes decodes the payload.
func (p ImagePayload) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return data, nil
}
