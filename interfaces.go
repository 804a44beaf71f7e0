package datasetgen

import (
	"context"
	"time"
)

// ImageGenerator produces images from a text prompt.
// Implement this interface to add support for new models or providers.
type ImageGenerator interface {
	// Generate returns genConfig.NumberOfImages payloads for prompt, or an error
	// describing why the service refused.
	Generate(ctx context.Context, prompt string, genConfig *GenerateConfig) (*GenerateResult, error)

	// Models returns the model definitions supported by this provider.
	// The first model returned is considered the default.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}

// VariationGenerator produces a single new image from an existing image and
// the prompt it was generated from.
type VariationGenerator interface {
	// Vary returns a result holding at least one payload. A response without
	// an image must be reported as ErrNoImageInResponse.
	Vary(ctx context.Context, image ImagePayload, prompt string, genConfig *GenerateConfig) (*GenerateResult, error)
}

// Recorder receives timing and outcome of outbound calls.
// internal/metrics provides a Prometheus implementation.
type Recorder interface {
	RecordGeneration(status string, duration time.Duration, images int)
	RecordVariation(status string, duration time.Duration)
}

// Notifier is told about every state change of a Session.
type Notifier interface {
	Publish(status Status)
}

type nopRecorder struct{}

func (nopRecorder) RecordGeneration(string, time.Duration, int) {}
func (nopRecorder) RecordVariation(string, time.Duration)       {}
