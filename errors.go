package datasetgen

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBusy is returned when a dataset run or variation is already in flight.
	ErrBusy = errors.New("a generation is already in progress")

	// ErrEmptyQueue is returned when a dataset run is requested with nothing queued.
	ErrEmptyQueue = errors.New("generation queue is empty")

	// ErrImageNotFound is returned when an image id is not in the result collection.
	ErrImageNotFound = errors.New("image not found")

	// ErrNoImageInResponse is returned by a VariationGenerator whose response
	// carried no image.
	ErrNoImageInResponse = errors.New("no image found in the response")

	// ErrGeneratorNotConfigured is returned when the session lacks a collaborator.
	ErrGeneratorNotConfigured = errors.New("generator not configured")

	// ErrStorageNotConfigured is returned when export is attempted
	// without a configured storage backend.
	ErrStorageNotConfigured = errors.New("storage not configured")
)

// GenerationError reports a failure of the image generation service while
// draining the queue. Its message is the service's own description.
type GenerationError struct {
	RequestID string
	Prompt    string
	Err       error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return "an unexpected error occurred"
	}
	return e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// VariationError reports a failure of the variation service.
type VariationError struct {
	ImageID string
	Err     error
}

func (e *VariationError) Error() string {
	if e.Err == nil {
		return "failed to generate variation"
	}
	return fmt.Sprintf("failed to generate variation: %v", e.Err)
}

func (e *VariationError) Unwrap() error {
	return e.Err
}

// IsGenerationError checks if an error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsVariationError checks if an error is a VariationError.
func IsVariationError(err error) bool {
	var varErr *VariationError
	return errors.As(err, &varErr)
}

// RateLimitError is returned when a rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}
