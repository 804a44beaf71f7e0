package datasetgen

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrEmptyImageData  = errors.New("image data cannot be empty")
	ErrInvalidMIMEType = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge   = errors.New("image data exceeds maximum size")
	ErrInvalidRatio    = errors.New("unsupported aspect ratio")
)

// Quantity bounds for a single generation request.
const (
	MinQuantity = 1
	MaxQuantity = 4
)

// MaxImageSize is the maximum allowed decoded image size in bytes (20MB)
const MaxImageSize = 20 * 1024 * 1024

// ValidMIMETypes contains the supported image MIME types
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidatePrompt rejects empty and whitespace-only prompts.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ClampQuantity constrains n to [MinQuantity, MaxQuantity].
func ClampQuantity(n int) int {
	return min(MaxQuantity, max(MinQuantity, n))
}

// ValidateAspectRatio checks that a is one of the supported ratios.
func ValidateAspectRatio(a AspectRatio) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRatio, a)
	}
	return nil
}

// NormalizeLabels trims every label and drops the empty ones.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// ParseLabels splits a comma-separated label list.
func ParseLabels(s string) []string {
	return NormalizeLabels(strings.Split(s, ","))
}

// ValidatePayload validates an image payload before it is sent to a service.
func ValidatePayload(p ImagePayload) error {
	if p.Data == "" {
		return ErrEmptyImageData
	}

	if p.MIMEType == "" {
		return fmt.Errorf("%w: MIME type is required", ErrInvalidMIMEType)
	}
	if !ValidMIMETypes[p.MIMEType] {
		return fmt.Errorf("%w: %s", ErrInvalidMIMEType, p.MIMEType)
	}

	// base64 expands by 4/3
	if size := len(p.Data) / 4 * 3; size > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, size, MaxImageSize)
	}

	return nil
}
