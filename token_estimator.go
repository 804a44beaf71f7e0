package datasetgen

import (
	"math"
)

// ImageInputTokens is the flat token cost charged for an input image.
const ImageInputTokens = 258

// TokenEstimator estimates the token cost of an outbound call for rate limiting.
type TokenEstimator interface {
	EstimateTokens(prompt string, inputImages int) int
}

// SimpleTokenEstimator - fast approximation of token usage
type SimpleTokenEstimator struct {
	SafetyMargin float64
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{
		SafetyMargin: 1.2,
	}
}

func (e *SimpleTokenEstimator) EstimateTokens(prompt string, inputImages int) int {
	tokens := inputImages * ImageInputTokens
	if prompt == "" {
		return tokens
	}

	charCount := len([]rune(prompt))
	textEstimate := float64(charCount) / 4.0 * e.SafetyMargin

	return tokens + int(math.Ceil(textEstimate)) + 3
}
