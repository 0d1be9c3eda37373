package imageedit

import (
	"math"
)

// TokenEstimator estimates the token cost of an edit request for rate limiting.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// SimpleTokenEstimator approximates text tokens at four characters per token
// and charges a fixed cost for the attached image.
type SimpleTokenEstimator struct {
	SafetyMargin float64

	// ImageTokens is charged once per request for the input image.
	ImageTokens int
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{
		SafetyMargin: 1.2,
		ImageTokens:  258,
	}
}

func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return e.ImageTokens
	}

	charCount := len([]rune(text))
	tokenEstimate := float64(charCount) / 4.0
	tokenEstimate *= e.SafetyMargin

	return int(math.Ceil(tokenEstimate)) + 3 + e.ImageTokens
}
