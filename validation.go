package imageedit

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
)

// MaxImageSize is the maximum inline image size accepted by the model (20MB).
const MaxImageSize = 20 * 1024 * 1024

// ValidatePrompt validates an edit instruction after trimming whitespace.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateImageMIMEType checks that mimeType names an image media type.
func ValidateImageMIMEType(mimeType string) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: %q", ErrInvalidMIMEType, mimeType)
	}
	return nil
}

// ValidateInputImage validates an image before it is sent to a provider.
func ValidateInputImage(img InputImage) error {
	if len(img.Data) == 0 {
		return ErrEmptyImageData
	}
	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(img.Data), MaxImageSize)
	}
	return ValidateImageMIMEType(img.MIMEType)
}
