package imageedit

// Model represents a specific image editing model.
type Model string

// AspectRatio represents the aspect ratio for edited images.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio4x3  AspectRatio = "4:3"
	AspectRatio3x4  AspectRatio = "3:4"
	AspectRatioAuto AspectRatio = "" // Keep the input's aspect ratio
)

// Modality names an output modality requested from the model.
type Modality string

const (
	ModalityImage Modality = "IMAGE"
	ModalityText  Modality = "TEXT"
)

// EditConfig holds per-request options for an edit.
type EditConfig struct {
	// Model to use (if empty, the provider default)
	Model Model

	// ResponseModalities requested from the model
	ResponseModalities []Modality

	// AspectRatio of the output image
	AspectRatio AspectRatio

	// Temperature controls randomness (0.0-2.0)
	Temperature *float32

	// SafetySettings for content filtering
	SafetySettings []SafetySetting
}

// WithModel returns a copy of the config with the specified model.
func (c *EditConfig) WithModel(model Model) *EditConfig {
	if c == nil {
		cfg := DefaultConfig()
		cfg.Model = model
		return cfg
	}
	cX := *c
	cX.Model = model
	return &cX
}

// DefaultConfig returns an EditConfig requesting an image-only response.
func DefaultConfig() *EditConfig {
	return &EditConfig{
		ResponseModalities: []Modality{ModalityImage},
		AspectRatio:        AspectRatioAuto,
	}
}

// InputImage is the image sent to the model for editing.
type InputImage struct {
	// Data is the raw image bytes
	Data []byte

	// MIMEType of the image (e.g., "image/jpeg", "image/png")
	MIMEType string
}

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}
