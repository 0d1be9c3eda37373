package imageedit

import "context"

// Generator is the remote image editing capability.
// Implement this interface to add support for new models or providers.
//
// The first model returned by Models() is considered the default model.
type Generator interface {
	// Edit sends one image and an instruction to the model and returns its
	// raw response. Implementations must not retry.
	Edit(ctx context.Context, image InputImage, instruction string, cfg *EditConfig) (*Response, error)

	// Models returns the model definitions supported by this provider.
	// The first model in the list is the default.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}

// EditRequester is the part of Editor a Session depends on.
type EditRequester interface {
	RequestEdit(ctx context.Context, payload, mimeType, prompt string) (string, error)
}

// Storage persists edited images.
// Implementations can wrap existing storage clients (local disk, S3, etc.).
type Storage interface {
	// SaveFile saves data at path and returns a URL or location for it.
	// The contentType is the image's MIME type (e.g., "image/png").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}
