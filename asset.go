package imageedit

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const dataURLScheme = "data:"

// ImageAsset is a validated image selected by the user, held in memory only.
type ImageAsset struct {
	// DisplayURL is the full data URL of the file, directly renderable.
	DisplayURL string

	// Payload is the base64 encoding of the raw bytes, without the data URL header.
	Payload string

	// MIMEType is the declared media type of the file, always "image/...".
	MIMEType string

	// Name is the base name of the source file, informational only.
	Name string
}

// EditResult is the model output for one edit request.
type EditResult struct {
	// DisplayURL is the returned payload under a data URL header built from
	// the original image's MIME type.
	DisplayURL string

	// Payload is the base64 image data returned by the model.
	Payload string

	// MIMEType is copied from the originating request.
	MIMEType string
}

// NewEditResult builds an EditResult for a payload returned for an image of mimeType.
func NewEditResult(payload, mimeType string) *EditResult {
	return &EditResult{
		DisplayURL: DataURL(mimeType, payload),
		Payload:    payload,
		MIMEType:   mimeType,
	}
}

// Bytes decodes the result payload.
func (r *EditResult) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return data, nil
}

// Filename returns the download name for the result, e.g. "edited-image.png".
func (r *EditResult) Filename() string {
	return "edited-image." + ExtensionFromMIME(r.MIMEType)
}

// DataURL joins a MIME type and base64 payload into a data URL.
func DataURL(mimeType, payload string) string {
	return dataURLScheme + mimeType + ";base64," + payload
}

// SplitDataURL splits a data URL at its first comma into header and payload.
// ok is false when the URL contains no comma.
func SplitDataURL(dataURL string) (header, payload string, ok bool) {
	return strings.Cut(dataURL, ",")
}

// ExtensionFromMIME returns the subtype segment of a MIME type for use as a
// file extension, or "png" when there is none.
func ExtensionFromMIME(mimeType string) string {
	_, subtype, _ := strings.Cut(mimeType, "/")
	if subtype == "" {
		return "png"
	}
	return subtype
}
