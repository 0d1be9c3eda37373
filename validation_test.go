package imageedit

import (
	"errors"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		prompt  string
		wantErr error
	}{
		{
			name:    "valid prompt",
			prompt:  "add sunglasses",
			wantErr: nil,
		},
		{
			name:    "empty prompt",
			prompt:  "",
			wantErr: ErrEmptyPrompt,
		},
		{
			name:    "whitespace only",
			prompt:  "  \n\t ",
			wantErr: ErrEmptyPrompt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrompt(tt.prompt)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePrompt() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateImageMIMEType(t *testing.T) {
	tests := []struct {
		mimeType string
		wantErr  bool
	}{
		{"image/png", false},
		{"image/jpeg", false},
		{"image/heic", false},
		{"image/svg+xml", false},
		{"", true},
		{"text/plain", true},
		{"application/pdf", true},
		{"IMAGE/PNG", true},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			err := ValidateImageMIMEType(tt.mimeType)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImageMIMEType(%q) error = %v, wantErr %v", tt.mimeType, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidMIMEType) {
				t.Errorf("expected ErrInvalidMIMEType, got %v", err)
			}
		})
	}
}

func TestValidateInputImage(t *testing.T) {
	tests := []struct {
		name    string
		img     InputImage
		wantErr error
	}{
		{
			name:    "valid image",
			img:     InputImage{Data: []byte("fake image data"), MIMEType: "image/png"},
			wantErr: nil,
		},
		{
			name:    "empty data",
			img:     InputImage{MIMEType: "image/png"},
			wantErr: ErrEmptyImageData,
		},
		{
			name:    "too large",
			img:     InputImage{Data: make([]byte, MaxImageSize+1), MIMEType: "image/png"},
			wantErr: ErrImageTooLarge,
		},
		{
			name:    "not an image",
			img:     InputImage{Data: []byte("%PDF"), MIMEType: "application/pdf"},
			wantErr: ErrInvalidMIMEType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInputImage(tt.img)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateInputImage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
