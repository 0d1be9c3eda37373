package imageedit

import (
	"context"
	"path"
)

// StorageResult contains information about a saved image.
type StorageResult struct {
	// URL is where the image can be accessed
	URL string

	// Path is the storage path/key where the image was saved
	Path string

	// Size is the number of bytes saved
	Size int
}

// SaveToStorage saves an edited image to storage as {dir}/edited-image.{ext},
// where ext is the subtype of the result's MIME type.
func SaveToStorage(
	ctx context.Context,
	storage Storage,
	result *EditResult,
	dir string) (*StorageResult, error) {

	if storage == nil {
		return nil, ErrStorageNotConfigured
	}
	if result == nil {
		return nil, ErrNoResult
	}

	data, err := result.Bytes()
	if err != nil {
		return nil, err
	}

	p := result.Filename()
	if dir != "" {
		p = path.Join(dir, p)
	}

	url, err := storage.SaveFile(ctx, data, p, result.MIMEType)
	if err != nil {
		return nil, err
	}

	return &StorageResult{
		URL:  url,
		Path: p,
		Size: len(data),
	}, nil
}
