package imageedit

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// File is a user-selected file: a name, a declared media type and its content.
type File interface {
	Name() string

	// Type returns the declared media type, e.g. "image/png".
	Type() string

	// Open returns a reader over the full file content.
	Open() (io.ReadCloser, error)
}

// LocalFile is a File on the local filesystem. Its type is declared from the
// file extension, the way a browser declares it; content is never sniffed.
type LocalFile struct {
	path     string
	mimeType string
}

// OpenLocalFile returns a File for path. The file is not read until Ingest.
func OpenLocalFile(path string) *LocalFile {
	return &LocalFile{path: path, mimeType: MIMETypeFromPath(path)}
}

func (f *LocalFile) Name() string { return filepath.Base(f.path) }
func (f *LocalFile) Type() string { return f.mimeType }

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// MemoryFile is a File backed by an in-memory byte slice.
type MemoryFile struct {
	name     string
	mimeType string
	data     []byte
}

// NewMemoryFile returns a File over data with the given declared type.
func NewMemoryFile(name, mimeType string, data []byte) *MemoryFile {
	return &MemoryFile{name: name, mimeType: mimeType, data: data}
}

func (f *MemoryFile) Name() string { return f.name }
func (f *MemoryFile) Type() string { return f.mimeType }

func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

// MIMETypeFromPath returns the media type declared by a file's extension,
// or "" if the extension is unknown.
func MIMETypeFromPath(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return ""
	}
	if t := mime.TypeByExtension(ext); t != "" {
		mediaType, _, _ := strings.Cut(t, ";")
		return strings.TrimSpace(mediaType)
	}
	switch ext {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".avif":
		return "image/avif"
	default:
		return ""
	}
}

// Ingest validates that f is an image, reads it fully and returns its
// in-memory representation.
//
// A file whose declared type does not start with "image/" fails with
// ErrInvalidFileType before it is opened. Open and read errors fail with a
// ReadFailure carrying the underlying error.
func Ingest(ctx context.Context, f File) (*ImageAsset, error) {
	if err := ValidateImageMIMEType(f.Type()); err != nil {
		return nil, &Error{Kind: KindInvalidFileType, Message: MsgInvalidFileType, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, newReadFailure(err)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, newReadFailure(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, newReadFailure(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newReadFailure(err)
	}

	dataURL := DataURL(f.Type(), base64.StdEncoding.EncodeToString(data))
	_, payload, _ := SplitDataURL(dataURL)

	return &ImageAsset{
		DisplayURL: dataURL,
		Payload:    payload,
		MIMEType:   f.Type(),
		Name:       f.Name(),
	}, nil
}

// IngestResult is the outcome of IngestAsync.
type IngestResult struct {
	Asset *ImageAsset
	Err   error
}

// IngestAsync runs Ingest in its own goroutine. The returned channel receives
// exactly one result and is then closed.
func IngestAsync(ctx context.Context, f File) <-chan IngestResult {
	ch := make(chan IngestResult, 1)
	go func() {
		defer close(ch)
		asset, err := Ingest(ctx, f)
		ch <- IngestResult{Asset: asset, Err: err}
	}()
	return ch
}
