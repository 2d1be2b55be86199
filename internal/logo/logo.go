// Package logo validates a selected logo image and turns it into the data URL
// the generation service expects in logo_base64.
package logo

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"sales-deck-generator/internal/model"
)

// MaxSize is the largest logo accepted, 16 MiB.
const MaxSize int64 = 16 << 20

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// ValidationError rejects a file before any of it is read.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// EncodingError reports that an accepted file could not be read.
type EncodingError struct {
	Name string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to read logo %s: %v", e.Name, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Encoder implements model.LogoEncoder.
type Encoder struct{}

func NewEncoder() *Encoder { return &Encoder{} }

func (Encoder) Validate(file model.LogoFile) error { return Validate(file) }

func (Encoder) Encode(ctx context.Context, file model.LogoFile) (string, error) {
	return Encode(ctx, file)
}

// Validate checks the declared media type and size of a candidate logo.
func Validate(file model.LogoFile) error {
	contentType := normalizeType(file.ContentType)
	if !allowedTypes[contentType] {
		return &ValidationError{Message: "Please upload a PNG, JPEG, or GIF image"}
	}
	if file.Size > MaxSize {
		return &ValidationError{Message: "File size must be less than 16MB"}
	}
	return nil
}

// Encode reads the file and returns data:<type>;base64,<payload>. The file is
// always closed before Encode returns.
func Encode(ctx context.Context, file model.LogoFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &EncodingError{Name: file.Name, Err: err}
	}
	if file.Open == nil {
		return "", &EncodingError{Name: file.Name, Err: fmt.Errorf("no file to open")}
	}

	rc, err := file.Open()
	if err != nil {
		return "", &EncodingError{Name: file.Name, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxSize+1))
	if err != nil {
		return "", &EncodingError{Name: file.Name, Err: err}
	}
	if int64(len(data)) > MaxSize {
		return "", &EncodingError{Name: file.Name, Err: fmt.Errorf("file grew past %d bytes while reading", MaxSize)}
	}

	return "data:" + normalizeType(file.ContentType) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Decode splits a data URL back into its media type and bytes. A bare base64
// payload without the data: prefix is accepted with an empty type.
func Decode(s string) (string, []byte, error) {
	contentType := ""
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, body, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
		if !ok {
			return "", nil, fmt.Errorf("malformed data URL")
		}
		if !strings.HasSuffix(header, ";base64") {
			return "", nil, fmt.Errorf("data URL is not base64 encoded")
		}
		contentType = strings.TrimSuffix(header, ";base64")
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode logo: %w", err)
	}
	return contentType, data, nil
}

// FromPath describes a file on disk, declaring its type from its content.
func FromPath(path string) (model.LogoFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.LogoFile{}, fmt.Errorf("failed to stat logo: %w", err)
	}
	if info.IsDir() {
		return model.LogoFile{}, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return model.LogoFile{}, fmt.Errorf("failed to detect logo type: %w", err)
	}

	return model.LogoFile{
		Name:        filepath.Base(path),
		ContentType: mt.String(),
		Size:        info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromBytes describes a logo already held in memory.
func FromBytes(name, contentType string, data []byte) model.LogoFile {
	return model.LogoFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromMultipart copies an uploaded form file into memory, keeping the type the
// browser declared for it. Upload temp files do not outlive the request, so
// the bytes are read now. Oversized uploads are described but not read.
func FromMultipart(header *multipart.FileHeader) (model.LogoFile, error) {
	contentType := header.Header.Get("Content-Type")
	if header.Size > MaxSize {
		return model.LogoFile{Name: header.Filename, ContentType: contentType, Size: header.Size}, nil
	}

	f, err := header.Open()
	if err != nil {
		return model.LogoFile{}, &EncodingError{Name: header.Filename, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxSize+1))
	if err != nil {
		return model.LogoFile{}, &EncodingError{Name: header.Filename, Err: err}
	}
	return FromBytes(header.Filename, contentType, data), nil
}

func normalizeType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}
