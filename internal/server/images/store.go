// Package images stores uploaded recipe images, either on the local
// filesystem or in an S3-compatible bucket.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/google/uuid"
)

// Store persists image objects by key.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns an address clients can fetch key from.
	URL(ctx context.Context, key string) (string, error)
}

var ErrNotImage = errors.New("not a supported image")

// Format describes a detected image encoding.
type Format struct {
	Ext         string
	ContentType string
}

var formats = map[string]Format{
	"jpeg": {Ext: "jpg", ContentType: "image/jpeg"},
	"png":  {Ext: "png", ContentType: "image/png"},
	"gif":  {Ext: "gif", ContentType: "image/gif"},
}

// Detect decodes the image header in data and reports its format.
// Anything that is not a JPEG, PNG or GIF yields ErrNotImage.
func Detect(data []byte) (Format, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Format{}, ErrNotImage
	}
	f, ok := formats[name]
	if !ok {
		return Format{}, ErrNotImage
	}
	return f, nil
}

// now is a seam for tests.
var now = time.Now

// NewKey returns a fresh object key for an image with extension ext,
// grouped by upload date: recipes/2025/3/14/<uuid>.png.
func NewKey(ext string) string {
	d := now()
	return fmt.Sprintf("recipes/%d/%d/%d/%s.%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
