// Package codec decodes source images and produces resized, re-encoded
// variants and blurred inline placeholders.
//
// The pipeline only talks to the [Codec] interface; [Imaging] is the
// production implementation built on github.com/disintegration/imaging.
// Every method returns a coded error from pkg/errors so callers can record
// failures per item without inspecting causes.
package codec

import (
	"errors"
	"image"

	"github.com/matzehuels/variants/pkg/format"
)

// ErrUnsupportedFormat is returned (wrapped) when a codec cannot decode or
// encode a format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// PlaceholderOptions controls placeholder generation.
type PlaceholderOptions struct {
	// Size is the bounding box, in pixels, of the thumbnail.
	Size int

	// Blur is the Gaussian blur sigma applied to the thumbnail.
	Blur float64

	// Quality is the encode quality used when the thumbnail format is lossy.
	Quality int
}

// Default placeholder settings.
const (
	DefaultPlaceholderSize    = 30
	DefaultPlaceholderBlur    = 5.0
	DefaultPlaceholderQuality = 60
)

// SetDefaults fills in zero fields.
func (o *PlaceholderOptions) SetDefaults() {
	if o.Size <= 0 {
		o.Size = DefaultPlaceholderSize
	}
	if o.Blur < 0 {
		o.Blur = 0
	}
	if o.Quality <= 0 {
		o.Quality = DefaultPlaceholderQuality
	}
}

// Placeholder is an inlineable preview of a source image.
type Placeholder struct {
	// URI is a "data:image/<subtype>;base64,..." URI of the blurred thumbnail.
	URI string

	// Width and Height are the dimensions of the source, not the thumbnail.
	Width  int
	Height int
}

// Codec is the set of image operations the pipeline needs.
type Codec interface {
	// Decode reads and decodes the image at path.
	Decode(path string) (image.Image, error)

	// Dimensions returns the pixel width and height of img.
	Dimensions(img image.Image) (width, height int)

	// Placeholder builds a blurred thumbnail of img encoded as f, or in a
	// fallback format when f cannot be encoded.
	Placeholder(img image.Image, f format.Format, opts PlaceholderOptions) (Placeholder, error)

	// ResizeAndEncode resizes img to width, preserving aspect ratio, and
	// encodes it as f. quality applies only to lossy formats.
	ResizeAndEncode(img image.Image, width int, f format.Format, quality int) ([]byte, error)

	// CanEncode reports whether ResizeAndEncode supports f.
	CanEncode(f format.Format) bool

	// CanDecode reports whether Decode supports sources of format f.
	CanDecode(f format.Format) bool
}
