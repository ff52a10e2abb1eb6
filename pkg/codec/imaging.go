package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the WebP decoder with image.Decode

	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/format"
)

// Imaging implements Codec with github.com/disintegration/imaging.
//
// JPEG, PNG, GIF and WebP sources are decoded, with EXIF orientation applied.
// WebP output is lossless, so quality is ignored for it. SVG and AVIF are
// neither decoded nor encoded.
type Imaging struct {
	// Filter is the resampling filter used for resizing. Defaults to Lanczos.
	Filter imaging.ResampleFilter
}

// NewImaging returns an Imaging codec using Lanczos resampling.
func NewImaging() *Imaging {
	return &Imaging{Filter: imaging.Lanczos}
}

// CanDecode implements Codec.
func (c *Imaging) CanDecode(f format.Format) bool {
	switch f {
	case format.JPEG, format.PNG, format.GIF, format.WEBP:
		return true
	case format.SVG, format.AVIF:
		return false
	}
	return false
}

// CanEncode implements Codec.
func (c *Imaging) CanEncode(f format.Format) bool {
	switch f {
	case format.JPEG, format.PNG, format.GIF, format.WEBP:
		return true
	case format.SVG, format.AVIF:
		return false
	}
	return false
}

// Decode implements Codec.
func (c *Imaging) Decode(path string) (image.Image, error) {
	f, err := format.FromPath(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", path)
	}
	if !c.CanDecode(f) {
		return nil, errors.Wrap(errors.ErrCodeDecode, ErrUnsupportedFormat, "decode %s: %s sources", path, f)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", path)
	}
	return img, nil
}

// Dimensions implements Codec.
func (c *Imaging) Dimensions(img image.Image) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// Placeholder implements Codec.
func (c *Imaging) Placeholder(img image.Image, f format.Format, opts PlaceholderOptions) (Placeholder, error) {
	opts.SetDefaults()
	if img == nil {
		return Placeholder{}, errors.New(errors.ErrCodePlaceholder, "no image to build a placeholder from")
	}

	width, height := c.Dimensions(img)
	if width == 0 || height == 0 {
		return Placeholder{}, errors.New(errors.ErrCodePlaceholder, "image has no pixels")
	}

	thumb := imaging.Fit(img, opts.Size, opts.Size, c.filter())
	if opts.Blur > 0 {
		thumb = imaging.Blur(thumb, opts.Blur)
	}

	if !c.CanEncode(f) {
		f = format.PNG
	}
	data, err := c.encode(thumb, f, opts.Quality)
	if err != nil {
		return Placeholder{}, errors.Wrap(errors.ErrCodePlaceholder, err, "encode %s placeholder", f)
	}

	return Placeholder{
		URI:    DataURI(f, data),
		Width:  width,
		Height: height,
	}, nil
}

// ResizeAndEncode implements Codec.
//
// The output is exactly width pixels wide. Smaller sources are upscaled so
// the width token in the file name always matches the file.
func (c *Imaging) ResizeAndEncode(img image.Image, width int, f format.Format, quality int) ([]byte, error) {
	if err := errors.ValidateWidth(width); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "resize")
	}
	if !c.CanEncode(f) {
		return nil, errors.Wrap(errors.ErrCodeEncode, ErrUnsupportedFormat, "encode %s", f)
	}

	resized := imaging.Resize(img, width, 0, c.filter())
	data, err := c.encode(resized, f, quality)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "encode %dw %s", width, f)
	}
	return data, nil
}

func (c *Imaging) encode(img image.Image, f format.Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case format.JPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case format.PNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case format.GIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case format.WEBP:
		err = nativewebp.Encode(&buf, img, nil)
	case format.SVG, format.AVIF:
		err = ErrUnsupportedFormat
	default:
		err = fmt.Errorf("invalid format %d", int(f))
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Imaging) filter() imaging.ResampleFilter {
	if c.Filter.Support == 0 && c.Filter.Kernel == nil {
		return imaging.Lanczos
	}
	return c.Filter
}

// DataURI encodes data as a base64 data URI with the MIME type of f.
func DataURI(f format.Format, data []byte) string {
	return "data:" + f.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

var _ Codec = (*Imaging)(nil)
