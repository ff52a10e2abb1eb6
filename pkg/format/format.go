// Package format defines the closed set of image formats known to the
// variant generator.
//
// Every format has a fixed lowercase file extension, a MIME subtype and a
// lossy flag. Lookups go through exhaustive switches so adding a format
// without filling in its table entries is caught by the tests.
//
// # Parsing
//
// [Parse] accepts the extension token or one of its aliases, case-insensitively:
//
//	f, err := format.Parse("JPEG") // format.JPEG
//	f.Extension()                  // "jpg"
//	f.MIMEType()                   // "image/jpeg"
package format

import (
	"encoding"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an image format.
type Format int

// Known formats. The zero value is not a valid format.
const (
	JPEG Format = iota + 1
	PNG
	GIF
	WEBP
	SVG
	AVIF
)

// All lists every known format in declaration order.
var All = []Format{JPEG, PNG, GIF, WEBP, SVG, AVIF}

// aliases maps accepted input tokens to formats.
var aliases = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"gif":  GIF,
	"webp": WEBP,
	"svg":  SVG,
	"avif": AVIF,
}

// Extension returns the lowercase file extension token (without dot).
func (f Format) Extension() string {
	switch f {
	case JPEG:
		return "jpg"
	case PNG:
		return "png"
	case GIF:
		return "gif"
	case WEBP:
		return "webp"
	case SVG:
		return "svg"
	case AVIF:
		return "avif"
	}
	return ""
}

// MIMEType returns the media type used in data URIs and HTTP headers.
func (f Format) MIMEType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case GIF:
		return "image/gif"
	case WEBP:
		return "image/webp"
	case SVG:
		return "image/svg+xml"
	case AVIF:
		return "image/avif"
	}
	return ""
}

// Lossy reports whether the encode quality parameter applies to f.
func (f Format) Lossy() bool {
	switch f {
	case JPEG, AVIF:
		return true
	case PNG, GIF, WEBP, SVG:
		return false
	}
	return false
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	return f.Extension() != ""
}

// String returns the extension token, so formats print the way they appear
// in file names and manifest keys.
func (f Format) String() string {
	if ext := f.Extension(); ext != "" {
		return ext
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Parse converts an extension or alias (case-insensitive, optional leading dot)
// into a Format.
func Parse(s string) (Format, error) {
	token := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := aliases[token]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown image format: %q (must be one of: %s)", s, strings.Join(Names(), ", "))
}

// ParseList parses every entry of list, stopping at the first invalid one.
func ParseList(list []string) ([]Format, error) {
	out := make([]Format, 0, len(list))
	for _, s := range list {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// FromPath returns the format implied by the file extension of path.
// The contents are not inspected.
func FromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return 0, fmt.Errorf("no file extension: %q", path)
	}
	return Parse(ext)
}

// Names returns the extension tokens of All.
func Names() []string {
	names := make([]string, len(All))
	for i, f := range All {
		names[i] = f.Extension()
	}
	return names
}

// MarshalText encodes the format as its extension token.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid format: %d", int(f))
	}
	return []byte(f.Extension()), nil
}

// UnmarshalText decodes an extension token or alias.
func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Ensure Format round-trips through encoding.TextMarshaler.
var (
	_ encoding.TextMarshaler   = Format(0)
	_ encoding.TextUnmarshaler = (*Format)(nil)
)
