package errors

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Quality bounds for lossy encoders.
const (
	MinQuality = 1
	MaxQuality = 100
)

// MaxWidth caps requested variant widths. Anything larger is almost certainly
// a typo and would allocate gigabytes per decode.
const MaxWidth = 16384

// ValidateQuality checks that q is within [MinQuality, MaxQuality].
func ValidateQuality(q int) error {
	if q < MinQuality || q > MaxQuality {
		return New(ErrCodeInvalidQuality, "quality must be an integer between %d and %d, got %d", MinQuality, MaxQuality, q)
	}
	return nil
}

// ValidateWidth checks that w is a positive width no larger than MaxWidth.
func ValidateWidth(w int) error {
	if w <= 0 {
		return New(ErrCodeInvalidWidth, "width must be positive, got %d", w)
	}
	if w > MaxWidth {
		return New(ErrCodeInvalidWidth, "width %d exceeds maximum of %d", w, MaxWidth)
	}
	return nil
}

// ValidateWidths checks every width and that at least one is present.
func ValidateWidths(ws []int) error {
	if len(ws) == 0 {
		return New(ErrCodeInvalidWidth, "at least one width is required")
	}
	for _, w := range ws {
		if err := ValidateWidth(w); err != nil {
			return err
		}
	}
	return nil
}

// ValidateBaseName validates a base name derived from a file stem.
//
// The rules mirror what can be safely embedded in an output file name:
//   - Non-empty
//   - Valid UTF-8
//   - No control characters
//   - No path separators
func ValidateBaseName(name string) error {
	if name == "" {
		return New(ErrCodeNameExtraction, "base name cannot be empty")
	}
	if !utf8.ValidString(name) {
		return New(ErrCodeNameExtraction, "base name is not valid UTF-8: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeNameExtraction, "base name contains control characters: %q", name)
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeNameExtraction, "base name contains path separators: %q", name)
	}
	return nil
}

// BaseName derives the base name of a source path: the file name without its
// final extension. The result is case-sensitive.
func BaseName(path string) (string, error) {
	file := filepath.Base(path)
	if file == "." || file == string(filepath.Separator) {
		return "", New(ErrCodeNameExtraction, "no file name in path %q", path)
	}
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	if err := ValidateBaseName(stem); err != nil {
		return "", Wrap(ErrCodeNameExtraction, err, "derive base name from %q", path)
	}
	return stem, nil
}

// ValidateOutputDir validates an output directory path.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return New(ErrCodeInvalidPath, "output directory cannot be empty")
	}
	if strings.ContainsRune(dir, '\x00') {
		return New(ErrCodeInvalidPath, "output directory contains a null byte")
	}
	return nil
}

// ValidateManifestName ensures the manifest file name is a plain base name.
func ValidateManifestName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "manifest file name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidPath, "manifest file name cannot contain path separators")
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "manifest file name cannot be %q", name)
	}
	return nil
}
