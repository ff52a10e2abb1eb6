// Package discover lists the source images in a directory.
//
// Only files whose extension is in [Extensions] are returned; matching is
// case-insensitive. Contents are never read. Results are sorted by path so
// runs are reproducible across file systems.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/format"
)

// Extensions is the allow-list of source file extensions.
var Extensions = []string{"jpg", "jpeg", "png", "gif", "avif", "webp", "svg"}

// Image is a discovered source file.
type Image struct {
	// Path is the path of the file, joined onto the directory given to Find.
	Path string

	// Rel is Path relative to that directory.
	Rel string

	// Format is implied by the extension.
	Format format.Format
}

// Options controls discovery.
type Options struct {
	// Recursive descends into subdirectories.
	Recursive bool

	// Exclude lists directories to skip, relative to the root unless absolute.
	// Only meaningful with Recursive.
	Exclude []string
}

// Find returns the images directly inside dir (or below it, with
// opts.Recursive). Any error reading the tree is a DISCOVERY_ERROR.
func Find(dir string, opts Options) ([]Image, error) {
	root := filepath.Clean(dir)

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDiscovery, err, "read source directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeDiscovery, "source %s is not a directory", dir)
	}

	excluded := excludedDirs(root, opts.Exclude)

	var images []Image
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !opts.Recursive || isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}

		f, ok := Allowed(d.Name())
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		images = append(images, Image{Path: path, Rel: rel, Format: f})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDiscovery, err, "scan source directory %s", dir)
	}

	slices.SortFunc(images, func(a, b Image) int { return strings.Compare(a.Rel, b.Rel) })
	return images, nil
}

// Allowed reports whether name has an allow-listed extension and returns the
// implied format.
func Allowed(name string) (format.Format, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" || !slices.Contains(Extensions, ext) {
		return 0, false
	}
	f, err := format.Parse(ext)
	if err != nil {
		return 0, false
	}
	return f, true
}

func excludedDirs(root string, dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, x := range dirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if !filepath.IsAbs(x) {
			x = filepath.Join(root, x)
		}
		out = append(out, filepath.Clean(x))
	}
	return out
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if path == base || strings.HasPrefix(path, base+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// isRegular reports whether d is a regular file or a symlink to one. Broken
// links and links to directories are skipped.
func isRegular(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
