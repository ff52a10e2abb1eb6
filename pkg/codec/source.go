package codec

import (
	"image"
	"sync"

	"github.com/matzehuels/variants/pkg/format"
)

// Source is a source image that is decoded at most once, on first use.
//
// The placeholder and every variant of an image share one Source, so an image
// whose outputs all come from the cache is never decoded. Source is safe for
// concurrent use.
type Source struct {
	Path   string
	Format format.Format

	image func() (image.Image, error)
}

// NewSource returns a Source that decodes path with c on first use.
func NewSource(c Codec, path string, f format.Format) *Source {
	return &Source{
		Path:   path,
		Format: f,
		image: sync.OnceValues(func() (image.Image, error) {
			return c.Decode(path)
		}),
	}
}

// Image returns the decoded image, decoding it on the first call. Later calls
// return the same image or the same error.
func (s *Source) Image() (image.Image, error) {
	return s.image()
}
