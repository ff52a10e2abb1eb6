package pipeline

import (
	"github.com/matzehuels/variants/pkg/discover"
	"github.com/matzehuels/variants/pkg/errors"
)

// job is one image that passed planning.
type job struct {
	image discover.Image
	base  string
}

// plan derives base names for images, which must be sorted by path. Images
// without a usable base name, and later images reusing an earlier base name,
// are returned as failures; they never touch the manifest.
func plan(images []discover.Image) ([]job, []Failure) {
	var (
		jobs     = make([]job, 0, len(images))
		failures []Failure
		owner    = make(map[string]string, len(images))
	)

	for _, img := range images {
		base, err := errors.BaseName(img.Path)
		if err != nil {
			failures = append(failures, Failure{
				Path: img.Path,
				Code: errors.ErrCodeNameExtraction,
				Err:  err,
			})
			continue
		}

		if first, taken := owner[base]; taken {
			failures = append(failures, Failure{
				Path:     img.Path,
				BaseName: base,
				Code:     errors.ErrCodeDuplicateName,
				Err:      errors.New(errors.ErrCodeDuplicateName, "base name %q already used by %s", base, first),
			})
			continue
		}
		owner[base] = img.Path

		jobs = append(jobs, job{image: img, base: base})
	}
	return jobs, failures
}
