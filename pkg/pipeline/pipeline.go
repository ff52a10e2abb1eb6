// Package pipeline runs a complete variant generation pass over a directory.
//
// This package ties discovery, placeholder creation, variant generation and
// the manifest together. The CLI is a thin layer over [Runner.Execute].
//
// # Stages
//
//  1. Discover: list the source images of the source directory
//  2. Plan: derive base names, skipping images without a usable or unique one
//  3. Process: per image, create the placeholder and every (width, format)
//     variant, recording each success in the manifest
//  4. Persist: write the manifest once, after every image is done
//
// Failures in stages 2 and 3 are recorded per item in [Result.Failures] and
// never stop other images. Only discovery and the final manifest write fail
// the run.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    SourceDir: "images",
//	    OutDir:    "images/variants",
//	    Formats:   []format.Format{format.JPEG, format.WEBP},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.VariantsWritten)
package pipeline

import (
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/variants/pkg/codec"
	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/format"
	"github.com/matzehuels/variants/pkg/manifest"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and config files
// =============================================================================

const (
	// DefaultSourceDir is the directory scanned when none is given.
	DefaultSourceDir = "."

	// DefaultOutDir is the output directory name.
	DefaultOutDir = "variants"

	// DefaultQuality is the encode quality for lossy formats.
	DefaultQuality = 80

	// DefaultManifestName is the file name of the manifest inside OutDir.
	DefaultManifestName = "data.json"

	// DefaultLQIPSize is the placeholder thumbnail bounding box in pixels.
	DefaultLQIPSize = codec.DefaultPlaceholderSize

	// DefaultLQIPBlur is the placeholder Gaussian blur sigma.
	DefaultLQIPBlur = codec.DefaultPlaceholderBlur
)

// DefaultWidths are the variant widths generated when none are given.
var DefaultWidths = []int{800, 1200, 1800, 2400}

// DefaultFormats are the output formats generated when none are given.
var DefaultFormats = []format.Format{format.JPEG}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one run.
type Options struct {
	// SourceDir is scanned for images.
	SourceDir string `json:"dir"`

	// OutDir receives the variants and the manifest. Relative paths are
	// resolved against the working directory, not SourceDir.
	OutDir string `json:"out_dir"`

	Formats []format.Format `json:"formats"`
	Widths  []int           `json:"widths"`

	// Quality applies to lossy formats only.
	Quality int `json:"quality"`

	// SkipLQIP disables placeholder creation.
	SkipLQIP bool `json:"skip_lqip,omitempty"`

	// LQIPSize is the placeholder bounding box. Zero means DefaultLQIPSize.
	LQIPSize int `json:"lqip_size,omitempty"`

	// LQIPBlur is the placeholder blur sigma. Zero means DefaultLQIPBlur;
	// a negative value disables blurring.
	LQIPBlur float64 `json:"lqip_blur,omitempty"`

	// Concurrency bounds codec work across all images. Zero means GOMAXPROCS.
	Concurrency int `json:"concurrency,omitempty"`

	// ManifestName is the manifest file name inside OutDir.
	ManifestName string `json:"manifest,omitempty"`

	// Merge seeds the run with the existing manifest, if any.
	Merge bool `json:"merge,omitempty"`

	// Recursive scans subdirectories of SourceDir. OutDir is always skipped.
	Recursive bool     `json:"recursive,omitempty"`
	Exclude   []string `json:"exclude,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// SetDefaults fills in every zero field.
func (o *Options) SetDefaults() {
	if o.SourceDir == "" {
		o.SourceDir = DefaultSourceDir
	}
	if o.OutDir == "" {
		o.OutDir = DefaultOutDir
	}
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if len(o.Widths) == 0 {
		o.Widths = slices.Clone(DefaultWidths)
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.LQIPSize == 0 {
		o.LQIPSize = DefaultLQIPSize
	}
	if o.LQIPBlur == 0 {
		o.LQIPBlur = DefaultLQIPBlur
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.ManifestName == "" {
		o.ManifestName = DefaultManifestName
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks option values. It assumes SetDefaults has run.
func (o *Options) Validate() error {
	if err := errors.ValidateQuality(o.Quality); err != nil {
		return err
	}
	if err := errors.ValidateWidths(o.Widths); err != nil {
		return err
	}
	for _, f := range o.Formats {
		if !f.Valid() {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format %d", int(f))
		}
	}
	if o.LQIPSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "lqip size must be positive, got %d", o.LQIPSize)
	}
	if err := errors.ValidateOutputDir(o.OutDir); err != nil {
		return err
	}
	return errors.ValidateManifestName(o.ManifestName)
}

// ValidateAndSetDefaults applies defaults and validates.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ManifestPath returns the manifest location.
func (o *Options) ManifestPath() string {
	name := o.ManifestName
	if name == "" {
		name = DefaultManifestName
	}
	return filepath.Join(o.OutDir, name)
}

// PlaceholderOptions returns the codec options for placeholders.
func (o *Options) PlaceholderOptions() codec.PlaceholderOptions {
	return codec.PlaceholderOptions{Size: o.LQIPSize, Blur: o.LQIPBlur}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a run.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// Manifest is the manifest as persisted.
	Manifest *manifest.Manifest

	// ManifestPath is where the manifest was written.
	ManifestPath string

	// Stats contains counts and timings.
	Stats Stats

	// Failures lists every per-item failure, sorted by path, width and format.
	Failures []Failure
}

// OK reports whether the run had no per-item failures.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// FailuresByCode groups failure counts by error code.
func (r *Result) FailuresByCode() map[errors.Code]int {
	out := make(map[errors.Code]int)
	for _, f := range r.Failures {
		out[f.Code]++
	}
	return out
}

// Stats contains run statistics.
type Stats struct {
	Images             int // discovered source images
	Processed          int // images that reached the processing stage
	Skipped            int // images skipped for name problems
	VariantsWritten    int
	VariantsFailed     int
	VariantsCached     int // written variants whose bytes came from the cache
	Placeholders       int
	PlaceholdersFailed int
	BytesWritten       int64
	DiscoverTime       time.Duration
	ProcessTime        time.Duration
	PersistTime        time.Duration
}

// Failure is one recovered per-item failure.
type Failure struct {
	// Path is the source image.
	Path string

	// BaseName is empty when it could not be derived.
	BaseName string

	// Width and Format are zero for failures that are not about one variant.
	Width  int
	Format format.Format

	Code errors.Code
	Err  error
}

// Stage names the step that failed: "name", "placeholder" or "variant".
func (f Failure) Stage() string {
	switch {
	case f.Width != 0:
		return "variant"
	case f.Code == errors.ErrCodeNameExtraction || f.Code == errors.ErrCodeDuplicateName:
		return "name"
	default:
		return "placeholder"
	}
}

// Error implements error.
func (f Failure) Error() string {
	if f.Width != 0 {
		return f.Path + " " + manifest.Descriptor{BaseName: f.BaseName, Width: f.Width, Format: f.Format}.FileName() + ": " + errors.UserMessage(f.Err)
	}
	return f.Path + ": " + errors.UserMessage(f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error {
	return f.Err
}

func sortFailures(fs []Failure) {
	slices.SortFunc(fs, func(a, b Failure) int {
		if a.Path != b.Path {
			if a.Path < b.Path {
				return -1
			}
			return 1
		}
		if a.Width != b.Width {
			return a.Width - b.Width
		}
		return int(a.Format) - int(b.Format)
	})
}
