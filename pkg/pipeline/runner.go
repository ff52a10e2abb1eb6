package pipeline

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/variants/pkg/cache"
	"github.com/matzehuels/variants/pkg/codec"
	"github.com/matzehuels/variants/pkg/discover"
	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/manifest"
	"github.com/matzehuels/variants/pkg/observability"
	"github.com/matzehuels/variants/pkg/variant"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, codec and logger - it doesn't
// store run results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Codec  codec.Codec
	Logger *log.Logger
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (caching disabled).
// If keyer is nil, a DefaultKeyer is used.
// If cd is nil, the imaging codec is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, cd codec.Codec, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if cd == nil {
		cd = codec.NewImaging()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Codec:  cd,
		Logger: logger,
	}
}

// Execute runs discover → plan → process → persist.
//
// The returned error is non-nil only for invalid options, discovery failure,
// an unusable output directory or manifest, cancellation, or a failed
// manifest write. Per-item failures are in Result.Failures. When the manifest
// write fails the Result is returned alongside the error.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID[:8])
	result := &Result{RunID: runID, ManifestPath: opts.ManifestPath()}

	// Stage 1: Discover
	discoverStart := time.Now()
	images, err := discover.Find(opts.SourceDir, discover.Options{
		Recursive: opts.Recursive,
		Exclude:   append(slices.Clone(opts.Exclude), excludeOutDir(opts.SourceDir, opts.OutDir)...),
	})
	if err != nil {
		return nil, err
	}
	result.Stats.Images = len(images)
	result.Stats.DiscoverTime = time.Since(discoverStart)
	logger.Info("discovered images",
		"dir", opts.SourceDir,
		"images", len(images),
		"duration", result.Stats.DiscoverTime)

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", opts.OutDir)
	}

	m, err := r.seedManifest(opts, logger)
	if err != nil {
		return nil, err
	}
	result.Manifest = m

	// Stage 2: Plan
	jobs, skipped := plan(images)
	for _, f := range skipped {
		logger.Warn("skipping image", "path", f.Path, "code", f.Code, "err", errors.UserMessage(f.Err))
	}
	result.Failures = append(result.Failures, skipped...)
	result.Stats.Skipped = len(skipped)
	result.Stats.Processed = len(jobs)

	// Stage 3: Process
	processStart := time.Now()
	gen := variant.NewGenerator(r.Codec, r.Cache, r.Keyer, opts.Concurrency, logger)
	agg := &aggregate{result: result}

	var eg errgroup.Group
	eg.SetLimit(opts.Concurrency)
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			agg.add(r.processImage(ctx, gen, m, j, opts, logger))
			return nil
		})
	}
	_ = eg.Wait()
	result.Stats.ProcessTime = time.Since(processStart)

	if err := ctx.Err(); err != nil {
		logger.Warn("run cancelled, manifest not written", "processed", agg.done)
		return nil, err
	}
	sortFailures(result.Failures)

	// Stage 4: Persist
	persistStart := time.Now()
	err = m.Persist(result.ManifestPath)
	result.Stats.PersistTime = time.Since(persistStart)
	observability.Pipeline().OnManifestWritten(ctx, result.ManifestPath, m.Len(), err)
	if err != nil {
		logger.Error("manifest write failed", "path", result.ManifestPath, "err", errors.UserMessage(err))
		return result, err
	}

	logger.Info("wrote manifest",
		"path", result.ManifestPath,
		"images", m.Len(),
		"variants", result.Stats.VariantsWritten,
		"failures", len(result.Failures),
		"duration", result.Stats.ProcessTime+result.Stats.PersistTime)
	return result, nil
}

// seedManifest returns an empty manifest, or the existing one with Merge.
func (r *Runner) seedManifest(opts Options, logger *log.Logger) (*manifest.Manifest, error) {
	if !opts.Merge {
		return manifest.New(), nil
	}
	m, err := manifest.Load(opts.ManifestPath())
	if stderrors.Is(err, fs.ErrNotExist) {
		logger.Debug("no existing manifest to merge", "path", opts.ManifestPath())
		return manifest.New(), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("merging existing manifest", "path", opts.ManifestPath(), "images", m.Len())
	return m, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// aggregate folds per-image outcomes into the result.
type aggregate struct {
	mu     sync.Mutex
	result *Result
	done   int
}

func (a *aggregate) add(o imageOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &a.result.Stats
	a.done++
	s.VariantsWritten += o.written
	s.VariantsFailed += o.failed
	s.VariantsCached += o.cached
	s.BytesWritten += o.bytes
	switch {
	case o.placeholder:
		s.Placeholders++
	case o.placeholderFailed:
		s.PlaceholdersFailed++
	}
	a.result.Failures = append(a.result.Failures, o.failures...)
}

// excludeOutDir keeps a recursive scan out of the output directory when it
// lies inside the source directory. The result is relative to sourceDir.
func excludeOutDir(sourceDir, outDir string) []string {
	src, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil
	}
	out, err := filepath.Abs(outDir)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(src, out)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return []string{rel}
}
