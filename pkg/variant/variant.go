// Package variant materializes the resized, re-encoded files for one source
// image.
//
// A [Generator] takes the full widths × formats cross-product of a [Request]
// and attempts every pair independently: a failed pair is reported in its
// [Result] and never stops the others. All codec work of every Generate and
// Placeholder call shares one weighted semaphore, so running several images
// at once never runs more encodes than the configured concurrency.
//
// Encoded bytes are cached by source content hash. A pair whose bytes are in
// the cache is written without decoding the source.
package variant

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/variants/internal/fsutil"
	"github.com/matzehuels/variants/pkg/cache"
	"github.com/matzehuels/variants/pkg/codec"
	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/format"
	"github.com/matzehuels/variants/pkg/manifest"
	"github.com/matzehuels/variants/pkg/observability"
)

// Request describes the variants wanted for one source image.
type Request struct {
	Source *codec.Source

	// SourceHash is the content hash of the source file. Empty disables
	// caching for this request.
	SourceHash string

	BaseName string
	OutDir   string
	Widths   []int
	Formats  []format.Format
	Quality  int
}

// Pairs returns the widths × formats cross-product in request order.
// Duplicates are kept.
func (r Request) Pairs() []manifest.Descriptor {
	out := make([]manifest.Descriptor, 0, len(r.Widths)*len(r.Formats))
	for _, w := range r.Widths {
		for _, f := range r.Formats {
			out = append(out, manifest.Descriptor{BaseName: r.BaseName, Width: w, Format: f})
		}
	}
	return out
}

// Result is the outcome of one (width, format) attempt.
type Result struct {
	Descriptor manifest.Descriptor

	// Path is where the variant was (or would have been) written.
	Path string

	// Size is the number of bytes written.
	Size int

	// Cached reports whether the bytes came from the cache.
	Cached bool

	// Err is nil on success.
	Err error

	Duration time.Duration
}

// OK reports whether the attempt succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Generator produces variants.
type Generator struct {
	Codec  codec.Codec
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	sem   *semaphore.Weighted
	limit int
}

// NewGenerator creates a generator running at most concurrency codec
// operations at a time. concurrency <= 0 means GOMAXPROCS. A nil cache
// disables caching; a nil keyer uses the default keyer.
func NewGenerator(c codec.Codec, ch cache.Cache, keyer cache.Keyer, concurrency int, logger *log.Logger) *Generator {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if ch == nil {
		ch = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Generator{
		Codec:  c,
		Cache:  ch,
		Keyer:  keyer,
		Logger: logger,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		limit:  concurrency,
	}
}

// Concurrency returns the codec concurrency limit.
func (g *Generator) Concurrency() int {
	return g.limit
}

// Generate attempts every pair of req and returns one Result per pair, in
// Pairs order. It never fails as a whole; if ctx is cancelled, pairs not yet
// started report ctx.Err().
func (g *Generator) Generate(ctx context.Context, req Request) []Result {
	pairs := req.Pairs()
	results := make([]Result, len(pairs))

	var eg errgroup.Group
	eg.SetLimit(g.limit)
	for i, d := range pairs {
		eg.Go(func() error {
			results[i] = g.one(ctx, req, d)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (g *Generator) one(ctx context.Context, req Request, d manifest.Descriptor) Result {
	start := time.Now()
	res := Result{Descriptor: d, Path: filepath.Join(req.OutDir, d.FileName())}

	data, cached, err := g.encode(ctx, req, d)
	if err == nil {
		if werr := fsutil.WriteFileAtomic(res.Path, data, 0o644); werr != nil {
			err = errors.Wrap(errors.ErrCodeWrite, werr, "write %s", res.Path)
		}
	}

	res.Duration = time.Since(start)
	res.Cached = cached
	if err != nil {
		res.Err = err
		g.Logger.Warn("variant failed",
			"image", d.BaseName,
			"width", d.Width,
			"format", d.Format,
			"err", errors.UserMessage(err))
	} else {
		res.Size = len(data)
		g.Logger.Debug("variant written",
			"file", d.FileName(),
			"bytes", res.Size,
			"cached", cached,
			"duration", res.Duration)
	}
	observability.Pipeline().OnVariantComplete(ctx, d.BaseName, d.Width, d.Format.Extension(), res.Size, cached, res.Err)
	return res
}

// encode returns the encoded bytes for d, from the cache when possible.
func (g *Generator) encode(ctx context.Context, req Request, d manifest.Descriptor) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !g.Codec.CanEncode(d.Format) {
		return nil, false, errors.Wrap(errors.ErrCodeEncode, codec.ErrUnsupportedFormat, "encode %s", d.FileName())
	}

	quality := req.Quality
	if !d.Format.Lossy() {
		quality = 0
	}

	var key string
	if req.SourceHash != "" {
		key = g.Keyer.VariantKey(req.SourceHash, d.Width, d.Format.Extension(), quality)
		if data, hit, err := g.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "variant")
			return data, true, nil
		} else if err != nil {
			g.Logger.Debug("cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, "variant")
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	defer g.sem.Release(1)

	img, err := req.Source.Image()
	if err != nil {
		return nil, false, err
	}
	data, err := g.Codec.ResizeAndEncode(img, d.Width, d.Format, req.Quality)
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		if err := g.Cache.Set(ctx, key, data, cache.TTLVariant); err != nil {
			g.Logger.Debug("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "variant", len(data))
		}
	}
	return data, false, nil
}
