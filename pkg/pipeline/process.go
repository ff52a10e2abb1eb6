package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/variants/pkg/cache"
	"github.com/matzehuels/variants/pkg/codec"
	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/manifest"
	"github.com/matzehuels/variants/pkg/observability"
	"github.com/matzehuels/variants/pkg/variant"
)

// imageOutcome is what processing one image contributed to the run.
type imageOutcome struct {
	written, failed, cached int
	bytes                   int64
	placeholder             bool
	placeholderFailed       bool
	failures                []Failure
}

// processImage runs the placeholder and variant steps for one image and
// records every success in m. It never fails as a whole.
func (r *Runner) processImage(ctx context.Context, gen *variant.Generator, m *manifest.Manifest, j job, opts Options, logger *log.Logger) imageOutcome {
	start := time.Now()
	path := j.image.Path
	observability.Pipeline().OnImageStart(ctx, path)

	var out imageOutcome
	hash := r.sourceHash(path, logger)
	src := codec.NewSource(r.Codec, path, j.image.Format)

	// Placeholder failure leaves the LQIP absent; variants still run.
	var lqip *manifest.LQIP
	if !opts.SkipLQIP {
		phStart := time.Now()
		p, cached, err := gen.Placeholder(ctx, src, hash, opts.PlaceholderOptions())
		observability.Pipeline().OnPlaceholderComplete(ctx, j.base, time.Since(phStart), err)
		if err != nil {
			out.placeholderFailed = true
			out.failures = append(out.failures, Failure{
				Path:     path,
				BaseName: j.base,
				Code:     errors.CodeOr(err, errors.ErrCodePlaceholder),
				Err:      err,
			})
			logger.Warn("placeholder failed", "image", j.base, "err", errors.UserMessage(err))
		} else {
			out.placeholder = true
			lqip = p
			logger.Debug("placeholder created", "image", j.base, "cached", cached)
		}
	}
	m.AddRecord(j.base, lqip)

	results := gen.Generate(ctx, variant.Request{
		Source:     src,
		SourceHash: hash,
		BaseName:   j.base,
		OutDir:     opts.OutDir,
		Widths:     opts.Widths,
		Formats:    opts.Formats,
		Quality:    opts.Quality,
	})
	for _, res := range results {
		if res.OK() {
			m.AddVariant(res.Descriptor)
			out.written++
			out.bytes += int64(res.Size)
			if res.Cached {
				out.cached++
			}
			continue
		}
		out.failed++
		out.failures = append(out.failures, Failure{
			Path:     path,
			BaseName: j.base,
			Width:    res.Descriptor.Width,
			Format:   res.Descriptor.Format,
			Code:     errors.CodeOr(res.Err, errors.ErrCodeEncode),
			Err:      res.Err,
		})
	}

	duration := time.Since(start)
	observability.Pipeline().OnImageComplete(ctx, j.base, out.written, out.failed, duration)
	logger.Info("processed image",
		"image", j.base,
		"variants", out.written,
		"failed", out.failed,
		"lqip", lqip != nil,
		"duration", duration)
	return out
}

// sourceHash returns the content hash used for cache keys, or "" when caching
// is disabled or the file cannot be hashed.
func (r *Runner) sourceHash(path string, logger *log.Logger) string {
	if _, ok := r.Cache.(cache.NullCache); ok {
		return ""
	}
	h, err := cache.HashFile(path)
	if err != nil {
		logger.Debug("cannot hash source, caching disabled for it", "path", path, "err", err)
		return ""
	}
	return h
}
