package variant

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/variants/pkg/cache"
	"github.com/matzehuels/variants/pkg/codec"
	"github.com/matzehuels/variants/pkg/errors"
	"github.com/matzehuels/variants/pkg/manifest"
	"github.com/matzehuels/variants/pkg/observability"
)

// Placeholder builds the LQIP for src, sharing the generator's semaphore and
// cache. The returned error carries DECODE_ERROR when the source cannot be
// decoded and PLACEHOLDER_ERROR otherwise.
func (g *Generator) Placeholder(ctx context.Context, src *codec.Source, sourceHash string, opts codec.PlaceholderOptions) (*manifest.LQIP, bool, error) {
	opts.SetDefaults()
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var key string
	if sourceHash != "" {
		key = g.Keyer.PlaceholderKey(sourceHash, opts.Size, opts.Blur)
		if data, hit, err := g.Cache.Get(ctx, key); err == nil && hit {
			var lqip manifest.LQIP
			if json.Unmarshal(data, &lqip) == nil && lqip.Image != "" {
				observability.Cache().OnCacheHit(ctx, "lqip")
				return &lqip, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "lqip")
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	defer g.sem.Release(1)

	img, err := src.Image()
	if err != nil {
		return nil, false, err
	}
	p, err := g.Codec.Placeholder(img, src.Format, opts)
	if err != nil {
		return nil, false, errors.Wrap(errors.CodeOr(err, errors.ErrCodePlaceholder), err, "placeholder for %s", src.Path)
	}
	lqip := &manifest.LQIP{Image: p.URI, Width: p.Width, Height: p.Height}

	if key != "" {
		if data, err := json.Marshal(lqip); err == nil {
			if err := g.Cache.Set(ctx, key, data, cache.TTLPlaceholder); err == nil {
				observability.Cache().OnCacheSet(ctx, "lqip", len(data))
			}
		}
	}
	return lqip, false, nil
}
