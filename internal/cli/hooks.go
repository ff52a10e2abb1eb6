package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/variants/pkg/observability"
)

// cacheCounter tallies cache events for the run summary.
type cacheCounter struct {
	observability.NoopCacheHooks
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *cacheCounter) OnCacheHit(context.Context, string)  { c.hits.Add(1) }
func (c *cacheCounter) OnCacheMiss(context.Context, string) { c.misses.Add(1) }

// debugHooks logs pipeline events in verbose mode.
type debugHooks struct {
	observability.NoopPipelineHooks
	logger *log.Logger
	images atomic.Int64
}

func (h *debugHooks) OnImageStart(_ context.Context, path string) {
	h.logger.Debug("image started", "path", path)
}

func (h *debugHooks) OnImageComplete(_ context.Context, base string, written, failed int, d time.Duration) {
	n := h.images.Add(1)
	h.logger.Debug("image done", "n", n, "image", base, "written", written, "failed", failed, "duration", d.Round(time.Millisecond))
}

func (h *debugHooks) OnManifestWritten(_ context.Context, path string, images int, err error) {
	if err != nil {
		return
	}
	h.logger.Debug("manifest flushed", "path", path, "images", images)
}
