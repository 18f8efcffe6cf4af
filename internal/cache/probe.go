package cache

import (
	"context"
	"fmt"
	"os"

	"github.com/kikiluvv/autocut/internal/ffmpeg"
)

type Prober interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
}

// ProbeCache answers probes from the database when the file is unchanged
// and falls through to next otherwise.
type ProbeCache struct {
	db   *DB
	next Prober
}

func NewProbeCache(db *DB, next Prober) *ProbeCache {
	return &ProbeCache{db: db, next: next}
}

func (c *ProbeCache) ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	size, mtime := st.Size(), st.ModTime().UnixNano()

	if info, ok, err := c.db.Lookup(ctx, path, size, mtime); err != nil {
		c.db.logger.Warn().Err(err).Str("path", path).Msg("probe cache lookup failed")
	} else if ok {
		c.db.logger.Debug().Str("path", path).Msg("probe cache hit")
		return info, nil
	}

	info, err := c.next.ProbeVideo(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := c.db.Store(ctx, path, size, mtime, info); err != nil {
		c.db.logger.Warn().Err(err).Str("path", path).Msg("probe cache store failed")
	}
	return info, nil
}
