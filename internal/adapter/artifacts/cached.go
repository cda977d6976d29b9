package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/couchcryptid/bird-detect-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/bird-detect-etl/internal/cache"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
	"github.com/couchcryptid/bird-detect-etl/internal/observability"
)

// CachedReader memoizes decoded view artifacts. Entries are keyed by path
// and modification time, so a rewritten artifact is decoded again.
type CachedReader struct {
	inner   *Reader
	cache   *cache.LRU[string, any]
	metrics *observability.Metrics
}

// NewCachedReader wraps inner with an LRU of at most maxEntries artifacts.
func NewCachedReader(inner *Reader, maxEntries int, metrics *observability.Metrics) *CachedReader {
	return &CachedReader{
		inner:   inner,
		cache:   cache.NewLRU[string, any](maxEntries),
		metrics: metrics,
	}
}

// View returns the rows of a monitor's view artifact.
func (c *CachedReader) View(monitor string, v domain.View) (any, error) {
	return c.load(c.inner.layout.ViewPath(monitor, v), v)
}

// Latest returns the rows of the freshest view artifact, or an empty
// collection when there is none.
func (c *CachedReader) Latest(monitor string) (any, error) {
	path, v, ok, err := c.inner.freshest(monitor)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []map[string]any{}, nil
	}
	return c.load(path, v)
}

// CheckReadiness delegates to the underlying reader.
func (c *CachedReader) CheckReadiness(ctx context.Context) error {
	return c.inner.CheckReadiness(ctx)
}

func (c *CachedReader) load(path string, v domain.View) (any, error) {
	mt, err := parquetstore.ModTime(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &NotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s@%d", path, mt.UnixNano())
	if rows, ok := c.cache.Get(key); ok {
		c.metrics.ArtifactCache.WithLabelValues("hit").Inc()
		return rows, nil
	}
	c.metrics.ArtifactCache.WithLabelValues("miss").Inc()

	rows, err := c.inner.load(path, v)
	if err != nil {
		return nil, err
	}
	c.cache.Put(key, rows)
	return rows, nil
}
