package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"dtindex/internal/config"
	"dtindex/internal/infrastructure"
	"dtindex/pkg/contracts/domain"
)

// Cache holds the process-wide dataset. The first Get loads it; concurrent
// callers share that load. The result, success or failure, is kept until the
// source reports a different stamp.
type Cache struct {
	source      Source
	logger      *slog.Logger
	metrics     *infrastructure.DashboardMetrics
	loadTimeout time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	loaded  bool
	stamp   string
	dataset *domain.Dataset
	err     error
}

// NewCache creates an empty cache over source; metrics may be nil
func NewCache(source Source, logger *slog.Logger, metrics *infrastructure.DashboardMetrics) *Cache {
	return &Cache{
		source:      source,
		logger:      logger.With(slog.String("component", "dataset_cache")),
		metrics:     metrics,
		loadTimeout: config.DefaultLoadTimeout,
	}
}

// WithLoadTimeout bounds each load; zero keeps the default
func (c *Cache) WithLoadTimeout(d time.Duration) *Cache {
	if d > 0 {
		c.loadTimeout = d
	}
	return c
}

// Source returns the underlying source
func (c *Cache) Source() Source {
	return c.source
}

// Get returns the cached dataset, loading it on first use or after the source changed
func (c *Cache) Get(ctx context.Context) (*domain.Dataset, error) {
	stamp := c.currentStamp()

	c.mu.RLock()
	if c.loaded && c.stamp == stamp {
		ds, err := c.dataset, c.err
		c.mu.RUnlock()
		return ds, err
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("dataset", func() (interface{}, error) {
		// Another caller may have finished a load between the check above and here
		c.mu.RLock()
		if c.loaded && c.stamp == stamp {
			ds, err := c.dataset, c.err
			c.mu.RUnlock()
			return ds, err
		}
		c.mu.RUnlock()
		return c.load(ctx, stamp)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Dataset), nil
}

func (c *Cache) currentStamp() string {
	if s, ok := c.source.(Stamper); ok {
		return s.Stamp()
	}
	return ""
}

func (c *Cache) load(ctx context.Context, stamp string) (*domain.Dataset, error) {
	// A caller going away must not abort a load other callers share
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
	defer cancel()

	start := time.Now()
	ds, err := Load(loadCtx, c.source)
	duration := time.Since(start)

	c.metrics.RecordDatasetLoad(ctx, c.source.Kind(), duration, ds.Len(), err)

	if err != nil {
		c.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("source", c.source.Kind()),
			slog.String("location", c.source.Location()),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
	} else {
		c.logger.InfoContext(ctx, "dataset loaded",
			slog.String("source", c.source.Kind()),
			slog.String("location", c.source.Location()),
			slog.Int("records", ds.Len()),
			slog.Int("entities", len(ds.EntityIDs())),
			slog.Any("dimensions", ds.Dimensions),
			slog.String("checksum", ds.Source.Checksum),
			slog.Duration("duration", duration),
		)
	}

	c.mu.Lock()
	c.loaded = true
	c.stamp = stamp
	c.dataset = ds
	c.err = err
	c.mu.Unlock()

	return ds, err
}
