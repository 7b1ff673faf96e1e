package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/harshilnayi/BlockScope/internal/cache"
	"github.com/harshilnayi/BlockScope/internal/model"
)

// Cached serves repeated runs of an adapter over the same source from a store.
// Only successful runs are cached. Salt should change whenever the adapter's
// output mapping does, e.g. on taxonomy overrides.
type Cached struct {
	Adapter
	Store *cache.Store
	Salt  string
}

func (c *Cached) Analyze(ctx context.Context, source string, timeout time.Duration) ([]model.Finding, error) {
	key := cache.Key(c.Name(), c.Salt, source)
	if b, ok, err := c.Store.Load(key); err == nil && ok {
		var fs []model.Finding
		if err := json.Unmarshal(b, &fs); err == nil {
			return fs, nil
		}
	}
	fs, err := c.Adapter.Analyze(ctx, source, timeout)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(fs); err == nil {
		_ = c.Store.Put(key, b)
	}
	return fs, nil
}
