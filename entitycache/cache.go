// Package entitycache 缓存交易商侧的实体元数据, 进程内常驻, 不淘汰.
package entitycache

import (
	"context"
	"sync"

	"github.com/go-kratos/kratos/v2/log"
)

// Fetcher 一次批量拉取, 返回值可以缺少部分 id
type Fetcher[K comparable, V any] func(ctx context.Context, ids []K) (map[K]V, error)

type Option func(*options)

type options struct {
	logger *log.Helper
}

func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = log.NewHelper(logger)
	}
}

type Cache[K comparable, V any] struct {
	opts  *options
	fetch Fetcher[K, V]
	mux   sync.RWMutex
	items map[K]V
}

func New[K comparable, V any](fetch Fetcher[K, V], opts ...Option) *Cache[K, V] {
	o := &options{
		logger: log.NewHelper(log.DefaultLogger),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Cache[K, V]{
		opts:  o,
		fetch: fetch,
		items: make(map[K]V),
	}
}

// Resolve 按输入顺序返回结果, 交易商没有返回的 id 直接跳过
func (c *Cache[K, V]) Resolve(ctx context.Context, ids []K) ([]V, error) {
	missing := c.missing(ids)
	if len(missing) > 0 {
		fetched, err := c.fetch(ctx, missing)
		if err != nil {
			return nil, err
		}
		c.mux.Lock()
		for _, id := range missing {
			v, ok := fetched[id]
			if !ok {
				continue
			}
			// 已有条目不覆盖
			if _, exists := c.items[id]; !exists {
				c.items[id] = v
			}
		}
		c.mux.Unlock()
		if len(fetched) < len(missing) {
			c.opts.logger.Debugf("entity cache: %d of %d ids not returned", len(missing)-len(fetched), len(missing))
		}
	}

	c.mux.RLock()
	defer c.mux.RUnlock()
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		if v, ok := c.items[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// missing 去重并保持输入顺序
func (c *Cache[K, V]) missing(ids []K) []K {
	c.mux.RLock()
	defer c.mux.RUnlock()
	seen := make(map[K]struct{}, len(ids))
	var out []K
	for _, id := range ids {
		if _, ok := c.items[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (c *Cache[K, V]) Get(id K) (V, bool) {
	c.mux.RLock()
	defer c.mux.RUnlock()
	v, ok := c.items[id]
	return v, ok
}

func (c *Cache[K, V]) Len() int {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return len(c.items)
}
