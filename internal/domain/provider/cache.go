package provider

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
)

// Cached decorators serve provider payloads from the PayloadCache and fall
// through to the wrapped source on a miss.  A singleflight group collapses
// concurrent misses for the same key so a batch run never issues duplicate
// vendor calls for one dealer.  Cache failures are treated as misses; the
// cache must never make a fetch worse than no cache.

type cachedSearch struct {
	SearchSource
	cache PayloadCache
	ttl   time.Duration
	group singleflight.Group
}

func (c *cachedSearch) FetchSearchMetrics(ctx context.Context, d *dealer.Dealer) (*SearchMetrics, error) {
	key := "search:" + c.Name() + ":" + string(d.ID)

	var cached SearchMetrics
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		m, err := c.SearchSource.FetchSearchMetrics(ctx, d)
		if err != nil {
			return nil, err
		}
		_ = c.cache.Set(ctx, key, m, c.ttl)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SearchMetrics), nil
}

type cachedProfile struct {
	ProfileSource
	cache PayloadCache
	ttl   time.Duration
	group singleflight.Group
}

func (c *cachedProfile) FetchProfileMetrics(ctx context.Context, d *dealer.Dealer) (*ProfileMetrics, error) {
	key := "profile:" + c.Name() + ":" + string(d.ID)

	var cached ProfileMetrics
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		m, err := c.ProfileSource.FetchProfileMetrics(ctx, d)
		if err != nil {
			return nil, err
		}
		_ = c.cache.Set(ctx, key, m, c.ttl)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProfileMetrics), nil
}

type cachedBacklinks struct {
	BacklinkSource
	cache PayloadCache
	ttl   time.Duration
	group singleflight.Group
}

func (c *cachedBacklinks) FetchBacklinkMetrics(ctx context.Context, d *dealer.Dealer) (*BacklinkMetrics, error) {
	key := "backlinks:" + c.Name() + ":" + string(d.ID)

	var cached BacklinkMetrics
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		m, err := c.BacklinkSource.FetchBacklinkMetrics(ctx, d)
		if err != nil {
			return nil, err
		}
		_ = c.cache.Set(ctx, key, m, c.ttl)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*BacklinkMetrics), nil
}

type cachedOverview struct {
	OverviewSource
	cache PayloadCache
	ttl   time.Duration
	group singleflight.Group
}

func (c *cachedOverview) FetchOverviewMetrics(ctx context.Context, d *dealer.Dealer) (*OverviewMetrics, error) {
	key := "overview:" + c.Name() + ":" + string(d.ID)

	var cached OverviewMetrics
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		m, err := c.OverviewSource.FetchOverviewMetrics(ctx, d)
		if err != nil {
			return nil, err
		}
		_ = c.cache.Set(ctx, key, m, c.ttl)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*OverviewMetrics), nil
}

type cachedKnowledge struct {
	KnowledgeGraphSource
	cache PayloadCache
	ttl   time.Duration
	group singleflight.Group
}

func (c *cachedKnowledge) CheckEntity(ctx context.Context, d *dealer.Dealer) (*EntityCheck, error) {
	key := "entity:" + c.Name() + ":" + string(d.ID)

	var cached EntityCheck
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		m, err := c.KnowledgeGraphSource.CheckEntity(ctx, d)
		if err != nil {
			return nil, err
		}
		_ = c.cache.Set(ctx, key, m, c.ttl)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EntityCheck), nil
}

// Chat completions are deliberately not cached: the spot-check re-run in the
// validation engine must observe a fresh response, and per-query platform
// answers drift too fast for a useful TTL.

// WithCache wraps the fetch-style sources in the registry with read-through
// caching at the given TTL.
func WithCache(r Registry, cache PayloadCache, ttl time.Duration) Registry {
	if cache == nil {
		return r
	}
	if r.Search != nil {
		r.Search = &cachedSearch{SearchSource: r.Search, cache: cache, ttl: ttl}
	}
	if r.Profile != nil {
		r.Profile = &cachedProfile{ProfileSource: r.Profile, cache: cache, ttl: ttl}
	}
	if r.Backlinks != nil {
		r.Backlinks = &cachedBacklinks{BacklinkSource: r.Backlinks, cache: cache, ttl: ttl}
	}
	if r.Overview != nil {
		r.Overview = &cachedOverview{OverviewSource: r.Overview, cache: cache, ttl: ttl}
	}
	if r.Knowledge != nil {
		r.Knowledge = &cachedKnowledge{KnowledgeGraphSource: r.Knowledge, cache: cache, ttl: ttl}
	}
	return r
}
