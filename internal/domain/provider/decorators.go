package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// Observer receives the outcome of every provider call.  The prometheus
// layer and the health engine's success-rate recorder both implement it.
type Observer interface {
	ObserveCall(capability Capability, providerName string, elapsed time.Duration, err error)
}

// PayloadCache stores provider payloads keyed by provider name and dealer.
// Implemented by the redis layer; hit/miss counts feed the health snapshot's
// cache-hit-rate figure.
type PayloadCache interface {
	// Get unmarshals a cached payload into dest and reports whether the key
	// was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
}

// waitLimiter blocks until the limiter grants a slot.  Context expiry during
// the wait surfaces as a retryable rate-limit error so the orchestrator
// retries the entity instead of failing it.
func waitLimiter(ctx context.Context, lim *rate.Limiter, name string) error {
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderRateLimited, "provider rate limit wait aborted").
			WithDetail("provider=" + name)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Rate-limited decorators
// ─────────────────────────────────────────────────────────────────────────────

type limitedSearch struct {
	SearchSource
	lim *rate.Limiter
}

func (l *limitedSearch) FetchSearchMetrics(ctx context.Context, d *dealer.Dealer) (*SearchMetrics, error) {
	if err := waitLimiter(ctx, l.lim, l.Name()); err != nil {
		return nil, err
	}
	return l.SearchSource.FetchSearchMetrics(ctx, d)
}

type limitedProfile struct {
	ProfileSource
	lim *rate.Limiter
}

func (l *limitedProfile) FetchProfileMetrics(ctx context.Context, d *dealer.Dealer) (*ProfileMetrics, error) {
	if err := waitLimiter(ctx, l.lim, l.Name()); err != nil {
		return nil, err
	}
	return l.ProfileSource.FetchProfileMetrics(ctx, d)
}

type limitedBacklinks struct {
	BacklinkSource
	lim *rate.Limiter
}

func (l *limitedBacklinks) FetchBacklinkMetrics(ctx context.Context, d *dealer.Dealer) (*BacklinkMetrics, error) {
	if err := waitLimiter(ctx, l.lim, l.Name()); err != nil {
		return nil, err
	}
	return l.BacklinkSource.FetchBacklinkMetrics(ctx, d)
}

type limitedChat struct {
	ChatPlatform
	lim *rate.Limiter
}

func (l *limitedChat) Complete(ctx context.Context, query string) (*ChatResponse, error) {
	if err := waitLimiter(ctx, l.lim, l.Name()); err != nil {
		return nil, err
	}
	return l.ChatPlatform.Complete(ctx, query)
}

type limitedOverview struct {
	OverviewSource
	lim *rate.Limiter
}

func (l *limitedOverview) FetchOverviewMetrics(ctx context.Context, d *dealer.Dealer) (*OverviewMetrics, error) {
	if err := waitLimiter(ctx, l.lim, l.Name()); err != nil {
		return nil, err
	}
	return l.OverviewSource.FetchOverviewMetrics(ctx, d)
}

type limitedKnowledge struct {
	KnowledgeGraphSource
	lim *rate.Limiter
}

func (l *limitedKnowledge) CheckEntity(ctx context.Context, d *dealer.Dealer) (*EntityCheck, error) {
	if err := waitLimiter(ctx, l.lim, l.Name()); err != nil {
		return nil, err
	}
	return l.KnowledgeGraphSource.CheckEntity(ctx, d)
}

// WithRateLimits wraps every provider in the registry with its own token
// bucket at rps/burst.  Each provider gets an independent limiter since
// quotas are per vendor, not global.
func WithRateLimits(r Registry, rps float64, burst int) Registry {
	newLim := func() *rate.Limiter { return rate.NewLimiter(rate.Limit(rps), burst) }

	if r.Search != nil {
		r.Search = &limitedSearch{SearchSource: r.Search, lim: newLim()}
	}
	if r.Profile != nil {
		r.Profile = &limitedProfile{ProfileSource: r.Profile, lim: newLim()}
	}
	if r.Backlinks != nil {
		r.Backlinks = &limitedBacklinks{BacklinkSource: r.Backlinks, lim: newLim()}
	}
	for i, p := range r.Chat {
		if p != nil {
			r.Chat[i] = &limitedChat{ChatPlatform: p, lim: newLim()}
		}
	}
	if r.Overview != nil {
		r.Overview = &limitedOverview{OverviewSource: r.Overview, lim: newLim()}
	}
	if r.Knowledge != nil {
		r.Knowledge = &limitedKnowledge{KnowledgeGraphSource: r.Knowledge, lim: newLim()}
	}
	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// Instrumented decorators
// ─────────────────────────────────────────────────────────────────────────────

type observedSearch struct {
	SearchSource
	obs Observer
}

func (o *observedSearch) FetchSearchMetrics(ctx context.Context, d *dealer.Dealer) (*SearchMetrics, error) {
	start := time.Now()
	m, err := o.SearchSource.FetchSearchMetrics(ctx, d)
	o.obs.ObserveCall(CapabilitySearch, o.Name(), time.Since(start), err)
	return m, err
}

type observedProfile struct {
	ProfileSource
	obs Observer
}

func (o *observedProfile) FetchProfileMetrics(ctx context.Context, d *dealer.Dealer) (*ProfileMetrics, error) {
	start := time.Now()
	m, err := o.ProfileSource.FetchProfileMetrics(ctx, d)
	o.obs.ObserveCall(CapabilityProfile, o.Name(), time.Since(start), err)
	return m, err
}

type observedBacklinks struct {
	BacklinkSource
	obs Observer
}

func (o *observedBacklinks) FetchBacklinkMetrics(ctx context.Context, d *dealer.Dealer) (*BacklinkMetrics, error) {
	start := time.Now()
	m, err := o.BacklinkSource.FetchBacklinkMetrics(ctx, d)
	o.obs.ObserveCall(CapabilityBacklinks, o.Name(), time.Since(start), err)
	return m, err
}

type observedChat struct {
	ChatPlatform
	obs Observer
}

func (o *observedChat) Complete(ctx context.Context, query string) (*ChatResponse, error) {
	start := time.Now()
	resp, err := o.ChatPlatform.Complete(ctx, query)
	o.obs.ObserveCall(CapabilityChat, o.Name(), time.Since(start), err)
	return resp, err
}

type observedOverview struct {
	OverviewSource
	obs Observer
}

func (o *observedOverview) FetchOverviewMetrics(ctx context.Context, d *dealer.Dealer) (*OverviewMetrics, error) {
	start := time.Now()
	m, err := o.OverviewSource.FetchOverviewMetrics(ctx, d)
	o.obs.ObserveCall(CapabilityOverview, o.Name(), time.Since(start), err)
	return m, err
}

type observedKnowledge struct {
	KnowledgeGraphSource
	obs Observer
}

func (o *observedKnowledge) CheckEntity(ctx context.Context, d *dealer.Dealer) (*EntityCheck, error) {
	start := time.Now()
	m, err := o.KnowledgeGraphSource.CheckEntity(ctx, d)
	o.obs.ObserveCall(CapabilityKnowledgeGraph, o.Name(), time.Since(start), err)
	return m, err
}

// WithObserver wraps every provider in the registry so obs sees each call's
// latency and outcome.
func WithObserver(r Registry, obs Observer) Registry {
	if obs == nil {
		return r
	}
	if r.Search != nil {
		r.Search = &observedSearch{SearchSource: r.Search, obs: obs}
	}
	if r.Profile != nil {
		r.Profile = &observedProfile{ProfileSource: r.Profile, obs: obs}
	}
	if r.Backlinks != nil {
		r.Backlinks = &observedBacklinks{BacklinkSource: r.Backlinks, obs: obs}
	}
	for i, p := range r.Chat {
		if p != nil {
			r.Chat[i] = &observedChat{ChatPlatform: p, obs: obs}
		}
	}
	if r.Overview != nil {
		r.Overview = &observedOverview{OverviewSource: r.Overview, obs: obs}
	}
	if r.Knowledge != nil {
		r.Knowledge = &observedKnowledge{KnowledgeGraphSource: r.Knowledge, obs: obs}
	}
	return r
}
