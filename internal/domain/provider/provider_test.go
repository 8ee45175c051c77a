package provider

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealershipai/visibility-engine/internal/domain/dealer"
	apperrors "github.com/dealershipai/visibility-engine/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// local stubs
// ─────────────────────────────────────────────────────────────────────────────

type stubSearch struct {
	calls   int
	metrics *SearchMetrics
	err     error
}

func (s *stubSearch) Name() string           { return "stub-search" }
func (s *stubSearch) Capability() Capability { return CapabilitySearch }
func (s *stubSearch) FetchSearchMetrics(context.Context, *dealer.Dealer) (*SearchMetrics, error) {
	s.calls++
	return s.metrics, s.err
}

type stubChat struct {
	name  string
	calls int
}

func (s *stubChat) Name() string           { return s.name }
func (s *stubChat) Capability() Capability { return CapabilityChat }
func (s *stubChat) Complete(_ context.Context, query string) (*ChatResponse, error) {
	s.calls++
	return &ChatResponse{Platform: s.name, Query: query, Text: "answer"}, nil
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *mapCache) Set(_ context.Context, key string, val interface{}, _ time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []Capability
	errs  int
}

func (r *recordingObserver) ObserveCall(c Capability, _ string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if err != nil {
		r.errs++
	}
}

func testDealer() *dealer.Dealer {
	return &dealer.Dealer{ID: "d-1", Name: "Test Motors", Domain: "testmotors.com"}
}

// ─────────────────────────────────────────────────────────────────────────────
// tests
// ─────────────────────────────────────────────────────────────────────────────

func TestRegistryValidate(t *testing.T) {
	var nilReg *Registry
	assert.Error(t, nilReg.Validate())

	empty := &Registry{}
	err := empty.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfigInvalid))

	ok := &Registry{Search: &stubSearch{}}
	assert.NoError(t, ok.Validate())
}

func TestRegistryPlatforms(t *testing.T) {
	r := Registry{Chat: []ChatPlatform{&stubChat{name: "chatgpt"}, nil, &stubChat{name: "perplexity"}}}
	assert.Equal(t, []string{"chatgpt", "perplexity"}, r.Platforms())
}

func TestWithRateLimitsPassesThrough(t *testing.T) {
	src := &stubSearch{metrics: &SearchMetrics{TrackedKeywords: 12}}
	r := WithRateLimits(Registry{Search: src}, 100, 10)

	m, err := r.Search.FetchSearchMetrics(context.Background(), testDealer())
	require.NoError(t, err)
	assert.Equal(t, 12, m.TrackedKeywords)
	assert.Equal(t, "stub-search", r.Search.Name(), "decorator preserves the provider name")
}

func TestWithRateLimitsAbortsOnCancelledContext(t *testing.T) {
	chat := &stubChat{name: "chatgpt"}
	// Burst 1 at a very slow refill: the second call must wait, and a
	// cancelled context turns that wait into a retryable rate-limit error.
	r := WithRateLimits(Registry{Chat: []ChatPlatform{chat}}, 0.001, 1)

	_, err := r.Chat[0].Complete(context.Background(), "q1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Chat[0].Complete(ctx, "q2")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeProviderRateLimited))
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, 1, chat.calls, "wrapped platform must not be called after a limiter abort")
}

func TestWithObserver(t *testing.T) {
	obs := &recordingObserver{}
	src := &stubSearch{err: apperrors.New(apperrors.ErrCodeProviderTimeout, "timed out")}
	r := WithObserver(Registry{Search: src, Chat: []ChatPlatform{&stubChat{name: "claude"}}}, obs)

	_, _ = r.Search.FetchSearchMetrics(context.Background(), testDealer())
	_, _ = r.Chat[0].Complete(context.Background(), "q")

	assert.Equal(t, []Capability{CapabilitySearch, CapabilityChat}, obs.calls)
	assert.Equal(t, 1, obs.errs)
}

func TestWithCacheReadThrough(t *testing.T) {
	src := &stubSearch{metrics: &SearchMetrics{TrackedKeywords: 40, Top10Keywords: 7}}
	cache := newMapCache()
	r := WithCache(Registry{Search: src}, cache, time.Minute)

	d := testDealer()

	first, err := r.Search.FetchSearchMetrics(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	second, err := r.Search.FetchSearchMetrics(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second fetch must be served from cache")
	assert.Equal(t, first.Top10Keywords, second.Top10Keywords)
}

func TestWithCacheErrorNotCached(t *testing.T) {
	src := &stubSearch{err: apperrors.New(apperrors.ErrCodeProviderUnavailable, "down")}
	r := WithCache(Registry{Search: src}, newMapCache(), time.Minute)

	_, err := r.Search.FetchSearchMetrics(context.Background(), testDealer())
	require.Error(t, err)

	src.err = nil
	src.metrics = &SearchMetrics{TrackedKeywords: 3}
	m, err := r.Search.FetchSearchMetrics(context.Background(), testDealer())
	require.NoError(t, err)
	assert.Equal(t, 3, m.TrackedKeywords)
	assert.Equal(t, 2, src.calls)
}

func TestWithCacheLeavesChatUnwrapped(t *testing.T) {
	chat := &stubChat{name: "gemini"}
	r := WithCache(Registry{Chat: []ChatPlatform{chat}}, newMapCache(), time.Minute)

	_, _ = r.Chat[0].Complete(context.Background(), "same query")
	_, _ = r.Chat[0].Complete(context.Background(), "same query")
	assert.Equal(t, 2, chat.calls, "chat completions are never cached")
}
