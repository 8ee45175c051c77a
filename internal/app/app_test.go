package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealershipai/visibility-engine/internal/application/validation"
	"github.com/dealershipai/visibility-engine/internal/config"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/database/redis"
	"github.com/dealershipai/visibility-engine/internal/infrastructure/monitoring/logging"
)

// A nil cache pointer must reach the health engine as a nil interface.  A
// typed nil compares unequal to nil inside the engine and the first
// snapshot dereferences it.
func TestCacheStatsSourceNilPointerIsNilInterface(t *testing.T) {
	var cache *redis.PayloadCache
	src := cacheStatsSource(cache)
	assert.True(t, src == nil, "typed-nil cache leaked into the interface")

	h := validation.NewHealthEngine(validation.NewRecorder(), src, nil, nil, nil,
		config.Config{}, logging.NewNopLogger())
	assert.NotPanics(t, func() { h.Refresh(context.Background()) })
}

func TestCacheStatsSourcePassesThroughLiveCache(t *testing.T) {
	cache := &redis.PayloadCache{}
	assert.Same(t, cache, cacheStatsSource(cache))
}
