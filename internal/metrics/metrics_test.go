package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/domain"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "already_exists", Result(fmt.Errorf("x: %w", domain.ErrAlreadyFollowing)))
	assert.Equal(t, "blocked", Result(domain.ErrBlocked))
	assert.Equal(t, "canceled", Result(context.DeadlineExceeded))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestObserveOperation_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveOperation("follow", time.Now(), nil)
		NotifyFailed()
		CacheHit()
		CacheMiss()
		CounterRepaired()
		CDCEvent("applied")
	})
}

func TestCacheCounters(t *testing.T) {
	hits := testutil.ToFloat64(countsCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(countsCache.WithLabelValues("miss"))

	CacheHit()
	CacheHit()
	CacheMiss()

	assert.Equal(t, hits+2, testutil.ToFloat64(countsCache.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(countsCache.WithLabelValues("miss")))
}

func TestObserveOperation_LabelsByKind(t *testing.T) {
	before := testutil.ToFloat64(transitionsTotal.WithLabelValues("block", "self_reference"))

	ObserveOperation("block", time.Now(), domain.ErrCannotBlockSelf)

	assert.Equal(t, before+1, testutil.ToFloat64(transitionsTotal.WithLabelValues("block", "self_reference")))
}
