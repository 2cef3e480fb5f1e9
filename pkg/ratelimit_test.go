package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDistributedLimiter_UnlimitedWhenRateIsZero(t *testing.T) {
	limiter := NewDistributedLimiter(nil, "ledger:tx_rate", 0, 0, time.Second, zap.NewNop())
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow(context.Background(), "1"))
	}
}

func TestDistributedLimiter_LocalBurst(t *testing.T) {
	limiter := NewDistributedLimiter(nil, "ledger:tx_rate", 1, 3, time.Second, zap.NewNop())

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow(context.Background(), "1") {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}
