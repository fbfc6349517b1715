package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/socialops/internal/domain/analytics/service"
)

type countingRefresher struct {
	calls atomic.Int32
	limit atomic.Int32
}

func (c *countingRefresher) RefreshRecent(_ context.Context, limit int) ([]service.RefreshOutput, error) {
	c.calls.Add(1)
	c.limit.Store(int32(limit))
	return []service.RefreshOutput{{PostID: "1"}, {PostID: "2", Error: "boom"}}, nil
}

func TestSchedulerTicks(t *testing.T) {
	r := &countingRefresher{}
	s, err := New(r, 10*time.Millisecond, 7, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	calls := r.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, r.calls.Load())
	assert.Equal(t, int32(7), r.limit.Load())

	// restart after stop
	s.Start(context.Background())
	assert.Eventually(t, func() bool { return r.calls.Load() > calls }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, interval := range []time.Duration{0, -time.Minute} {
		s, err := New(&countingRefresher{}, interval, 7, logger)
		assert.Error(t, err, interval)
		assert.Nil(t, s)
	}
}
