package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/i474232898/weather-indexer/internal/weather"
)

// cycleFunc adapts a function to the Cycle interface.
type cycleFunc func(ctx context.Context) weather.CycleResult

func (f cycleFunc) RunCycle(ctx context.Context) weather.CycleResult { return f(ctx) }

func nop() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestRunNow_SkipsWhileBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	calls := atomic.NewInt32(0)

	s := New("*/1 * * * *", 0, cycleFunc(func(ctx context.Context) weather.CycleResult {
		if calls.Inc() == 1 {
			close(started)
			<-release
		}
		return weather.CycleResult{Stage: weather.StageDone}
	}), nop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.RunNow(context.Background())
		assert.NoError(t, err)
	}()

	<-started
	assert.True(t, s.Running())

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, weather.ErrCycleAlreadyRunning)

	close(release)
	wg.Wait()
	assert.False(t, s.Running())

	res, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRunNow_AppliesTimeout(t *testing.T) {
	s := New("*/1 * * * *", 50*time.Millisecond, cycleFunc(func(ctx context.Context) weather.CycleResult {
		<-ctx.Done()
		return weather.CycleResult{Stage: weather.StageFetch, Err: ctx.Err()}
	}), nop())

	done := make(chan weather.CycleResult, 1)
	go func() {
		res, _ := s.RunNow(context.Background())
		done <- res
	}()

	select {
	case res := <-done:
		assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
	case <-time.After(2 * time.Second):
		t.Fatal("cycle was not bounded by the timeout")
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	for _, spec := range []string{"", "every minute", "* * *", "61 * * * *"} {
		s := New(spec, 0, cycleFunc(func(context.Context) weather.CycleResult { return weather.CycleResult{} }), nop())
		assert.Error(t, s.Start(), spec)
		s.Stop()
	}
}

// A failing cycle must not stop later ticks.
func TestStart_KeepsFiringAfterFailures(t *testing.T) {
	calls := atomic.NewInt32(0)
	s := New("* * * * * *", 0, cycleFunc(func(context.Context) weather.CycleResult {
		calls.Inc()
		return weather.CycleResult{
			Stage: weather.StageStore,
			Err:   &weather.StoreError{Op: "index", Index: weather.DefaultIndex, Err: errors.New("down")},
		}
	}), nop())

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestStart_NoOverlap(t *testing.T) {
	inFlight := atomic.NewInt32(0)
	maxInFlight := atomic.NewInt32(0)
	calls := atomic.NewInt32(0)

	s := New("* * * * * *", 0, cycleFunc(func(context.Context) weather.CycleResult {
		n := inFlight.Inc()
		defer inFlight.Dec()
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		calls.Inc()
		time.Sleep(1500 * time.Millisecond)
		return weather.CycleResult{Stage: weather.StageDone}
	}), nop())

	require.NoError(t, s.Start())
	time.Sleep(4 * time.Second)
	s.Stop()

	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Equal(t, int32(1), maxInFlight.Load())
}
