package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBasicExecution(t *testing.T) {
	var calls atomic.Int32
	pool := New(Config[int, int]{
		Workers: 2,
		Fn: func(ctx context.Context, item int, index int) (int, error) {
			calls.Add(1)
			time.Sleep(10 * time.Millisecond)
			return item * 2, nil
		},
	})

	results := pool.Run(context.Background(), []int{1, 2, 3})
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, r.Item*2, r.Value)
	}
	assert.EqualValues(t, 3, calls.Load())
}

func TestPoolParallelism(t *testing.T) {
	pool := New(Config[int, int]{
		Workers: 4,
		Fn: func(ctx context.Context, item int, index int) (int, error) {
			time.Sleep(50 * time.Millisecond)
			return item, nil
		},
	})

	items := make([]int, 8)
	start := time.Now()
	results := pool.Run(context.Background(), items)
	elapsed := time.Since(start)

	assert.Len(t, results, 8)
	assert.Less(t, elapsed, 200*time.Millisecond)
}

func TestPoolErrorHandling(t *testing.T) {
	pool := New(Config[int, int]{
		Workers: 2,
		Fn: func(ctx context.Context, item int, index int) (int, error) {
			if item == 2 {
				return 0, errors.New("simulated failure")
			}
			return item, nil
		},
	})

	results := pool.Run(context.Background(), []int{1, 2, 3})
	require.Len(t, results, 3)

	var successCount, failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
		} else {
			successCount++
		}
	}
	assert.Equal(t, 2, successCount)
	assert.Equal(t, 1, failCount)
}

func TestPoolCancellation(t *testing.T) {
	pool := New(Config[int, int]{
		Workers: 2,
		Fn: func(ctx context.Context, item int, index int) (int, error) {
			time.Sleep(100 * time.Millisecond)
			return item, nil
		},
	})

	items := make([]int, 10)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, items)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 300*time.Millisecond)
	assert.NotEmpty(t, results)
}

func TestPoolProgressCallback(t *testing.T) {
	var progressCalls atomic.Int32
	var lastCompleted, lastTotal int

	pool := New(Config[int, int]{
		Workers: 2,
		Fn: func(ctx context.Context, item int, index int) (int, error) {
			time.Sleep(5 * time.Millisecond)
			return item, nil
		},
		OnProgress: func(completed, total, failed int) {
			progressCalls.Add(1)
			lastCompleted, lastTotal = completed, total
		},
	})

	pool.Run(context.Background(), []int{1, 2, 3})

	assert.Greater(t, progressCalls.Load(), int32(0))
	assert.Equal(t, 3, lastCompleted)
	assert.Equal(t, 3, lastTotal)
}

func TestPoolEmptyItems(t *testing.T) {
	var calls atomic.Int32
	pool := New(Config[int, int]{
		Workers: 2,
		Fn: func(ctx context.Context, item int, index int) (int, error) {
			calls.Add(1)
			return item, nil
		},
	})

	results := pool.Run(context.Background(), nil)
	assert.Empty(t, results)
	assert.EqualValues(t, 0, calls.Load())
}
