package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerManager_ProcessesJobs(t *testing.T) {
	w := NewWorkerManager(10, 3)

	var sum int64
	var wg sync.WaitGroup
	w.SetWorker(func(_ context.Context, _ int, job interface{}) {
		atomic.AddInt64(&sum, int64(job.(int)))
		wg.Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	for i := 1; i <= 10; i++ {
		wg.Add(1)
		require.NoError(t, w.Enqueue(ctx, i))
	}
	wg.Wait()
	assert.Equal(t, int64(55), atomic.LoadInt64(&sum))

	w.Exit()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestWorkerManager_StopsOnContextCancel(t *testing.T) {
	w := NewWorkerManager(1, 2)
	w.SetWorker(func(context.Context, int, interface{}) {})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestWorkerManager_EnqueueAfterExit(t *testing.T) {
	w := NewWorkerManager(0, 1)
	w.Exit()
	w.Exit()
	assert.ErrorIs(t, w.Enqueue(context.Background(), 1), ErrStopped)
}

func TestWorkerManager_StartWithoutHandler(t *testing.T) {
	w := NewWorkerManager(1, 1)
	assert.Error(t, w.Start(context.Background()))
}
