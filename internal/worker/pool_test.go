package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustnet/internal/logging"
)

func TestPool_RunsJobs(t *testing.T) {
	p := New(3, 10, logging.Nop())
	p.Start(context.Background())

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(Job{Name: "inc", Run: func(context.Context) error {
			n.Add(1)
			return nil
		}}))
	}
	p.Stop()

	assert.Equal(t, int32(10), n.Load())
}

func TestPool_QueueFull(t *testing.T) {
	p := New(1, 1, logging.Nop())

	require.NoError(t, p.Submit(Job{Name: "a", Run: func(context.Context) error { return nil }}))
	err := p.Submit(Job{Name: "b", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 1, p.Pending())

	p.Start(context.Background())
	p.Stop()
	assert.Equal(t, 0, p.Pending())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := New(1, 1, logging.Nop())
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	err := p.Submit(Job{Name: "late", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPool_LogsFailuresAndPanics(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	w := writerFunc(func(b []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return buf.Write(b)
	})
	p := New(1, 2, logging.New(w, time.UTC))
	p.Start(context.Background())

	require.NoError(t, p.Submit(Job{Name: "fails", Run: func(context.Context) error { return errors.New("boom") }}))
	require.NoError(t, p.Submit(Job{Name: "panics", Run: func(context.Context) error { panic("oops") }}))
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	out := buf.String()
	assert.Contains(t, out, "worker_job_failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "worker_job_panic")
	assert.Contains(t, out, "oops")
}

func TestPool_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	p := New(1, 1, logging.Nop())
	p.Start(ctx)

	got := make(chan any, 1)
	require.NoError(t, p.Submit(Job{Name: "ctx", Run: func(ctx context.Context) error {
		got <- ctx.Value(key{})
		return nil
	}}))
	p.Stop()

	assert.Equal(t, "v", <-got)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }
