package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func retryTransient(err error) bool {
	return errors.Is(err, errTransient)
}

func TestQueueRunsTasks(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[int64]int)

	q := NewQueue(func(ctx context.Context, newsID int64) error {
		mu.Lock()
		seen[newsID]++
		mu.Unlock()
		return nil
	}, nil)
	defer q.Close()

	for i := int64(1); i <= 20; i++ {
		q.Enqueue(i)
	}
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 20 {
		t.Fatalf("Expected 20 tasks handled, got %d", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("Task %d ran %d times, want 1", id, count)
		}
	}
}

func TestQueueRetriesTransientErrors(t *testing.T) {
	var attempts atomic.Int32

	q := NewQueue(func(ctx context.Context, newsID int64) error {
		if attempts.Add(1) < 3 {
			return errTransient
		}
		return nil
	}, retryTransient, WithBaseDelay(time.Millisecond))
	defer q.Close()

	q.Enqueue(1)
	q.Wait()

	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32

	q := NewQueue(func(ctx context.Context, newsID int64) error {
		attempts.Add(1)
		return errTransient
	}, retryTransient, WithBaseDelay(time.Millisecond), WithMaxRetries(3))
	defer q.Close()

	q.Enqueue(1)
	q.Wait()

	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", got)
	}
}

func TestQueueDoesNotRetryPermanentErrors(t *testing.T) {
	var attempts atomic.Int32

	q := NewQueue(func(ctx context.Context, newsID int64) error {
		attempts.Add(1)
		return errors.New("permanent")
	}, retryTransient, WithBaseDelay(time.Millisecond))
	defer q.Close()

	q.Enqueue(1)
	q.Wait()

	if got := attempts.Load(); got != 1 {
		t.Errorf("Expected 1 attempt for permanent error, got %d", got)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue(func(ctx context.Context, newsID int64) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, nil, WithWorkers(1))
	defer q.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := int64(0); i < 1000; i++ {
			q.Enqueue(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Enqueue blocked with a saturated queue")
	}
	close(block)
	q.Wait()
}

func TestEnqueueAfterCloseIsNoop(t *testing.T) {
	var attempts atomic.Int32
	q := NewQueue(func(ctx context.Context, newsID int64) error {
		attempts.Add(1)
		return nil
	}, nil)

	q.Close()
	q.Enqueue(1)
	q.Wait()

	if got := attempts.Load(); got != 0 {
		t.Errorf("Expected no work after close, got %d attempts", got)
	}
}
