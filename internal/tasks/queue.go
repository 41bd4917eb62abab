// Package tasks runs analysis jobs on a background worker pool with
// at-least-once delivery and exponential retry.
package tasks

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	defaultWorkers    = 4
	defaultBufferSize = 256
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
)

// Task is one unit of background work.
type Task struct {
	NewsID  int64
	Attempt int
}

// Handler executes a task. Returning an error for which retryable reports
// true schedules another attempt.
type Handler func(ctx context.Context, newsID int64) error

// Queue dispatches tasks to a fixed pool of workers. Delivery is
// at-least-once; handlers must tolerate duplicates.
type Queue struct {
	handler    Handler
	retryable  func(error) bool
	tasks      chan Task
	workers    int
	maxRetries int
	baseDelay  time.Duration

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) QueueOption {
	return func(q *Queue) { q.workers = n }
}

// WithBaseDelay sets the first retry delay; each further attempt doubles it.
func WithBaseDelay(d time.Duration) QueueOption {
	return func(q *Queue) { q.baseDelay = d }
}

// WithMaxRetries sets how many attempts a retryable task gets in total.
func WithMaxRetries(n int) QueueOption {
	return func(q *Queue) { q.maxRetries = n }
}

// NewQueue creates and starts a queue. retryable decides which handler
// errors are worth another attempt; nil means nothing is retried.
func NewQueue(handler Handler, retryable func(error) bool, opts ...QueueOption) *Queue {
	if retryable == nil {
		retryable = func(error) bool { return false }
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		handler:    handler,
		retryable:  retryable,
		workers:    defaultWorkers,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, defaultBufferSize)
	for i := 0; i < q.workers; i++ {
		go q.worker()
	}
	return q
}

// Enqueue submits a task without blocking the caller. When the buffer is
// full the send is completed from a goroutine so ingestion never stalls on
// a slow analysis backlog. Enqueue after Close is a no-op.
func (q *Queue) Enqueue(newsID int64) {
	q.submit(Task{NewsID: newsID})
}

func (q *Queue) submit(t Task) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending.Add(1)
	q.mu.Unlock()
	q.send(t)
}

// send delivers a task already counted in pending.
func (q *Queue) send(t Task) {
	select {
	case q.tasks <- t:
	default:
		go func() {
			select {
			case q.tasks <- t:
			case <-q.ctx.Done():
				q.pending.Done()
			}
		}()
	}
}

func (q *Queue) worker() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case t := <-q.tasks:
			q.run(t)
		}
	}
}

func (q *Queue) run(t Task) {
	err := q.handler(q.ctx, t.NewsID)
	if err == nil {
		q.pending.Done()
		return
	}

	if !q.retryable(err) || t.Attempt+1 >= q.maxRetries {
		log.Printf("newswatch: task for news %d failed permanently after %d attempt(s): %v",
			t.NewsID, t.Attempt+1, err)
		q.pending.Done()
		return
	}

	delay := q.baseDelay << t.Attempt
	log.Printf("newswatch: task for news %d failed (attempt %d/%d), retrying in %s: %v",
		t.NewsID, t.Attempt+1, q.maxRetries, delay, err)

	// The retry inherits this attempt's pending slot so Wait covers tasks
	// parked on their backoff timer.
	retry := Task{NewsID: t.NewsID, Attempt: t.Attempt + 1}
	time.AfterFunc(delay, func() {
		q.mu.Lock()
		closed := q.closed
		q.mu.Unlock()
		if closed {
			q.pending.Done()
			return
		}
		q.send(retry)
	})
}

// Wait blocks until every submitted task has finished, including retries
// still waiting on their backoff timer.
func (q *Queue) Wait() {
	q.pending.Wait()
}

// Close stops accepting tasks and shuts the workers down. In-flight
// handlers see a cancelled context.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.cancel()
}
