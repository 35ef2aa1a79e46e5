package job

import "context"

// DefaultRetryCapacity bounds the retry queue when the caller does not impose
// its own limit.
const DefaultRetryCapacity = 1024

// RetryQueue collects failed jobs in failure order for an external retry
// loop to drain. The event handler is the only producer and it removes a job
// from the registry at the moment it enqueues it, so a job is present at most
// once.
type RetryQueue struct {
	ch chan Job
}

// NewRetryQueue creates a queue holding up to capacity jobs. A capacity of
// zero or less selects DefaultRetryCapacity.
func NewRetryQueue(capacity int) *RetryQueue {
	if capacity <= 0 {
		capacity = DefaultRetryCapacity
	}
	return &RetryQueue{ch: make(chan Job, capacity)}
}

// Put enqueues a failed job, blocking while the queue is full.
func (q *RetryQueue) Put(j Job) {
	q.ch <- j
}

// TryPut enqueues without blocking. It reports whether the job was accepted.
func (q *RetryQueue) TryPut(j Job) bool {
	select {
	case q.ch <- j:
		return true
	default:
		return false
	}
}

// Take dequeues the oldest failed job, blocking until one is available or the
// context is cancelled.
func (q *RetryQueue) Take(ctx context.Context) (Job, error) {
	select {
	case j := <-q.ch:
		return j, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// TryTake dequeues without blocking.
func (q *RetryQueue) TryTake() (Job, bool) {
	select {
	case j := <-q.ch:
		return j, true
	default:
		return Job{}, false
	}
}

// Len returns the number of queued jobs.
func (q *RetryQueue) Len() int {
	return len(q.ch)
}
