package job

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrDuplicateJob is returned when registering a file id that is already
	// in flight.
	ErrDuplicateJob = errors.New("job already registered")

	// ErrUnknownJob is returned when looking up a file id with no registered
	// job. Receiving an event for such an id is a protocol inconsistency.
	ErrUnknownJob = errors.New("no running job for file id")
)

// RunningJobs tracks the in-flight jobs keyed by file id. All operations are
// safe for concurrent use; lookup and remove for the same id are serialized
// under one lock so a reader never observes a half-removed entry.
type RunningJobs struct {
	mu   sync.Mutex
	jobs map[string]Job
	log  *slog.Logger
}

// NewRunningJobs creates an empty registry.
func NewRunningJobs(log *slog.Logger) *RunningJobs {
	return &RunningJobs{
		jobs: make(map[string]Job),
		log:  log,
	}
}

// Register adds a job. At most one job per file id may be in flight.
func (r *RunningJobs) Register(j Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.FileID]; ok {
		return fmt.Errorf("file id %q: %w", j.FileID, ErrDuplicateJob)
	}
	r.jobs[j.FileID] = j
	return nil
}

// Lookup returns the in-flight job for fileID.
func (r *RunningJobs) Lookup(fileID string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[fileID]
	if !ok {
		return Job{}, fmt.Errorf("file id %q: %w", fileID, ErrUnknownJob)
	}
	return j, nil
}

// Remove deletes the job from the registry. Removing a job that is not
// registered is idempotent; it is logged as an anomaly and reported by the
// return value.
func (r *RunningJobs) Remove(j Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.FileID]; !ok {
		r.log.Warn("removing job that is not registered", "fileID", j.FileID)
		return false
	}
	delete(r.jobs, j.FileID)
	return true
}

// Len returns the number of in-flight jobs.
func (r *RunningJobs) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
