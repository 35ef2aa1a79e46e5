package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/statsbiblioteket/sb-bitrepository-client/job"
	"github.com/statsbiblioteket/sb-bitrepository-client/status"
	"github.com/statsbiblioteket/sb-bitrepository-client/store"
)

// SubmitFunc submits one job to the repository. For downloads it asks a
// pillar to stage the file; for uploads it first stages the local content on
// the exchange. The terminal outcome arrives asynchronously at the action's
// event handler.
type SubmitFunc func(ctx context.Context, j job.Job) error

// outcome is the terminal result of one job, after all retries.
type outcome struct {
	fileID string
	ok     bool
}

// Runner drives a set of transfer jobs to completion. It keeps at most
// parallel operations in flight, drains the retry queue, and resubmits
// failed jobs until their journal attempt count reaches maxAttempts. Every
// attempt and terminal outcome is recorded in the journal under this run's
// id.
//
// The runner learns about outcomes through two channels only: successful
// jobs surface via the FinishReporter it lends to the event handler, failed
// jobs via the retry queue. It never inspects the registry from the outside.
type Runner struct {
	jobs        *job.RunningJobs
	retry       *job.RetryQueue
	journal     store.Journal
	reporter    status.Reporter
	submit      SubmitFunc
	maxAttempts int
	parallel    int
	runID       string
	log         *slog.Logger

	outcomes chan outcome
	stopped  chan struct{}
}

// NewRunner wires a runner. maxAttempts is the total number of submissions
// per job, so 1 disables retrying; parallel bounds the in-flight operations.
func NewRunner(jobs *job.RunningJobs, retry *job.RetryQueue, journal store.Journal, reporter status.Reporter, submit SubmitFunc, maxAttempts, parallel int, log *slog.Logger) *Runner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if parallel < 1 {
		parallel = 1
	}
	return &Runner{
		jobs:        jobs,
		retry:       retry,
		journal:     journal,
		reporter:    reporter,
		submit:      submit,
		maxAttempts: maxAttempts,
		parallel:    parallel,
		runID:       uuid.NewString(),
		log:         log,
		outcomes:    make(chan outcome, 64),
		stopped:     make(chan struct{}),
	}
}

// RunID identifies this run in the journal.
func (r *Runner) RunID() string {
	return r.runID
}

// Reporter returns the FinishReporter the action's event handler must use,
// so successful completions reach the runner's accounting.
func (r *Runner) Reporter() FinishReporter {
	return &runnerReporter{r: r}
}

type runnerReporter struct {
	r *Runner
}

func (rr *runnerReporter) ReportFinish(fileID string) {
	rr.r.recordState(fileID, store.StateCompleted, "")
	rr.r.reporter.ReportFinish(fileID)
	rr.r.sendOutcome(outcome{fileID: fileID, ok: true})
}

// Run submits all jobs and blocks until each has a terminal outcome or the
// context is cancelled. It returns an error when any job exhausted its
// attempts.
func (r *Runner) Run(ctx context.Context, list []job.Job) error {
	defer close(r.stopped)

	for _, j := range list {
		rec := &store.TransferRecord{
			FileID:    j.FileID,
			RunID:     r.runID,
			LocalFile: j.LocalFile,
			URL:       j.URL,
			State:     store.StatePending,
		}
		if err := r.journal.SaveRecord(rec); err != nil {
			return fmt.Errorf("failed to journal job %q: %w", j.FileID, err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go r.drainRetries(runCtx)

	slots := make(chan struct{}, r.parallel)
	go func() {
		for _, j := range list {
			select {
			case slots <- struct{}{}:
			case <-runCtx.Done():
				return
			}
			r.launch(runCtx, j)
		}
	}()

	failed := 0
	for done := 0; done < len(list); done++ {
		select {
		case out := <-r.outcomes:
			if !out.ok {
				failed++
			}
			select {
			case <-slots:
			default:
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d transfers failed", failed, len(list))
	}
	return nil
}

// launch performs one submission attempt for a job.
func (r *Runner) launch(ctx context.Context, j job.Job) {
	attempts := r.bumpAttempt(j)
	if attempts == 1 {
		r.reporter.ReportStart(j.FileID)
	} else {
		r.log.Info("retrying transfer", "fileID", j.FileID, "attempt", attempts)
	}

	if err := r.register(ctx, j); err != nil {
		r.log.Error("failed to register job", "fileID", j.FileID, "err", err)
		r.giveUp(j, err.Error())
		return
	}

	if err := r.submit(ctx, j); err != nil {
		r.log.Warn("submission failed", "fileID", j.FileID, "err", err)
		r.jobs.Remove(j)
		r.retry.Put(j)
	}
}

// register inserts the job, waiting out the short window where a failed
// job's previous registration is still being torn down: the handler enqueues
// a job for retry just before removing it from the registry.
func (r *Runner) register(ctx context.Context, j job.Job) error {
	for i := 0; ; i++ {
		err := r.jobs.Register(j)
		if err == nil {
			return nil
		}
		if !errors.Is(err, job.ErrDuplicateJob) || i >= 1000 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

// drainRetries resubmits failed jobs until their attempts are exhausted.
func (r *Runner) drainRetries(ctx context.Context) {
	for {
		j, err := r.retry.Take(ctx)
		if err != nil {
			return
		}

		rec, err := r.journal.GetRecord(j.FileID)
		if err != nil {
			r.log.Error("no journal record for failed job", "fileID", j.FileID, "err", err)
			r.giveUp(j, "journal record lost")
			continue
		}

		if rec.Attempts >= r.maxAttempts {
			r.giveUp(j, fmt.Sprintf("gave up after %d attempts", rec.Attempts))
			continue
		}
		r.launch(ctx, j)
	}
}

// giveUp records a terminal failure for a job.
func (r *Runner) giveUp(j job.Job, reason string) {
	r.recordState(j.FileID, store.StateFailed, reason)
	r.reporter.ReportFailure(j.FileID, reason)
	r.sendOutcome(outcome{fileID: j.FileID, ok: false})
}

// sendOutcome delivers a terminal outcome unless Run has already returned.
// Outcomes arriving after an aborted run have nobody left to count them and
// must not block their reporting goroutine.
func (r *Runner) sendOutcome(out outcome) {
	select {
	case r.outcomes <- out:
	case <-r.stopped:
	}
}

// bumpAttempt increments the journal attempt counter and returns its new
// value.
func (r *Runner) bumpAttempt(j job.Job) int {
	rec, err := r.journal.GetRecord(j.FileID)
	if err != nil {
		rec = &store.TransferRecord{
			FileID:    j.FileID,
			RunID:     r.runID,
			LocalFile: j.LocalFile,
			URL:       j.URL,
		}
	}
	rec.Attempts++
	rec.State = store.StateInProgress
	if err := r.journal.SaveRecord(rec); err != nil {
		r.log.Warn("failed to journal attempt", "fileID", j.FileID, "err", err)
	}
	return rec.Attempts
}

// recordState stores a terminal state in the journal.
func (r *Runner) recordState(fileID string, state store.TransferState, reason string) {
	rec, err := r.journal.GetRecord(fileID)
	if err != nil {
		r.log.Warn("no journal record for transfer", "fileID", fileID, "err", err)
		return
	}
	rec.State = state
	rec.Error = reason
	if err := r.journal.SaveRecord(rec); err != nil {
		r.log.Warn("failed to journal transfer state", "fileID", fileID, "err", err)
	}
}
