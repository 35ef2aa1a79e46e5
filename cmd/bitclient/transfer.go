package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/statsbiblioteket/sb-bitrepository-client/action"
	"github.com/statsbiblioteket/sb-bitrepository-client/client"
	"github.com/statsbiblioteket/sb-bitrepository-client/config"
	"github.com/statsbiblioteket/sb-bitrepository-client/exchange"
	"github.com/statsbiblioteket/sb-bitrepository-client/job"
	"github.com/statsbiblioteket/sb-bitrepository-client/status"
	"github.com/statsbiblioteket/sb-bitrepository-client/store"
	"github.com/statsbiblioteket/sb-bitrepository-client/sumfile"
	"github.com/statsbiblioteket/sb-bitrepository-client/ui"
)

// newExchange creates the file exchange for the configured base URL,
// honoring an explicit GCS credentials file.
func newExchange(ctx context.Context, cfg *config.Config) (exchange.FileExchange, error) {
	if strings.HasPrefix(cfg.ExchangeURL, "gs://") && cfg.GCSCredentials != "" {
		return exchange.NewGCSExchange(ctx, cfg.GCSCredentials)
	}
	return exchange.New(ctx, cfg.ExchangeURL)
}

// runTransfers wires the full transfer stack and drives the given jobs to
// completion. It blocks until every job has a terminal outcome, the user
// quits the dashboard, or a signal arrives.
func runTransfers(cfg *config.Config, log *slog.Logger, op client.Operation, list []job.Job, useTUI bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	journal, err := store.NewBoltJournal(filepath.Join(cfg.StateDir, "transfers.db"))
	if err != nil {
		return err
	}
	defer journal.Close()

	ex, err := newExchange(ctx, cfg)
	if err != nil {
		return err
	}

	jobs := job.NewRunningJobs(log)
	retry := job.NewRetryQueue(job.DefaultRetryCapacity)

	var (
		reporter status.Reporter
		uiRep    *ui.Reporter
		program  *tea.Program
	)
	if useTUI {
		program = tea.NewProgram(ui.NewModel(ui.Snapshot{Total: len(list)}), tea.WithAltScreen())
		uiRep = ui.NewReporter(program.Send, len(list))
		reporter = uiRep
	} else {
		reporter = status.NewConsoleReporter(log)
	}

	// rest is assigned below; submissions only happen once the runner is
	// started, which is after the assignment.
	var rest *client.RestClient
	submit := func(ctx context.Context, j job.Job) error {
		checksum := j.Checksum
		if op == client.OpPut {
			staged, err := stageUpload(ctx, ex, j)
			if err != nil {
				return err
			}
			if checksum == "" {
				checksum = staged
			}
		}
		return rest.SubmitTransfer(ctx, client.TransferRequest{
			Operation:    op,
			CollectionID: cfg.CollectionID,
			FileID:       j.FileID,
			URL:          j.URL,
			Checksum:     checksum,
		})
	}

	runner := action.NewRunner(jobs, retry, journal, reporter, submit, cfg.MaxAttempts, cfg.Parallelism, log)

	var handler client.EventHandler
	switch op {
	case client.OpGet:
		handler = action.NewDownloadEventHandler(ex, jobs, retry, runner.Reporter(), log)
	default:
		handler = action.NewUploadEventHandler(ex, jobs, retry, runner.Reporter(), log)
	}

	rest = client.NewRestClient(cfg.RepositoryURL, handler, cfg.Parallelism, log)
	defer rest.Stop()

	log.Info("starting transfers", "operation", string(op), "files", len(list), "run", runner.RunID())

	runErr := make(chan error, 1)
	go func() {
		err := runner.Run(ctx, list)
		if uiRep != nil {
			uiRep.Finish()
		}
		runErr <- err
	}()

	if program != nil {
		if _, err := program.Run(); err != nil {
			log.Warn("dashboard failed, continuing headless", "err", err)
		}
		// The dashboard is gone; a user quit aborts the run.
		cancel()
	}

	return <-runErr
}

// stageUpload copies the local file onto the exchange before the repository
// is asked to ingest it, returning the digest computed while streaming.
func stageUpload(ctx context.Context, ex exchange.FileExchange, j job.Job) (string, error) {
	f, err := os.Open(j.LocalFile)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", j.LocalFile, err)
	}
	defer f.Close()

	cr := sumfile.NewChecksumReader(f)
	if err := ex.PutFile(ctx, cr, j.URL); err != nil {
		return "", fmt.Errorf("staging %q: %w", j.LocalFile, err)
	}
	return cr.Sum(), nil
}
