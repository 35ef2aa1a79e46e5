package action

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/statsbiblioteket/sb-bitrepository-client/client"
	"github.com/statsbiblioteket/sb-bitrepository-client/fileid"
	"github.com/statsbiblioteket/sb-bitrepository-client/sumfile"
)

// DefaultPageSize is how many checksum records are requested per page.
const DefaultPageSize = 10000

// ListAction harvests the checksum listing of one pillar into a sum file. It
// pages through the pillar's records with a moving time cursor; because a
// record sitting exactly on the cursor boundary can reappear at the start of
// the next page, the identifiers emitted for a page are remembered for
// exactly one page and skipped if seen again.
//
// The one-page lookback is only correct while overlap never spans more than
// one page boundary, which holds for the cursor granularity the pillars use.
type ListAction struct {
	checksums client.ChecksumClient

	collectionID string
	pillarID     string
	localPrefix  string
	remotePrefix string
	sumFile      string
	pageSize     int

	log *slog.Logger
}

// NewListAction creates the harvest action. A pageSize of zero or less
// selects DefaultPageSize.
func NewListAction(checksums client.ChecksumClient, collectionID, pillarID, localPrefix, remotePrefix, sumFilePath string, pageSize int, log *slog.Logger) *ListAction {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ListAction{
		checksums:    checksums,
		collectionID: collectionID,
		pillarID:     pillarID,
		localPrefix:  localPrefix,
		remotePrefix: remotePrefix,
		sumFile:      sumFilePath,
		pageSize:     pageSize,
		log:          log,
	}
}

// Perform runs the harvest to completion. The sum file is created before the
// first query and is flushed and closed on every exit path. A failed page
// query aborts the whole harvest: the cursor for that page cannot be trusted,
// so resuming is not attempted.
func (a *ListAction) Perform(ctx context.Context) error {
	writer, err := sumfile.NewWriter(a.sumFile)
	if err != nil {
		return err
	}
	defer writer.Close()

	cursor := time.Unix(0, 0).UTC()
	lastPage := make(map[string]struct{})

	for {
		page, err := a.checksums.GetChecksums(ctx, a.collectionID, client.ContributorQuery{
			PillarID:     a.pillarID,
			MinTimestamp: cursor,
			MaxResults:   a.pageSize,
		})
		if err != nil {
			return fmt.Errorf("getting checksums from pillar %q: %w", a.pillarID, err)
		}

		latest, emitted, err := a.reportResults(page.Records, writer, lastPage)
		if err != nil {
			return err
		}
		lastPage = emitted
		// The cursor only ever moves forward.
		if latest.After(cursor) {
			cursor = latest
		}

		if !page.PartialResults {
			break
		}
	}

	return writer.Close()
}

// reportResults writes one page of records to the sum file. It returns the
// latest calculation timestamp seen in the page and the set of identifiers
// written, which becomes the dedup window for the next page.
//
// The timestamp is advanced for every record, including ones skipped for a
// prefix mismatch or as boundary duplicates. That keeps the cursor moving
// even through pages where nothing is written.
func (a *ListAction) reportResults(records []client.ChecksumRecord, writer *sumfile.Writer, lastPage map[string]struct{}) (time.Time, map[string]struct{}, error) {
	latest := time.Unix(0, 0).UTC()
	currentPage := make(map[string]struct{})

	for _, rec := range records {
		if rec.CalculationTime.After(latest) {
			latest = rec.CalculationTime
		}

		localPath, err := fileid.RemoteToLocal(rec.FileID, a.localPrefix, a.remotePrefix)
		if err != nil {
			a.log.Debug("skipping file", "fileID", rec.FileID, "reason", err)
			continue
		}

		if _, seen := lastPage[rec.FileID]; seen {
			continue
		}
		currentPage[rec.FileID] = struct{}{}

		if err := writer.WriteLine(localPath, hex.EncodeToString(rec.Checksum)); err != nil {
			return latest, currentPage, err
		}
	}

	return latest, currentPage, nil
}
