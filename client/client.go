package client

import (
	"context"
	"time"
)

// Operation names the transfer direction of a submitted job.
type Operation string

const (
	// OpGet asks a pillar to stage a file on the exchange for download.
	OpGet Operation = "get"

	// OpPut asks a pillar to ingest a file previously staged on the exchange.
	OpPut Operation = "put"
)

// TransferRequest describes one operation submitted to the repository. The
// outcome arrives asynchronously at the EventHandler registered with the
// client.
type TransferRequest struct {
	Operation    Operation
	CollectionID string
	FileID       string

	// URL is the exchange locator the pillar should read from or write to.
	URL string

	// Checksum is the expected checksum in hex, empty when not known.
	Checksum string
}

// TransferClient submits transfer operations. Submission returns as soon as
// the operation is accepted locally; completion or failure is delivered to
// the EventHandler.
type TransferClient interface {
	SubmitTransfer(ctx context.Context, req TransferRequest) error
}

// ChecksumRecord is one checksum known by a pillar.
type ChecksumRecord struct {
	FileID string

	// Checksum is the raw digest as delivered on the wire.
	Checksum []byte

	// CalculationTime is when the pillar computed the checksum. It drives the
	// paging cursor.
	CalculationTime time.Time
}

// ChecksumPage is one page of checksum results. PartialResults reports that
// the pillar holds more records past this page.
type ChecksumPage struct {
	Records        []ChecksumRecord
	PartialResults bool
}

// ContributorQuery scopes a checksum query to one pillar and a time window.
type ContributorQuery struct {
	PillarID string

	// MinTimestamp is the paging cursor; only records calculated at or after
	// it are returned.
	MinTimestamp time.Time

	// MaxResults caps the page size.
	MaxResults int
}

// ChecksumClient queries a contributing pillar for checksum records, one
// synchronous page at a time.
type ChecksumClient interface {
	GetChecksums(ctx context.Context, collectionID string, query ContributorQuery) (*ChecksumPage, error)
}
