package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	// ErrRecordNotFound is returned when a file id has no journal record.
	ErrRecordNotFound = errors.New("transfer record not found")
)

var (
	transfersBucket = []byte("transfers")
)

// TransferState represents the current state of a transfer in the journal.
type TransferState string

const (
	StatePending    TransferState = "Pending"
	StateInProgress TransferState = "InProgress"
	StateCompleted  TransferState = "Completed"
	StateFailed     TransferState = "Failed"
)

// TransferRecord is the journal entry for one file transfer.
type TransferRecord struct {
	FileID    string        `json:"file_id"`
	RunID     string        `json:"run_id"`
	LocalFile string        `json:"local_file"`
	URL       string        `json:"url"`
	State     TransferState `json:"state"`
	Attempts  int           `json:"attempts"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Journal defines the interface for tracking transfer outcomes across runs.
type Journal interface {
	SaveRecord(rec *TransferRecord) error
	GetRecord(fileID string) (*TransferRecord, error)
	Close() error
}

// BoltJournal is a Journal implementation backed by bbolt.
type BoltJournal struct {
	db *bbolt.DB
}

// NewBoltJournal opens (or creates) a journal at the given path.
func NewBoltJournal(path string) (*BoltJournal, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(transfersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create transfers bucket: %w", err)
	}

	return &BoltJournal{db: db}, nil
}

// SaveRecord stores a record, stamping its update time.
func (s *BoltJournal) SaveRecord(rec *TransferRecord) error {
	rec.UpdatedAt = time.Now()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(transfersBucket)

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal transfer record: %w", err)
		}

		if err := b.Put([]byte(rec.FileID), data); err != nil {
			return fmt.Errorf("failed to put transfer record: %w", err)
		}
		return nil
	})
}

// GetRecord retrieves the record for a file id.
func (s *BoltJournal) GetRecord(fileID string) (*TransferRecord, error) {
	var rec TransferRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(transfersBucket)
		data := b.Get([]byte(fileID))
		if data == nil {
			return ErrRecordNotFound
		}

		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("failed to unmarshal transfer record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Close closes the underlying database.
func (s *BoltJournal) Close() error {
	return s.db.Close()
}
