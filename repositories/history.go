package repositories

import (
	"fmt"
	"log/slog"
	"practice-lab/domain"
	"practice-lab/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	historyPrefix    = "history:"
	transcriptPrefix = "transcript:"
)

type HistoryRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewHistoryRepository(db *badger.DB, log *slog.Logger) HistoryRepository {
	return HistoryRepository{db: db, log: log}
}

// Store persists a record and its transcript in one transaction.
// The record key is formatted as "history:{started_at_padded}:{uuid}" so that
// a prefix scan walks records chronologically (19-digit zero padding keeps the
// lexicographical order), while the uuid separates sessions started at the
// same nanosecond. Storing the same record twice overwrites it.
func (h HistoryRepository) Store(record domain.HistoryRecord, transcript []domain.Message) error {
	return h.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(record), encodeRecord(record)); err != nil {
			return err
		}
		return txn.Set(transcriptKey(record.ID), encodeTranscript(transcript))
	})
}

// List returns the most recent records first.
// limit <= 0 means no limit.
func (h HistoryRepository) List(limit int) ([]domain.HistoryRecord, error) {
	var records []domain.HistoryRecord
	err := h.db.View(func(txn *badger.Txn) error {
		prefix := []byte(historyPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration starts from the greatest key below the seek key
		for it.Seek(append([]byte(historyPrefix), 0xff)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) == limit {
				h.log.Debug(fmt.Sprintf("Maximum of %d history records reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				record, err := decodeRecord(value)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (h HistoryRepository) Transcript(id uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(transcriptKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %s", errors.ErrRecordNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			messages, err = decodeTranscript(value)
			return err
		})
	})
	return messages, err
}

func (h HistoryRepository) Count() (int, error) {
	count := 0
	err := h.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = []byte(historyPrefix)
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func recordKey(record domain.HistoryRecord) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", historyPrefix, record.StartedAt.UnixNano(), record.ID))
}

func transcriptKey(id uuid.UUID) []byte {
	return []byte(transcriptPrefix + id.String())
}
