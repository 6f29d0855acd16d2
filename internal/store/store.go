// Package store implements the durable message log on BadgerDB with a Bluge
// full-text index alongside it.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Banter/internal/domain"
)

// Keys are formatted as "msg:{timestamp_padded}:{uuid}" so that:
//  1. A reverse iterator yields newest-first without a secondary index
//     (19-digit zero padding keeps lexicographic order = chronological).
//  2. The uuid disambiguates two messages landing on the same nanosecond.
// A "id:{uuid}" pointer entry maps a message identifier back to its record
// key for point lookups.
const (
	msgPrefix = "msg:"
	idPrefix  = "id:"
)

type Store struct {
	db    *badger.DB
	index *bluge.Writer
}

// Open initializes the badger log and the bluge index under the given
// directories.
func Open(dataDir, indexDir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dataDir).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	index, err := bluge.OpenWriter(bluge.DefaultConfig(indexDir))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open bluge writer: %w", err)
	}

	log.Info().Str("module", "store").Str("data", dataDir).Str("index", indexDir).Msg("store opened")
	return &Store{db: db, index: index}, nil
}

func (s *Store) Close() error {
	if err := s.index.Close(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

func recordKey(at time.Time, id string) []byte {
	return fmt.Appendf(nil, "%s%s:%s", msgPrefix, padNano(at.UnixNano()), id)
}

func padNano(n int64) string {
	return fmt.Sprintf("%019d", n)
}

func pointerKey(id string) []byte {
	return []byte(idPrefix + id)
}

func encode(msg *domain.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func decode(data []byte) (*domain.Message, error) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// resolveRecordKey follows the id pointer inside txn. Returns
// domain.ErrNotFound when the identifier is unknown.
func resolveRecordKey(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(pointerKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func readRecord(txn *badger.Txn, key []byte) (*domain.Message, error) {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var msg *domain.Message
	err = item.Value(func(val []byte) error {
		var derr error
		msg, derr = decode(val)
		return derr
	})
	return msg, err
}
