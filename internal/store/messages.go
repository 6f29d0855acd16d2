package store

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/dkeye/Banter/internal/domain"
)

// Persist assigns the identifier and creation timestamp and writes the
// record with its id pointer. The body, when present, lands in the
// full-text index as well.
func (s *Store) Persist(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := *msg
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	if stored.Reactions == nil {
		stored.Reactions = []domain.Reaction{}
	}
	if stored.ReadBy == nil {
		stored.ReadBy = []string{}
	}

	data, err := encode(&stored)
	if err != nil {
		return nil, err
	}
	key := recordKey(stored.CreatedAt, stored.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(pointerKey(stored.ID), key)
	})
	if err != nil {
		return nil, err
	}

	if err := s.indexMessage(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var msg *domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := resolveRecordKey(txn, id)
		if err != nil {
			return err
		}
		msg, err = readRecord(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// FindBefore returns up to limit messages strictly older than before,
// newest first. The reverse iterator is seeked at the padded timestamp
// without the uuid suffix, so any record stamped exactly at before sorts
// after the seek key and is excluded.
func (s *Store) FindBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seekKey := []byte(msgPrefix)
		seekKey = append(seekKey, []byte(padNano(before.UnixNano()))...)
		prefix := []byte(msgPrefix)

		for it.Seek(seekKey); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				msg, derr := decode(val)
				if derr != nil {
					return derr
				}
				out = append(out, msg)
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
	return out, nil
}

// Update rewrites the record in place. The creation timestamp is immutable,
// so the record key never moves; only the value and the index entry change.
func (s *Store) Update(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := encode(msg)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key, err := resolveRecordKey(txn, msg.ID)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}

	if err := s.indexMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteByID removes the record, its pointer and its index entry. No
// tombstone remains.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		key, err := resolveRecordKey(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(pointerKey(id))
	})
	if err != nil {
		return err
	}
	return s.deindexMessage(id)
}

// ChattedWith walks the log and collects the distinct private-conversation
// partners of the given external identity.
func (s *Store) ChattedWith(ctx context.Context, externalID string) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []domain.User
	collect := func(username, partnerID string) {
		if partnerID == "" || partnerID == externalID {
			return
		}
		if _, ok := seen[partnerID]; ok {
			return
		}
		seen[partnerID] = struct{}{}
		out = append(out, domain.User{Username: username, ExternalID: partnerID})
	}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(msgPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				msg, derr := decode(val)
				if derr != nil {
					return derr
				}
				if !msg.IsPrivate {
					return nil
				}
				if msg.SenderExternalID == externalID {
					collect(msg.RecipientName, msg.RecipientExternalID)
				} else if msg.RecipientExternalID == externalID {
					collect(msg.Sender, msg.SenderExternalID)
				}
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
	return out, nil
}
