package core

import (
	"context"
	"io"
	"time"

	"github.com/dkeye/Banter/internal/domain"
)

// Frame is a marshaled outbound event.
type Frame []byte

// SessionID identifies one live transport connection. Assigned by the
// transport on connect, never reused; a reconnect always gets a fresh one.
type SessionID string

// SignalConnection abstracts the send side of a client connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MessageStore is the durable message log the engine writes through.
// Calls may fail with transient I/O errors; callers do not retry silently.
type MessageStore interface {
	// Persist assigns an identifier and creation timestamp and stores the
	// message, returning the persisted form.
	Persist(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	// FindByID returns domain.ErrNotFound when no record exists.
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	// FindBefore returns up to limit messages strictly older than before,
	// newest first.
	FindBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Message, error)
	// SearchText runs a full-text query over message bodies, ordered by
	// relevance and filtered to what externalID may see: public messages
	// plus private ones where it is sender or recipient.
	SearchText(ctx context.Context, term, externalID string, limit int) ([]*domain.Message, error)
	// DeleteByID removes the record for good; no tombstone is kept.
	DeleteByID(ctx context.Context, id string) error
	// Update rewrites the mutable fields of an existing record.
	Update(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	// ChattedWith lists the distinct private-conversation partners of the
	// given external identity, derived from the log.
	ChattedWith(ctx context.Context, externalID string) ([]domain.User, error)
	Close() error
}

// FileStore persists attachment blobs and hands back a stable reference.
// The engine keeps only the reference, never the bytes.
type FileStore interface {
	Save(name string, r io.Reader) (url, mediaType string, err error)
}
