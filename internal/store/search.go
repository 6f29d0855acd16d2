package store

import (
	"context"
	"errors"

	"github.com/blugelabs/bluge"

	"github.com/dkeye/Banter/internal/domain"
)

func (s *Store) indexMessage(msg *domain.Message) error {
	if msg.Body == "" {
		// attachment-only record, or a body edited away: nothing to match on
		return s.deindexMessage(msg.ID)
	}
	doc := bluge.NewDocument(msg.ID)
	doc.AddField(bluge.NewTextField("body", msg.Body))
	return s.index.Update(doc.ID(), doc)
}

func (s *Store) deindexMessage(id string) error {
	return s.index.Delete(bluge.NewDocument(id).ID())
}

// SearchText runs a relevance-ranked match query over message bodies and
// resolves each hit through the log, keeping only what externalID may see:
// public messages, plus private ones where it is sender or recipient. The
// index is oversampled to survive the visibility filter.
func (s *Store) SearchText(ctx context.Context, term, externalID string, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := s.index.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewMatchQuery(term).SetField("body")
	request := bluge.NewTopNSearch(limit*4, query)

	dmi, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Message, 0, limit)
	match, err := dmi.Next()
	for err == nil && match != nil && len(out) < limit {
		var id string
		verr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				id = string(value)
			}
			return true
		})
		if verr != nil {
			return nil, verr
		}

		msg, ferr := s.FindByID(ctx, id)
		switch {
		case errors.Is(ferr, domain.ErrNotFound):
			// index lag after a delete; skip
		case ferr != nil:
			return nil, ferr
		case visibleTo(msg, externalID):
			out = append(out, msg)
		}
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func visibleTo(msg *domain.Message, externalID string) bool {
	if !msg.IsPrivate {
		return true
	}
	return msg.SenderExternalID == externalID || msg.RecipientExternalID == externalID
}
