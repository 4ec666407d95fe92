package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/store"
)

// AddMessage appends a message to its conversation.
func (s *Store) AddMessage(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if err := core.ValidateMessage(msg); err != nil {
		return nil, err
	}
	if msg.Id == "" {
		msg.Id = core.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMessageKey(msg.ConversationId, msg.CreatedAt, msg.Id)
		if err := tx.Set(key, store.MarshalMessage(msg)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return msg, err
}

// ListMessages retrieves a conversation's messages in creation order.
// The composite key layout makes the prefix scan return them sorted.
func (s *Store) ListMessages(ctx context.Context, conversationId string, limit int) ([]*core.Message, error) {
	var results []*core.Message
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScopedPrefix(messagePrefix, conversationId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			var msg *core.Message
			err := iter.Item().Value(func(val []byte) error {
				var err error
				msg, err = store.UnmarshalMessage(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, msg)
		}
		return nil
	}, false)
	return results, err
}
