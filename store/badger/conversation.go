package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/store"
)

// AddConversation adds a conversation to storage.
func (s *Store) AddConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error) {
	if conv.Id == "" {
		conv.Id = core.NewID()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeConversationKey(conv.Id)
		if err := tx.Set(key, store.MarshalConversation(conv)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return conv, err
}

// GetConversation retrieves a conversation by ID.
func (s *Store) GetConversation(ctx context.Context, id string) (*core.Conversation, error) {
	var result *core.Conversation
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeConversationKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return store.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			result, err = store.UnmarshalConversation(val)
			return err
		})
	}, false)
	return result, err
}

// ListConversations retrieves all conversations, newest first.
func (s *Store) ListConversations(ctx context.Context) ([]*core.Conversation, error) {
	var results []*core.Conversation
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(conversationPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var conv *core.Conversation
			err := iter.Item().Value(func(val []byte) error {
				var err error
				conv, err = store.UnmarshalConversation(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, conv)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Conversation) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return results, nil
}

// DeleteConversation removes a conversation and cascades to its messages
// and files. Records of other conversations are untouched because every
// scoped key carries the conversation id in its prefix. The sweeps run
// through a write batch rather than a single transaction, so a conversation
// of any size never trips ErrTxnTooBig; children go first and the
// conversation record last, which keeps an interrupted delete retryable.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	key := makeConversationKey(id)

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return store.ErrNotFound
			}
			return err
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	for _, prefix := range [][]byte{
		makeScopedPrefix(messagePrefix, id),
		makeScopedPrefix(filePrefix, id),
	} {
		if err := s.backend.DeletePrefix(prefix); err != nil {
			return err
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
