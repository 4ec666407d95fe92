package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/store"
)

// AddFile records the metadata of an ingested upload.
func (s *Store) AddFile(ctx context.Context, file *core.File) (*core.File, error) {
	if file.Id == "" {
		file.Id = core.NewID()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeFileKey(file.ConversationId, file.CreatedAt, file.Id)
		if err := tx.Set(key, store.MarshalFile(file)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return file, err
}

// ListFiles retrieves a conversation's file records in creation order.
func (s *Store) ListFiles(ctx context.Context, conversationId string) ([]*core.File, error) {
	var results []*core.File
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScopedPrefix(filePrefix, conversationId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var file *core.File
			err := iter.Item().Value(func(val []byte) error {
				var err error
				file, err = store.UnmarshalFile(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, file)
		}
		return nil
	}, false)
	return results, err
}
