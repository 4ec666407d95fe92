package badger

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Key prefixes for different data types. Messages and files use composite
// keys scoped by conversation so that a lexicographic prefix scan yields one
// conversation's records in creation order and a cascade delete is a single
// prefix sweep.
const (
	conversationPrefix = "conv"
	messagePrefix      = "msg"
	filePrefix         = "file"
)

// makeConversationKey generates a key for a conversation by ID.
func makeConversationKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", conversationPrefix, id))
}

// makeScopedKey generates a composite key for a conversation-scoped record.
// Format: prefix:conversationId:timestamp:id
// The timestamp is written in BigEndian order so lexicographic sort matches
// creation order.
func makeScopedKey(prefix, conversationId string, createdAt time.Time, id string) []byte {
	head := []byte(prefix + ":" + conversationId + ":")
	buf := make([]byte, len(head)+8+len(id))
	offset := copy(buf, head)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeScopedPrefix generates the scan prefix covering every record of one
// conversation under the given key prefix.
func makeScopedPrefix(prefix, conversationId string) []byte {
	return []byte(prefix + ":" + conversationId + ":")
}

// makeMessageKey generates a composite key for a message.
func makeMessageKey(conversationId string, createdAt time.Time, id string) []byte {
	return makeScopedKey(messagePrefix, conversationId, createdAt, id)
}

// makeFileKey generates a composite key for a file record.
func makeFileKey(conversationId string, createdAt time.Time, id string) []byte {
	return makeScopedKey(filePrefix, conversationId, createdAt, id)
}
