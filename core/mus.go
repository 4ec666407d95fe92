package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the records persisted in the store. Timestamps are
// encoded as Unix microseconds. Maintained by hand; keep field order in sync
// with the struct definitions.
var (
	ConversationMUS = conversationMUS{}
	MessageMUS      = messageMUS{}
	FileMUS         = fileMUS{}
)

type conversationMUS struct{}

func (conversationMUS) Marshal(v Conversation, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Name, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	return
}

func (conversationMUS) Unmarshal(bs []byte) (v Conversation, n int, err error) {
	var n1 int
	v.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var usec int64
	usec, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(usec).UTC()
	return
}

func (conversationMUS) Size(v Conversation) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.Name)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	return
}

type messageMUS struct{}

func (messageMUS) Marshal(v Message, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.ConversationId, bs[n:])
	n += varint.Int.Marshal(int(v.Role), bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(len(v.Sources), bs[n:])
	for _, s := range v.Sources {
		n += ord.String.Marshal(s, bs[n:])
	}
	return
}

func (messageMUS) Unmarshal(bs []byte) (v Message, n int, err error) {
	var n1 int
	v.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ConversationId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var role int
	role, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Role = Role(role)
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var usec int64
	usec, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(usec).UTC()
	var count int
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count > 0 {
		v.Sources = make([]string, count)
		for i := 0; i < count; i++ {
			v.Sources[i], n1, err = ord.String.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	return
}

func (messageMUS) Size(v Message) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.ConversationId)
	size += varint.Int.Size(int(v.Role))
	size += ord.String.Size(v.Content)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	size += varint.Int.Size(len(v.Sources))
	for _, s := range v.Sources {
		size += ord.String.Size(s)
	}
	return
}

type fileMUS struct{}

func (fileMUS) Marshal(v File, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.ConversationId, bs[n:])
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	return
}

func (fileMUS) Unmarshal(bs []byte) (v File, n int, err error) {
	var n1 int
	v.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ConversationId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Filename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var usec int64
	usec, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(usec).UTC()
	return
}

func (fileMUS) Size(v File) (size int) {
	size = ord.String.Size(v.Id)
	size += ord.String.Size(v.ConversationId)
	size += ord.String.Size(v.Filename)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	return
}
