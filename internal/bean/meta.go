package bean

import (
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/feed"
	"github.com/google/uuid"
)

// Meta is the metadata every record carries. A nil ID means the record
// has not been created yet.
type Meta struct {
	ID        uuid.UUID `cbor:"id"`
	Published time.Time `cbor:"published"`
	Updated   time.Time `cbor:"updated"`
	Token     Token     `cbor:"-"`
}

// Metadata makes any struct embedding Meta satisfy Bean.
func (m *Meta) Metadata() *Meta { return m }

// Assigned reports whether the record has an identity.
func (m *Meta) Assigned() bool { return m.ID != uuid.Nil }

// Bean is a typed record exchanged through the protocol.
type Bean interface {
	Metadata() *Meta
}

// EncodeMeta copies m into e. The id is set only when assigned; timestamps
// and token are copied verbatim.
func EncodeMeta(m *Meta, e *feed.Entry) {
	if m.Assigned() {
		e.ID = m.ID.String()
	}
	e.Published = m.Published
	e.Updated = m.Updated
	e.Token = string(m.Token)
}

// DecodeMeta copies the metadata of e into m. An id that does not parse
// leaves the identity unassigned.
func DecodeMeta(e *feed.Entry, m *Meta) {
	m.ID = uuid.Nil
	if e.ID != "" {
		if id, err := uuid.Parse(e.ID); err == nil {
			m.ID = id
		}
	}
	m.Published = e.Published
	m.Updated = e.Updated
	m.Token = Token(e.Token)
}
