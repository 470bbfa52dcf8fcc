// Package feed implements the entry and feed document model that records are
// mapped onto, the feed assembler that hoists namespace declarations, and the
// XML wire shapes of both documents.
package feed

import "time"

const (
	// AtomNamespace is the default namespace of every document.
	AtomNamespace = "http://www.w3.org/2005/Atom"

	// ProtocolNamespace holds the protocol attributes (etag, status, error)
	// and is declared on every document root.
	ProtocolNamespace = "urn:beanfeed:protocol"
	ProtocolPrefix    = "bf"
)

// Field is one extension element of an entry.
type Field struct {
	Name  QName
	Value string
}

// Entry is the serialized form of one record.
//
// Namespaces always carries the declarations the extension fields need.
// Root reports whether the entry was produced as a standalone document, in
// which case it renders those declarations itself; embedded entries rely on
// the enclosing feed.
type Entry struct {
	ID        string
	Title     string
	Published time.Time
	Updated   time.Time
	Token     string

	Fields     []Field
	Namespaces NamespaceSet
	Root       bool

	// Status and Error describe a per-item outcome inside batch responses.
	// Zero Status means the entry is a plain record.
	Status int
	Error  string
}

// Put declares ns on the entry and sets the field ns:local to value,
// replacing an existing value in place.
func (e *Entry) Put(ns Namespace, local, value string) {
	e.Namespaces.Add(ns)
	name := QName{Space: ns.URI, Local: local}
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			e.Fields[i].Value = value
			return
		}
	}
	e.Fields = append(e.Fields, Field{Name: name, Value: value})
}

// Lookup returns the value of the field name.
func (e *Entry) Lookup(name QName) (string, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Feed is the serialized form of a record collection.
type Feed struct {
	ID         string
	Title      string
	Updated    time.Time
	Namespaces NamespaceSet
	Entries    []*Entry
}
