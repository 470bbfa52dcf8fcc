// Package bean defines typed records, their representation styles and
// version tokens, and the codec contract mapping records onto entries.
package bean

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/beanfeed/internal/feed"
)

// Codec maps one record type onto entries and back.
//
// Encode must not mutate b. With asRoot the entry renders its namespace
// declarations itself; otherwise it only carries them for a feed to hoist.
// Decode never fails: fields that are missing or do not parse take their
// zero value.
type Codec[B Bean] interface {
	Encode(b B, asRoot bool, style Style) *feed.Entry
	Decode(e *feed.Entry) B
}

// String returns the text of field name, or "".
func String(e *feed.Entry, name feed.QName) string {
	v, _ := e.Lookup(name)
	return v
}

// Int returns field name parsed as a base-10 integer, or 0.
func Int(e *feed.Entry, name feed.QName) int {
	v, ok := e.Lookup(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// Bool returns field name parsed as a boolean, or false.
func Bool(e *feed.Entry, name feed.QName) bool {
	v, ok := e.Lookup(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}
