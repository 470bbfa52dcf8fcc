package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/google/uuid"
)

type record struct {
	owner     string
	published time.Time
	revision  int64
	token     bean.Token
	body      []byte
}

// Memory is an in-process Storage. Records are kept in their encoded form,
// so callers never share memory with the store.
type Memory[B bean.Bean] struct {
	mu      sync.RWMutex
	owner   func(B) string
	records map[uuid.UUID]*record
}

// NewMemory returns an empty store. owner names the principal owning a
// record and backs Query.Owner.
func NewMemory[B bean.Bean](owner func(B) string) *Memory[B] {
	return &Memory[B]{owner: owner, records: make(map[uuid.UUID]*record)}
}

func (m *Memory[B]) Load(ctx context.Context, id uuid.UUID) (B, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		var zero B
		return zero, common.ErrorNotFound
	}
	return Decode[B](r.token, r.body)
}

func (m *Memory[B]) List(ctx context.Context, q Query) ([]B, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type keyed struct {
		id uuid.UUID
		r  *record
	}
	var matched []keyed
	for id, r := range m.records {
		if q.ID != uuid.Nil && id != q.ID {
			continue
		}
		if q.Owner != "" && r.owner != q.Owner {
			continue
		}
		matched = append(matched, keyed{id, r})
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.r.published.Equal(b.r.published) {
			return a.r.published.Before(b.r.published)
		}
		return a.id.String() < b.id.String()
	})

	matched = page(matched, q.Offset, q.Limit)

	out := make([]B, 0, len(matched))
	for _, k := range matched {
		b, err := Decode[B](k.r.token, k.r.body)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *Memory[B]) Store(ctx context.Context, b B, expected bean.Token) (bean.Token, error) {
	meta := b.Metadata()
	body, err := bean.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.records[meta.ID]
	var revision int64 = 1
	switch {
	case expected.IsZero() && exists:
		return "", common.ErrVersionConflict
	case !expected.IsZero() && !exists:
		return "", common.ErrorNotFound
	case !expected.IsZero() && current.token != expected:
		return "", common.ErrVersionConflict
	case exists:
		revision = current.revision + 1
	}

	token, err := bean.TokenOf(revision, body)
	if err != nil {
		return "", err
	}
	m.records[meta.ID] = &record{
		owner:     m.owner(b),
		published: meta.Published,
		revision:  revision,
		token:     token,
		body:      body,
	}
	return token, nil
}

func (m *Memory[B]) Erase(ctx context.Context, id uuid.UUID, expected bean.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return common.ErrorNotFound
	}
	if r.token != expected {
		return common.ErrVersionConflict
	}
	delete(m.records, id)
	return nil
}

// Decode rebuilds a record from its encoded state and attaches token.
func Decode[B bean.Bean](token bean.Token, body []byte) (B, error) {
	var b B
	if err := bean.Unmarshal(body, &b); err != nil {
		return b, fmt.Errorf("decode record: %w", err)
	}
	b.Metadata().Token = token
	return b, nil
}

// page applies offset and limit to an ordered slice.
func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
