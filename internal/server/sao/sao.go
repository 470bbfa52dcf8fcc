// Package sao is the server-side access layer for records: authorization,
// ownership rules, timestamps and the token precondition protocol, on top of
// a storage.Storage.
package sao

import (
	"context"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/dmitrijs2005/beanfeed/internal/server/storage"
	"github.com/google/uuid"
)

// Query selects records for Get. A non-nil ID selects a single record.
type Query struct {
	ID     uuid.UUID
	Limit  int
	Offset int
}

// SAO handles the four operations on one record type. Every call acts as
// the given principal; a nil principal fails with common.ErrorUnauthorized
// before storage is touched.
type SAO[B bean.Bean] interface {
	Get(ctx context.Context, p *auth.Principal, q Query) ([]B, error)
	Insert(ctx context.Context, p *auth.Principal, b B, slug string) (B, error)
	Update(ctx context.Context, p *auth.Principal, b B) (B, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID, token bean.Token) error
}

// Policy decides what a principal may see and write.
type Policy[B bean.Bean] interface {
	// Owner returns the principal name owning b.
	Owner(b B) string
	// Permits reports whether p may write records owned by owner.
	Permits(p *auth.Principal, owner string) bool
	// Narrow restricts a read to what p may see.
	Narrow(p *auth.Principal, q storage.Query) storage.Query
}

// OwnerPolicy lets principals read and write only the records they own.
type OwnerPolicy[B bean.Bean] struct {
	OwnerOf func(B) string
}

func (o OwnerPolicy[B]) Owner(b B) string { return o.OwnerOf(b) }

func (o OwnerPolicy[B]) Permits(p *auth.Principal, owner string) bool {
	return p != nil && owner != "" && p.Name == owner
}

func (o OwnerPolicy[B]) Narrow(p *auth.Principal, q storage.Query) storage.Query {
	q.Owner = p.Name
	return q
}
