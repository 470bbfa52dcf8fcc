// Package storage defines the persistence contract records are loaded from
// and stored into, together with an in-process implementation.
//
// Every store is a compare-and-swap store: a write names the token it
// expects the record to carry and fails with common.ErrVersionConflict when
// the record moved on. Tokens are derived with bean.ComputeToken from a
// per-record revision and the persisted state.
package storage

import (
	"context"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/google/uuid"
)

// Query selects records. Zero fields do not filter; a zero Limit means no
// limit.
type Query struct {
	ID     uuid.UUID
	Owner  string
	Limit  int
	Offset int
}

// Storage persists records of one type.
type Storage[B bean.Bean] interface {
	// Load returns the record id with its current token, or
	// common.ErrorNotFound.
	Load(ctx context.Context, id uuid.UUID) (B, error)

	// List returns the records matching q, oldest first.
	List(ctx context.Context, q Query) ([]B, error)

	// Store writes b under b's id. A zero expected token creates the record
	// and fails with common.ErrVersionConflict when the id is taken.
	// Otherwise the record must exist (common.ErrorNotFound) and carry
	// expected (common.ErrVersionConflict). Returns the new token.
	Store(ctx context.Context, b B, expected bean.Token) (bean.Token, error)

	// Erase deletes the record id if it carries expected.
	Erase(ctx context.Context, id uuid.UUID, expected bean.Token) error
}
