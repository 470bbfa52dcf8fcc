package sao

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/clock"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/logging"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/dmitrijs2005/beanfeed/internal/server/storage"
	"github.com/google/uuid"
)

// Service implements SAO over a storage.
type Service[B bean.Bean] struct {
	store  storage.Storage[B]
	policy Policy[B]
	clock  clock.Clock
	logger logging.Logger
	newID  func() (uuid.UUID, error)
}

func NewService[B bean.Bean](store storage.Storage[B], policy Policy[B], clk clock.Clock, logger logging.Logger) *Service[B] {
	return &Service[B]{
		store:  store,
		policy: policy,
		clock:  clk,
		logger: logger,
		newID:  uuid.NewV7,
	}
}

func (s *Service[B]) Get(ctx context.Context, p *auth.Principal, q Query) ([]B, error) {
	if p == nil {
		return nil, common.ErrorUnauthorized
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("%w: negative limit or offset", common.ErrMalformedRequest)
	}

	sq := s.policy.Narrow(p, storage.Query{ID: q.ID, Limit: q.Limit, Offset: q.Offset})
	items, err := s.store.List(ctx, sq)
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	return items, nil
}

func (s *Service[B]) Insert(ctx context.Context, p *auth.Principal, b B, slug string) (B, error) {
	var zero B
	if p == nil {
		return zero, common.ErrorUnauthorized
	}
	if err := s.checkOwner(p, b); err != nil {
		return zero, err
	}

	id, err := s.assignID(slug)
	if err != nil {
		return zero, err
	}

	rec, err := bean.Clone(b)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	now := s.clock.Now()
	meta := rec.Metadata()
	meta.ID = id
	meta.Published = now
	meta.Updated = now
	meta.Token = ""

	token, err := s.store.Store(ctx, rec, "")
	if err != nil {
		return zero, s.fail(ctx, "insert", err)
	}
	meta.Token = token

	s.logger.Info(ctx, "record inserted", "id", id.String(), "principal", p.Name)
	return rec, nil
}

func (s *Service[B]) Update(ctx context.Context, p *auth.Principal, b B) (B, error) {
	var zero B
	if p == nil {
		return zero, common.ErrorUnauthorized
	}
	if err := s.checkOwner(p, b); err != nil {
		return zero, err
	}

	in := b.Metadata()
	if !in.Assigned() {
		return zero, fmt.Errorf("%w: record has no id", common.ErrMalformedRequest)
	}

	current, err := s.store.Load(ctx, in.ID)
	if err != nil {
		return zero, s.fail(ctx, "update", err)
	}
	if !s.policy.Permits(p, s.policy.Owner(current)) {
		return zero, common.ErrForbidden
	}
	if in.Token.IsZero() || in.Token != current.Metadata().Token {
		return zero, common.ErrPreconditionFailed
	}

	rec, err := bean.Clone(b)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	meta := rec.Metadata()
	meta.Published = current.Metadata().Published
	meta.Updated = s.clock.Now()

	token, err := s.store.Store(ctx, rec, in.Token)
	if err != nil {
		return zero, s.fail(ctx, "update", err)
	}
	meta.Token = token

	s.logger.Info(ctx, "record updated", "id", meta.ID.String(), "principal", p.Name)
	return rec, nil
}

func (s *Service[B]) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID, token bean.Token) error {
	if p == nil {
		return common.ErrorUnauthorized
	}

	current, err := s.store.Load(ctx, id)
	if err != nil {
		return s.fail(ctx, "delete", err)
	}
	if !s.policy.Permits(p, s.policy.Owner(current)) {
		return common.ErrForbidden
	}
	if token.IsZero() {
		return fmt.Errorf("%w: delete needs the current token", common.ErrMalformedRequest)
	}
	if token != current.Metadata().Token {
		return common.ErrPreconditionFailed
	}

	if err := s.store.Erase(ctx, id, token); err != nil {
		return s.fail(ctx, "delete", err)
	}

	s.logger.Info(ctx, "record deleted", "id", id.String(), "principal", p.Name)
	return nil
}

// checkOwner rejects a record that names no owner or an owner other than p.
func (s *Service[B]) checkOwner(p *auth.Principal, b B) error {
	owner := s.policy.Owner(b)
	if owner == "" {
		return fmt.Errorf("%w: record has no owner", common.ErrMalformedRequest)
	}
	if !s.policy.Permits(p, owner) {
		return common.ErrForbidden
	}
	return nil
}

// assignID returns the id a new record gets: the slug when one is given,
// a fresh time-ordered id otherwise.
func (s *Service[B]) assignID(slug string) (uuid.UUID, error) {
	if slug == "" {
		id, err := s.newID()
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		return id, nil
	}
	id, err := uuid.Parse(slug)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: slug %q is not a record id", common.ErrMalformedRequest, slug)
	}
	return id, nil
}

// fail translates a storage error into a protocol error.
func (s *Service[B]) fail(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrVersionConflict):
		return fmt.Errorf("%s: %w", op, common.ErrPreconditionFailed)
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	default:
		s.logger.Error(ctx, "storage failure", "op", op, "error", err)
		return fmt.Errorf("%s: %w: %w", op, common.ErrorInternal, err)
	}
}
