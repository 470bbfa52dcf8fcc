package sao

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/clock"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/logging"
	"github.com/dmitrijs2005/beanfeed/internal/profile"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/dmitrijs2005/beanfeed/internal/server/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

var (
	alice = auth.NewPrincipal("a@x.com")
	bob   = auth.NewPrincipal("b@x.com")
)

// spyStorage counts calls and can be told to fail.
type spyStorage struct {
	storage.Storage[*profile.Profile]
	mu    sync.Mutex
	calls int
	err   error
}

func (s *spyStorage) touch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *spyStorage) Load(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	if err := s.touch(); err != nil {
		return nil, err
	}
	return s.Storage.Load(ctx, id)
}

func (s *spyStorage) List(ctx context.Context, q storage.Query) ([]*profile.Profile, error) {
	if err := s.touch(); err != nil {
		return nil, err
	}
	return s.Storage.List(ctx, q)
}

func (s *spyStorage) Store(ctx context.Context, p *profile.Profile, expected bean.Token) (bean.Token, error) {
	if err := s.touch(); err != nil {
		return "", err
	}
	return s.Storage.Store(ctx, p, expected)
}

func (s *spyStorage) Erase(ctx context.Context, id uuid.UUID, expected bean.Token) error {
	if err := s.touch(); err != nil {
		return err
	}
	return s.Storage.Erase(ctx, id, expected)
}

func newService(t *testing.T) (*Service[*profile.Profile], *spyStorage) {
	t.Helper()
	spy := &spyStorage{Storage: storage.NewMemory(profile.Owner)}
	svc := NewService[*profile.Profile](
		spy,
		OwnerPolicy[*profile.Profile]{OwnerOf: profile.Owner},
		clock.NewStepping(t0, time.Second),
		logging.Nop(),
	)
	return svc, spy
}

func TestService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	created, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)
	require.True(t, created.Assigned())
	require.False(t, created.Token.IsZero())
	assert.True(t, t0.Equal(created.Updated))
	assert.True(t, t0.Equal(created.Published))
	t1 := created.Token

	edit := *created
	edit.DisplayName = "Alice"
	updated, err := svc.Update(ctx, alice, &edit)
	require.NoError(t, err)
	t2 := updated.Token
	assert.NotEqual(t, t1, t2)
	assert.True(t, updated.Updated.After(created.Updated))
	assert.True(t, created.Published.Equal(updated.Published))

	stale := *updated
	stale.Token = t1
	_, err = svc.Update(ctx, alice, &stale)
	assert.ErrorIs(t, err, common.ErrPreconditionFailed)

	intruder := *updated
	_, err = svc.Update(ctx, bob, &intruder)
	assert.ErrorIs(t, err, common.ErrForbidden, "ownership is checked before the token")
}

func TestService_TokenFreshness(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cur, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)

	var seen []bean.Token
	for i := 0; i < 5; i++ {
		seen = append(seen, cur.Token)
		next := *cur
		next.BirthYear = 1990 + i
		cur, err = svc.Update(ctx, alice, &next)
		require.NoError(t, err)
	}

	for _, old := range seen {
		stale := *cur
		stale.Token = old
		_, err := svc.Update(ctx, alice, &stale)
		assert.ErrorIs(t, err, common.ErrPreconditionFailed)
		assert.ErrorIs(t, svc.Delete(ctx, alice, cur.ID, old), common.ErrPreconditionFailed)
	}

	require.NoError(t, svc.Delete(ctx, alice, cur.ID, cur.Token))
	_, err = svc.Update(ctx, alice, cur)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, alice, cur.ID, cur.Token), common.ErrorNotFound)
}

func TestService_Ownership(t *testing.T) {
	ctx := context.Background()
	svc, spy := newService(t)

	_, err := svc.Insert(ctx, alice, profile.New("b@x.com"), "")
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.Zero(t, spy.calls, "rejected before storage")

	p, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)

	hijack := *p
	hijack.Email = "b@x.com"
	_, err = svc.Update(ctx, bob, &hijack)
	assert.ErrorIs(t, err, common.ErrForbidden, "stored owner is checked too")

	assert.ErrorIs(t, svc.Delete(ctx, bob, p.ID, p.Token), common.ErrForbidden)
}

func TestService_MissingOwnerIsMalformed(t *testing.T) {
	ctx := context.Background()
	svc, spy := newService(t)

	_, err := svc.Insert(ctx, alice, profile.New(""), "")
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
	assert.NotErrorIs(t, err, common.ErrForbidden)
	assert.Zero(t, spy.calls, "rejected before storage")

	p, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)
	anon := *p
	anon.Email = ""
	_, err = svc.Update(ctx, alice, &anon)
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
}

func TestService_DeleteChecksOwnerBeforeToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	p, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, bob, p.ID, ""), common.ErrForbidden, "non-owner without a token")
	assert.ErrorIs(t, svc.Delete(ctx, alice, p.ID, ""), common.ErrMalformedRequest, "owner without a token")
	assert.ErrorIs(t, svc.Delete(ctx, alice, p.ID, "stale"), common.ErrPreconditionFailed)
	require.NoError(t, svc.Delete(ctx, alice, p.ID, p.Token))
}

func TestService_UnauthenticatedNeverTouchesStorage(t *testing.T) {
	ctx := context.Background()
	svc, spy := newService(t)
	p := profile.New("a@x.com")
	p.ID = uuid.New()
	p.Token = "t"

	_, err := svc.Get(ctx, nil, Query{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.Insert(ctx, nil, p, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.Update(ctx, nil, p)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, svc.Delete(ctx, nil, p.ID, p.Token), common.ErrorUnauthorized)

	assert.Zero(t, spy.calls)
}

func TestService_GetNarrowsToPrincipal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	a1, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)
	_, err = svc.Insert(ctx, bob, profile.New("b@x.com"), "")
	require.NoError(t, err)
	a2, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)

	got, err := svc.Get(ctx, alice, Query{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a1.ID, got[0].ID)
	assert.Equal(t, a2.ID, got[1].ID)

	got, err = svc.Get(ctx, bob, Query{ID: a1.ID})
	require.NoError(t, err)
	assert.Empty(t, got, "other principals' records are invisible")

	got, err = svc.Get(ctx, alice, Query{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a2.ID, got[0].ID)

	_, err = svc.Get(ctx, alice, Query{Limit: -1})
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
}

func TestService_Slug(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := uuid.New()

	p, err := svc.Insert(ctx, alice, profile.New("a@x.com"), id.String())
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	_, err = svc.Insert(ctx, alice, profile.New("a@x.com"), id.String())
	assert.ErrorIs(t, err, common.ErrPreconditionFailed, "id already taken")

	_, err = svc.Insert(ctx, alice, profile.New("a@x.com"), "my-profile")
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
}

func TestService_InsertDoesNotMutateInput(t *testing.T) {
	in := profile.New("a@x.com")
	in.Token = "client-supplied"
	svc, _ := newService(t)

	out, err := svc.Insert(context.Background(), alice, in, "")
	require.NoError(t, err)
	assert.NotSame(t, in, out)
	assert.False(t, in.Assigned())
	assert.Equal(t, bean.Token("client-supplied"), in.Token)
	assert.NotEqual(t, in.Token, out.Token)
}

func TestService_UpdateNeedsIDAndToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Update(ctx, alice, profile.New("a@x.com"))
	assert.ErrorIs(t, err, common.ErrMalformedRequest)

	p, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)
	noToken := *p
	noToken.Token = ""
	_, err = svc.Update(ctx, alice, &noToken)
	assert.ErrorIs(t, err, common.ErrPreconditionFailed)
}

func TestService_StorageFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	svc, spy := newService(t)
	cause := errors.New("disk on fire")
	spy.err = cause

	_, err := svc.Get(ctx, alice, Query{})
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.ErrorIs(t, err, cause)

	_, err = svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestService_ConcurrentUpdatesOneWins(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	p, err := svc.Insert(ctx, alice, profile.New("a@x.com"), "")
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			edit := *p
			edit.BirthYear = 2000 + i
			_, errs[i] = svc.Update(ctx, alice, &edit)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, common.ErrPreconditionFailed)
	}
	assert.Equal(t, 1, wins)
}
