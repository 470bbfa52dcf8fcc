package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/clock"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/logging"
	"github.com/dmitrijs2005/beanfeed/internal/profile"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/dmitrijs2005/beanfeed/internal/server/rest"
	"github.com/dmitrijs2005/beanfeed/internal/server/sao"
	"github.com/dmitrijs2005/beanfeed/internal/server/storage"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	secret = []byte("proxy-test-secret")
	t0     = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := sao.NewService[*profile.Profile](
		storage.NewMemory(profile.Owner),
		sao.OwnerPolicy[*profile.Profile]{OwnerOf: profile.Owner},
		clock.NewStepping(t0, time.Second),
		logging.Nop(),
	)
	res := rest.NewResource[*profile.Profile]("profiles", svc, profile.Codec{},
		rest.Transport{Preferred: transport.Zstd, MaxBodyBytes: 1 << 20}, logging.Nop())
	authz := auth.NewAuthorizer(auth.BearerResolver(secret))
	srv := rest.NewServer("", logging.Nop(), authz, map[string]rest.Registrar{"profiles": res})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func proxyFor(t *testing.T, ts *httptest.Server, principal string, opts ...Option) *Proxy[*profile.Profile] {
	t.Helper()
	if principal != "" {
		tok, err := auth.GenerateToken(principal, secret, time.Hour)
		require.NoError(t, err)
		opts = append([]Option{WithBearerToken(tok)}, opts...)
	}
	opts = append([]Option{WithHTTPClient(ts.Client())}, opts...)
	return New[*profile.Profile](ts.URL+"/api/profiles", profile.Codec{}, opts...)
}

func TestProxy_Scenario(t *testing.T) {
	ctx := context.Background()
	ts := newServer(t)
	a := proxyFor(t, ts, "a@x.com")
	b := proxyFor(t, ts, "b@x.com")

	created, err := a.Insert(ctx, profile.New("a@x.com"), "")
	require.NoError(t, err)
	require.True(t, created.Assigned())
	require.False(t, created.Token.IsZero())
	assert.True(t, t0.Equal(created.Updated))
	t1 := created.Token

	created.DisplayName = "Alice"
	updated, err := a.Update(ctx, created)
	require.NoError(t, err)
	t2 := updated.Token
	assert.NotEqual(t, t1, t2)
	assert.Equal(t, "Alice", updated.DisplayName)

	stale := *updated
	stale.Token = t1
	_, err = a.Update(ctx, &stale)
	assert.ErrorIs(t, err, common.ErrPreconditionFailed)

	_, err = b.Update(ctx, updated)
	assert.ErrorIs(t, err, common.ErrForbidden)

	got, err := a.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, t2, got.Token)

	assert.ErrorIs(t, a.Delete(ctx, created.ID, t1), common.ErrPreconditionFailed)
	require.NoError(t, a.Delete(ctx, created.ID, t2))
	_, err = a.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProxy_FullRoundTrip(t *testing.T) {
	ctx := context.Background()
	ts := newServer(t)
	a := proxyFor(t, ts, "a@x.com", WithCompression(transport.Gzip))

	in := &profile.Profile{
		Email: "a@x.com", DisplayName: "Alice", Locale: "lv-LV", TimeZone: "Europe/Riga",
		Bio: "a & b <c>", Website: "https://a.example", Verified: true,
		BirthYear: 1985, AvatarURL: "https://a.example/a.png", Phone: "+371 0000",
	}
	created, err := a.Insert(ctx, in, "")
	require.NoError(t, err)

	got, err := a.GetByID(ctx, created.ID)
	require.NoError(t, err)

	want := *in
	want.Meta = created.Meta
	got.Published, got.Updated = want.Published, want.Updated
	assert.Equal(t, &want, got)
}

func TestProxy_ReadStyle(t *testing.T) {
	ctx := context.Background()
	ts := newServer(t)
	full := proxyFor(t, ts, "a@x.com")
	plain := proxyFor(t, ts, "a@x.com", WithStyle(bean.Plain))

	p := profile.New("a@x.com")
	p.DisplayName, p.Locale, p.Bio, p.Phone = "Al", "en", "bio", "123"
	created, err := full.Insert(ctx, p, "")
	require.NoError(t, err)

	got, err := plain.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "Al", got.DisplayName)
	assert.Empty(t, got.Locale)
	assert.Empty(t, got.Bio)
	assert.Empty(t, got.Phone)
	assert.Equal(t, created.Token, got.Token, "metadata is always present")
}

func TestProxy_GetListsOwnRecords(t *testing.T) {
	ctx := context.Background()
	ts := newServer(t)
	a := proxyFor(t, ts, "a@x.com", WithCompression(transport.LZ4))
	b := proxyFor(t, ts, "b@x.com", WithCompression(transport.Zstd))

	var mine []uuid.UUID
	for i := 0; i < 3; i++ {
		p, err := a.Insert(ctx, profile.New("a@x.com"), "")
		require.NoError(t, err)
		mine = append(mine, p.ID)
	}
	theirs, err := b.Insert(ctx, profile.New("b@x.com"), "")
	require.NoError(t, err)

	got, err := a.Get(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, p := range got {
		assert.Equal(t, mine[i], p.ID)
		assert.False(t, p.Token.IsZero())
	}

	got, err = a.Get(ctx, Query{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine[2], got[0].ID)

	got, err = a.Get(ctx, Query{ID: theirs.ID})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = a.GetByID(ctx, theirs.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProxy_Unauthenticated(t *testing.T) {
	ctx := context.Background()
	ts := newServer(t)
	anon := proxyFor(t, ts, "")
	p := profile.New("a@x.com")
	p.ID = uuid.New()
	p.Token = "t"

	_, err := anon.Get(ctx, Query{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = anon.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = anon.Insert(ctx, p, "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = anon.Update(ctx, p)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.ErrorIs(t, anon.Delete(ctx, p.ID, p.Token), common.ErrorUnauthorized)
	_, err = anon.InsertBatch(ctx, []*profile.Profile{p})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	expired, err := auth.GenerateToken("a@x.com", secret, -time.Minute)
	require.NoError(t, err)
	_, err = proxyFor(t, ts, "", WithBearerToken(expired)).Get(ctx, Query{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestProxy_Slug(t *testing.T) {
	ctx := context.Background()
	a := proxyFor(t, newServer(t), "a@x.com")
	id := uuid.New()

	p, err := a.Insert(ctx, profile.New("a@x.com"), id.String())
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)

	_, err = a.Insert(ctx, profile.New("a@x.com"), id.String())
	assert.ErrorIs(t, err, common.ErrPreconditionFailed)

	_, err = a.Insert(ctx, profile.New("a@x.com"), "not-an-id")
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
}

func TestProxy_DeleteNeedsToken(t *testing.T) {
	ctx := context.Background()
	a := proxyFor(t, newServer(t), "a@x.com")

	p, err := a.Insert(ctx, profile.New("a@x.com"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, a.Delete(ctx, p.ID, ""), common.ErrMalformedRequest)
	assert.ErrorIs(t, a.Delete(ctx, uuid.New(), p.Token), common.ErrorNotFound)
}

func TestProxy_UpdateUnsavedIsRejectedLocally(t *testing.T) {
	a := New[*profile.Profile]("http://127.0.0.1:1/api/profiles", profile.Codec{})
	_, err := a.Update(context.Background(), profile.New("a@x.com"))
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
}

func TestProxy_TransportFailureIsInternal(t *testing.T) {
	ts := newServer(t)
	a := proxyFor(t, ts, "a@x.com")
	ts.Close()

	_, err := a.Get(context.Background(), Query{})
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func batchInput() []*profile.Profile {
	return []*profile.Profile{
		profile.New("a@x.com"),
		profile.New("b@x.com"),
		profile.New("a@x.com"),
	}
}

func checkBatch(t *testing.T, results []Result[*profile.Profile], err error) {
	t.Helper()
	assert.ErrorIs(t, err, ErrPartialBatch)
	assert.ErrorIs(t, err, common.ErrForbidden)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.True(t, results[0].Bean.Assigned())
	assert.False(t, results[0].Bean.Token.IsZero())

	assert.ErrorIs(t, results[1].Err, common.ErrForbidden)

	assert.NoError(t, results[2].Err)
	assert.NotEqual(t, results[0].Bean.ID, results[2].Bean.ID)
}

func TestProxy_InsertBatch(t *testing.T) {
	ctx := context.Background()
	a := proxyFor(t, newServer(t), "a@x.com")

	results, err := a.InsertBatch(ctx, batchInput())
	checkBatch(t, results, err)

	all, err := a.Get(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProxy_InsertEach(t *testing.T) {
	ctx := context.Background()
	a := proxyFor(t, newServer(t), "a@x.com", WithParallelism(2))

	results, err := a.InsertEach(ctx, batchInput())
	checkBatch(t, results, err)
}

func TestProxy_BatchAllSucceed(t *testing.T) {
	ctx := context.Background()
	a := proxyFor(t, newServer(t), "a@x.com")
	in := []*profile.Profile{profile.New("a@x.com"), profile.New("a@x.com")}

	results, err := a.InsertBatch(ctx, in)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = a.InsertEach(ctx, in)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestErrorForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, common.ErrorUnauthorized},
		{http.StatusForbidden, common.ErrForbidden},
		{http.StatusPreconditionFailed, common.ErrPreconditionFailed},
		{http.StatusNotFound, common.ErrorNotFound},
		{http.StatusBadRequest, common.ErrMalformedRequest},
		{http.StatusRequestEntityTooLarge, common.ErrMalformedRequest},
		{http.StatusInternalServerError, common.ErrorInternal},
		{http.StatusBadGateway, common.ErrorInternal},
	}
	for _, tt := range tests {
		err := errorForStatus(tt.status, "detail")
		assert.ErrorIs(t, err, tt.want, tt.status)
		assert.Contains(t, err.Error(), "detail")
	}
	assert.Equal(t, common.ErrForbidden, errorForStatus(http.StatusForbidden, ""))
}
