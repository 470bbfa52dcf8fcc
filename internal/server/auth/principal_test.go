package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func request(headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func bearer(t *testing.T, name string, validity time.Duration) string {
	t.Helper()
	tok, err := GenerateToken(name, secret, validity)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestBearerResolver(t *testing.T) {
	resolve := BearerResolver(secret)

	p := resolve(request(map[string]string{"Authorization": bearer(t, "a@x.com", time.Hour)}))
	require.NotNil(t, p)
	assert.Equal(t, "a@x.com", p.Name)
	assert.Equal(t, "bearer", p.Attributes["via"])

	assert.Nil(t, resolve(request(nil)))
	assert.Nil(t, resolve(request(map[string]string{"Authorization": "Basic Zm9vOmJhcg=="})))
	assert.Nil(t, resolve(request(map[string]string{"Authorization": "Bearer garbage"})))
	assert.Nil(t, resolve(request(map[string]string{"Authorization": bearer(t, "a@x.com", -time.Minute)})))
}

func TestHeaderResolver(t *testing.T) {
	resolve := HeaderResolver("X-Principal")
	p := resolve(request(map[string]string{"X-Principal": " b@x.com "}))
	require.NotNil(t, p)
	assert.Equal(t, "b@x.com", p.Name)
	assert.Equal(t, "header", p.Attributes["via"])

	assert.Nil(t, resolve(request(nil)))
	assert.Nil(t, HeaderResolver("")(request(map[string]string{"X-Principal": "b@x.com"})))
}

func TestAuthorizer_TriesResolversInOrder(t *testing.T) {
	var calls []string
	named := func(tag string, p *Principal) Resolver {
		return func(*http.Request) *Principal {
			calls = append(calls, tag)
			return p
		}
	}

	a := NewAuthorizer(
		named("first", nil),
		named("second", NewPrincipal("x")),
		named("third", NewPrincipal("y")),
	)

	p := a.Resolve(request(nil))
	require.NotNil(t, p)
	assert.Equal(t, "x", p.Name)
	assert.Equal(t, []string{"first", "second"}, calls)

	assert.Nil(t, NewAuthorizer().Resolve(request(nil)))
}

func TestPrincipalContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	p := NewPrincipal("a", "via", "test", "dangling")
	ctx := WithPrincipal(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
	assert.Equal(t, map[string]string{"via": "test"}, p.Attributes)
}
