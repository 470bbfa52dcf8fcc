// Package auth resolves the caller of a request into a Principal. The
// Authorizer tries an ordered list of resolvers; the first one yielding a
// principal wins.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/beanfeed/internal/common"
)

// Principal is the identity a request acts as.
type Principal struct {
	Name string
	// Attributes carry how the principal was established, e.g. "via".
	Attributes map[string]string
}

// NewPrincipal returns a principal named name with the given attributes
// given as key/value pairs.
func NewPrincipal(name string, kv ...string) *Principal {
	p := &Principal{Name: name, Attributes: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Attributes[kv[i]] = kv[i+1]
	}
	return p
}

// Resolver inspects a request and returns a principal, or nil when the
// request carries no credentials the resolver recognises.
type Resolver func(r *http.Request) *Principal

// Authorizer resolves principals with resolvers tried in order.
type Authorizer struct {
	resolvers []Resolver
}

func NewAuthorizer(resolvers ...Resolver) *Authorizer {
	return &Authorizer{resolvers: resolvers}
}

// Resolve returns the principal of r, or nil if no resolver recognises it.
func (a *Authorizer) Resolve(r *http.Request) *Principal {
	for _, resolve := range a.resolvers {
		if p := resolve(r); p != nil {
			return p
		}
	}
	return nil
}

// BearerResolver accepts "Authorization: Bearer <jwt>" signed with secret.
// A token that fails validation resolves to no principal.
func BearerResolver(secret []byte) Resolver {
	return func(r *http.Request) *Principal {
		h := r.Header.Get(common.AuthorizationHeaderName)
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return nil
		}
		name, err := ParsePrincipal(strings.TrimSpace(token), secret)
		if err != nil || name == "" {
			return nil
		}
		return NewPrincipal(name, "via", "bearer")
	}
}

// HeaderResolver trusts the principal name carried in header. It is meant
// for deployments behind an authenticating proxy. An empty header name
// disables it.
func HeaderResolver(header string) Resolver {
	return func(r *http.Request) *Principal {
		if header == "" {
			return nil
		}
		name := strings.TrimSpace(r.Header.Get(header))
		if name == "" {
			return nil
		}
		return NewPrincipal(name, "via", "header")
	}
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal, or nil.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
