// Package rest exposes record types over HTTP with gin. Each Resource maps
// one SAO onto entry and feed documents.
package rest

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
	"github.com/dmitrijs2005/beanfeed/internal/logging"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/dmitrijs2005/beanfeed/internal/server/sao"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Resource serves one record type under a path such as /api/profiles.
type Resource[B bean.Bean] struct {
	kind      string
	sao       sao.SAO[B]
	codec     bean.Codec[B]
	transport Transport
	logger    logging.Logger
}

func NewResource[B bean.Bean](kind string, s sao.SAO[B], codec bean.Codec[B], t Transport, logger logging.Logger) *Resource[B] {
	return &Resource[B]{
		kind:      kind,
		sao:       s,
		codec:     codec,
		transport: t,
		logger:    logger.With("module", "rest", "kind", kind),
	}
}

// Register adds the resource routes to g.
func (r *Resource[B]) Register(g gin.IRoutes) {
	g.GET("", r.list)
	g.POST("", r.insert)
	g.POST("/batch", r.batch)
	g.GET("/:id", r.get)
	g.PUT("/:id", r.update)
	g.DELETE("/:id", r.delete)
}

func principal(c *gin.Context) *auth.Principal {
	return auth.FromContext(c.Request.Context())
}

// begin resolves the caller and the requested style. Anonymous callers are
// turned away before anything in the request is parsed. A style parameter
// that is present must name a style; only an absent one means plain.
func (r *Resource[B]) begin(c *gin.Context) (*auth.Principal, bean.Style, bool) {
	p := principal(c)
	if p == nil {
		r.transport.writeError(c, common.ErrorUnauthorized)
		return nil, bean.Plain, false
	}
	v, present := c.GetQuery(common.StyleQueryParam)
	if present && v == "" {
		r.transport.writeError(c, fmt.Errorf("%w: empty %s parameter", common.ErrMalformedRequest, common.StyleQueryParam))
		return nil, bean.Plain, false
	}
	style, err := bean.ParseStyle(v)
	if err != nil {
		r.transport.writeError(c, err)
		return nil, bean.Plain, false
	}
	return p, style, true
}

func (r *Resource[B]) feedID() string {
	return "urn:beanfeed:" + r.kind
}

func (r *Resource[B]) list(c *gin.Context) {
	p, style, ok := r.begin(c)
	if !ok {
		return
	}
	q, err := parseQuery(c)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	items, err := r.sao.Get(c.Request.Context(), p, q)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	entries := make([]*feed.Entry, 0, len(items))
	for _, b := range items {
		entries = append(entries, r.codec.Encode(b, false, style))
	}
	f := feed.Assemble(entries)
	f.ID = r.feedID()
	f.Title = r.kind

	if err := r.transport.writeFeed(c, http.StatusOK, f); err != nil {
		r.transport.writeError(c, fmt.Errorf("%w: %w", common.ErrorInternal, err))
	}
}

func (r *Resource[B]) get(c *gin.Context) {
	p, style, ok := r.begin(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	items, err := r.sao.Get(c.Request.Context(), p, sao.Query{ID: id, Limit: 1})
	if err != nil {
		r.transport.writeError(c, err)
		return
	}
	if len(items) == 0 {
		r.transport.writeError(c, common.ErrorNotFound)
		return
	}

	r.respond(c, http.StatusOK, items[0], style)
}

func (r *Resource[B]) insert(c *gin.Context) {
	p, style, ok := r.begin(c)
	if !ok {
		return
	}
	e, err := r.readEntry(c)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	created, err := r.sao.Insert(c.Request.Context(), p, r.codec.Decode(e), c.GetHeader(common.SlugHeaderName))
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	c.Header("Location", c.Request.URL.Path+"/"+created.Metadata().ID.String())
	r.respond(c, http.StatusCreated, created, style)
}

func (r *Resource[B]) update(c *gin.Context) {
	p, style, ok := r.begin(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}
	e, err := r.readEntry(c)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	b := r.codec.Decode(e)
	meta := b.Metadata()
	switch {
	case !meta.Assigned():
		meta.ID = id
	case meta.ID != id:
		r.transport.writeError(c, fmt.Errorf("%w: entry id %s does not match %s", common.ErrMalformedRequest, meta.ID, id))
		return
	}
	if v := c.GetHeader(common.IfMatchHeaderName); v != "" {
		meta.Token = bean.ParseETag(v)
	}

	updated, err := r.sao.Update(c.Request.Context(), p, b)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}
	r.respond(c, http.StatusOK, updated, style)
}

func (r *Resource[B]) delete(c *gin.Context) {
	p := principal(c)
	if p == nil {
		r.transport.writeError(c, common.ErrorUnauthorized)
		return
	}
	id, err := pathID(c)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	// a missing If-Match surfaces as MalformedRequest once ownership is settled
	token := bean.ParseETag(c.GetHeader(common.IfMatchHeaderName))
	if err := r.sao.Delete(c.Request.Context(), p, id, token); err != nil {
		r.transport.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// batch inserts every entry of a feed and answers with one outcome entry
// per input entry, in input order.
func (r *Resource[B]) batch(c *gin.Context) {
	p, style, ok := r.begin(c)
	if !ok {
		return
	}

	body, err := r.transport.readBody(c)
	if err != nil {
		r.transport.writeError(c, err)
		return
	}
	in, err := feed.ReadFeed(bytes.NewReader(body))
	if err != nil {
		r.transport.writeError(c, err)
		return
	}

	out := make([]*feed.Entry, 0, len(in.Entries))
	failed := 0
	for _, e := range in.Entries {
		created, err := r.sao.Insert(c.Request.Context(), p, r.codec.Decode(e), e.ID)
		if err != nil {
			failed++
			out = append(out, &feed.Entry{Status: StatusOf(err), Error: messageOf(err)})
			continue
		}
		oe := r.codec.Encode(created, false, style)
		oe.Status = http.StatusCreated
		out = append(out, oe)
	}
	r.logger.Info(c.Request.Context(), "batch insert", "items", len(out), "failed", failed, "principal", p.Name)

	f := feed.Assemble(out)
	f.ID = r.feedID()
	f.Title = r.kind
	if err := r.transport.writeFeed(c, http.StatusOK, f); err != nil {
		r.transport.writeError(c, fmt.Errorf("%w: %w", common.ErrorInternal, err))
	}
}

func (r *Resource[B]) respond(c *gin.Context, status int, b B, style bean.Style) {
	if err := r.transport.writeEntry(c, status, r.codec.Encode(b, true, style)); err != nil {
		r.transport.writeError(c, fmt.Errorf("%w: %w", common.ErrorInternal, err))
	}
}

func (r *Resource[B]) readEntry(c *gin.Context) (*feed.Entry, error) {
	body, err := r.transport.readBody(c)
	if err != nil {
		return nil, err
	}
	return feed.ReadEntry(bytes.NewReader(body))
}

// pathID parses the :id segment. A value that is not a record id names no
// record.
func pathID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", common.ErrorNotFound, c.Param("id"))
	}
	return id, nil
}

func parseQuery(c *gin.Context) (sao.Query, error) {
	var q sao.Query
	var err error
	if q.Limit, err = nonNegative(c, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = nonNegative(c, "offset"); err != nil {
		return q, err
	}
	if v := c.Query("id"); v != "" {
		if q.ID, err = uuid.Parse(v); err != nil {
			return q, fmt.Errorf("%w: id %q", common.ErrMalformedRequest, v)
		}
	}
	return q, nil
}

func nonNegative(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", common.ErrMalformedRequest, name)
	}
	return n, nil
}
