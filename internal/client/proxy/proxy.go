// Package proxy is the typed client of a record resource. Every call is one
// blocking HTTP exchange; failures come back as the common sentinel errors
// the server reported.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
	"github.com/google/uuid"
)

// Query selects records for Get.
type Query struct {
	ID     uuid.UUID
	Limit  int
	Offset int
}

// Proxy talks to one resource, e.g. http://host:8080/api/profiles.
type Proxy[B bean.Bean] struct {
	base  string
	codec bean.Codec[B]
	opts  options
}

func New[B bean.Bean](baseURL string, codec bean.Codec[B], opts ...Option) *Proxy[B] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Proxy[B]{base: strings.TrimRight(baseURL, "/"), codec: codec, opts: o}
}

// Get returns the records matching q at the proxy's read style.
func (p *Proxy[B]) Get(ctx context.Context, q Query) ([]B, error) {
	params := url.Values{}
	params.Set(common.StyleQueryParam, p.opts.style.String())
	if q.ID != uuid.Nil {
		params.Set("id", q.ID.String())
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	resp, err := p.do(ctx, http.MethodGet, p.base+"?"+params.Encode(), nil, nil)
	if err != nil {
		return nil, err
	}
	f, err := feed.ReadFeed(bytes.NewReader(resp.body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	out := make([]B, 0, len(f.Entries))
	for _, e := range f.Entries {
		out = append(out, p.codec.Decode(e))
	}
	return out, nil
}

// GetByID returns one record at the proxy's read style.
func (p *Proxy[B]) GetByID(ctx context.Context, id uuid.UUID) (B, error) {
	return p.entryCall(ctx, http.MethodGet, p.itemURL(id, p.opts.style), nil, nil)
}

// Insert creates b. A non-empty slug asks for that record id.
func (p *Proxy[B]) Insert(ctx context.Context, b B, slug string) (B, error) {
	body, err := p.encode(b)
	if err != nil {
		var zero B
		return zero, err
	}
	h := http.Header{}
	if slug != "" {
		h.Set(common.SlugHeaderName, slug)
	}
	return p.entryCall(ctx, http.MethodPost, p.base+"?"+styleParam(bean.Full), body, h)
}

// Update replaces b, which must carry the token it was read with.
func (p *Proxy[B]) Update(ctx context.Context, b B) (B, error) {
	var zero B
	meta := b.Metadata()
	if !meta.Assigned() {
		return zero, fmt.Errorf("%w: record has no id", common.ErrMalformedRequest)
	}
	body, err := p.encode(b)
	if err != nil {
		return zero, err
	}
	h := http.Header{}
	if !meta.Token.IsZero() {
		h.Set(common.IfMatchHeaderName, meta.Token.ETag())
	}
	return p.entryCall(ctx, http.MethodPut, p.itemURL(meta.ID, bean.Full), body, h)
}

// Delete removes record id if it still carries token.
func (p *Proxy[B]) Delete(ctx context.Context, id uuid.UUID, token bean.Token) error {
	h := http.Header{}
	if !token.IsZero() {
		h.Set(common.IfMatchHeaderName, token.ETag())
	}
	_, err := p.do(ctx, http.MethodDelete, p.base+"/"+id.String(), nil, h)
	return err
}

func (p *Proxy[B]) itemURL(id uuid.UUID, style bean.Style) string {
	return p.base + "/" + id.String() + "?" + styleParam(style)
}

func styleParam(s bean.Style) string {
	return common.StyleQueryParam + "=" + s.String()
}

// encode renders b as a standalone entry document.
func (p *Proxy[B]) encode(b B) ([]byte, error) {
	var buf bytes.Buffer
	if err := feed.WriteEntry(&buf, p.codec.Encode(b, true, bean.Full)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedRequest, err)
	}
	return buf.Bytes(), nil
}

// entryCall performs a request answered by a single entry document.
func (p *Proxy[B]) entryCall(ctx context.Context, method, target string, body []byte, h http.Header) (B, error) {
	var zero B
	resp, err := p.do(ctx, method, target, body, h)
	if err != nil {
		return zero, err
	}
	e, err := feed.ReadEntry(bytes.NewReader(resp.body))
	if err != nil {
		return zero, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	b := p.codec.Decode(e)
	if tag := resp.header.Get(common.ETagHeaderName); tag != "" {
		b.Metadata().Token = bean.ParseETag(tag)
	}
	return b, nil
}

type response struct {
	header http.Header
	body   []byte
}

// do sends one request and returns the decoded body of a 2xx answer.
func (p *Proxy[B]) do(ctx context.Context, method, target string, body []byte, h http.Header) (*response, error) {
	var reader io.Reader
	if body != nil {
		packed, err := transport.Compress(body, p.opts.encoding)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}
		reader = bytes.NewReader(packed)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedRequest, err)
	}
	for k, vs := range h {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range p.opts.headers {
		req.Header.Set(k, v)
	}
	if p.opts.bearer != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+p.opts.bearer)
	}
	if body != nil {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", common.EntryContentType)
		}
		if p.opts.encoding != transport.Identity {
			req.Header.Set("Content-Encoding", string(p.opts.encoding))
		}
	}
	req.Header.Set("Accept-Encoding", acceptEncoding)

	res, err := p.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	defer res.Body.Close()

	enc, err := transport.ParseEncoding(res.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	r, err := transport.NewReader(res.Body, enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	defer r.Close()
	data, err := transport.ReadAll(r, p.opts.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errorForStatus(res.StatusCode, strings.TrimSpace(string(data)))
	}
	return &response{header: res.Header, body: data}, nil
}

var acceptEncoding = strings.Join([]string{
	string(transport.Zstd), string(transport.LZ4), string(transport.Gzip), string(transport.Identity),
}, ", ")
