package proxy

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
)

type options struct {
	client       *http.Client
	bearer       string
	headers      map[string]string
	encoding     transport.Encoding
	style        bean.Style
	parallelism  int
	maxBodyBytes int64
}

func defaultOptions() options {
	return options{
		client:       &http.Client{Timeout: 30 * time.Second},
		headers:      map[string]string{},
		encoding:     transport.Identity,
		style:        bean.Full,
		parallelism:  4,
		maxBodyBytes: 16 << 20,
	}
}

// Option configures a Proxy.
type Option func(*options)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithBearerToken authenticates every request with token.
func WithBearerToken(token string) Option {
	return func(o *options) { o.bearer = token }
}

// WithHeader sets a header on every request.
func WithHeader(name, value string) Option {
	return func(o *options) { o.headers[name] = value }
}

// WithCompression compresses request bodies with enc.
func WithCompression(enc transport.Encoding) Option {
	return func(o *options) { o.encoding = enc }
}

// WithStyle sets the style records are read at. Writes always send Full.
func WithStyle(s bean.Style) Option {
	return func(o *options) { o.style = s }
}

// WithParallelism bounds the concurrent requests of InsertEach.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithMaxBodyBytes bounds decoded response bodies. Zero disables the bound.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}
