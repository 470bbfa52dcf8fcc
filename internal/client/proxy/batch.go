package proxy

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one item of a multi-insert.
type Result[B bean.Bean] struct {
	Bean B
	Err  error
}

// InsertBatch creates every record in one request. Results are in input
// order. When any item failed the error wraps ErrPartialBatch and the
// results tell which.
func (p *Proxy[B]) InsertBatch(ctx context.Context, items []B) ([]Result[B], error) {
	entries := make([]*feed.Entry, 0, len(items))
	for _, b := range items {
		entries = append(entries, p.codec.Encode(b, false, bean.Full))
	}
	var buf bytes.Buffer
	if err := feed.WriteFeed(&buf, feed.Assemble(entries)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedRequest, err)
	}

	h := http.Header{}
	h.Set("Content-Type", common.FeedContentType)
	resp, err := p.do(ctx, http.MethodPost, p.base+"/batch?"+styleParam(bean.Full), buf.Bytes(), h)
	if err != nil {
		return nil, err
	}
	f, err := feed.ReadFeed(bytes.NewReader(resp.body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if len(f.Entries) != len(items) {
		return nil, fmt.Errorf("%w: batch answered %d items for %d", common.ErrorInternal, len(f.Entries), len(items))
	}

	results := make([]Result[B], len(items))
	for i, e := range f.Entries {
		if e.Status >= 200 && e.Status <= 299 {
			results[i].Bean = p.codec.Decode(e)
			continue
		}
		results[i].Err = errorForStatus(e.Status, e.Error)
	}
	return results, summarize(results)
}

// InsertEach creates every record with its own request, running up to the
// configured parallelism at once. Results are in input order; a failed item
// does not stop the others.
func (p *Proxy[B]) InsertEach(ctx context.Context, items []B) ([]Result[B], error) {
	results := make([]Result[B], len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.parallelism)
	for i, b := range items {
		g.Go(func() error {
			created, err := p.Insert(gctx, b, "")
			results[i] = Result[B]{Bean: created, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results, summarize(results)
}

func summarize[B bean.Bean](results []Result[B]) error {
	failed := 0
	var first error
	for _, r := range results {
		if r.Err != nil {
			if first == nil {
				first = r.Err
			}
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d failed: %w", ErrPartialBatch, failed, len(results), first)
}
