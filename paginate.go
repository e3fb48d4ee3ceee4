package twitter

import (
	"context"
	"iter"
	"log/slog"
	"strconv"
	"sync/atomic"
)

// Page is one decoded response of a list endpoint. Errors holds partial
// errors the API reported alongside the data.
type Page[T any] struct {
	Data     []T
	Includes Includes
	Meta     Meta
	Errors   []ErrorDetail
}

// PageOptions bounds a paginated call.
type PageOptions struct {
	// PageSize is sent as max_results, clamped to the endpoint's range.
	// Zero selects the endpoint maximum.
	PageSize int
	// Limit stops iteration after this many items. Zero means no limit.
	Limit int
	// MaxPages stops iteration after this many requests. Zero uses
	// ClientConfig.MaxPages.
	MaxPages int
}

// Pager is a lazy, finite, single-use sequence over a paginated endpoint or
// a batched lookup. Nothing is requested until iteration starts, and the next
// page is requested only once the consumer asks for more than the current page.
type Pager[T any] struct {
	ctx      context.Context
	c        *Client
	req      Request
	limit    int
	maxPages int
	batch    *batchPlan[T]
	started  atomic.Bool
}

func newPager[T any](ctx context.Context, c *Client, req Request, opts PageOptions) *Pager[T] {
	if size := req.Endpoint.clampResults(opts.PageSize); size > 0 {
		req = req.WithQuery("max_results", strconv.Itoa(size))
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}
	return &Pager[T]{ctx: ctx, c: c, req: req, limit: opts.Limit, maxPages: maxPages}
}

// Pages yields raw pages in server order. A second iteration yields
// ErrPagerConsumed. Breaking out of the loop abandons the pager; no request
// is left in flight.
func (p *Pager[T]) Pages() iter.Seq2[*Page[T], error] {
	return func(yield func(*Page[T], error) bool) {
		if !p.started.CompareAndSwap(false, true) {
			yield(nil, ErrPagerConsumed)
			return
		}

		name := p.req.Endpoint.Name
		req := p.req
		yielded := 0
		for n := 0; ; n++ {
			if p.batch != nil {
				if n >= len(p.batch.reqs) {
					return
				}
				req = p.batch.reqs[n]
			} else if n >= p.maxPages {
				slog.Debug("twitter: page cap reached",
					slog.String("endpoint", name),
					slog.Int("max_pages", p.maxPages))
				return
			}

			resp, err := p.c.do(p.ctx, req)
			if err != nil {
				yield(nil, err)
				return
			}
			page, err := decodePage[T](name, resp.Body)
			if err != nil {
				yield(nil, err)
				return
			}
			if p.batch != nil {
				page.Data = p.batch.order(n, page.Data)
			}

			done := false
			if p.limit > 0 && yielded+len(page.Data) >= p.limit {
				page.Data = page.Data[:p.limit-yielded]
				done = true
			}
			yielded += len(page.Data)
			if !yield(page, nil) || done {
				return
			}

			if p.batch != nil {
				continue
			}
			token := page.Meta.NextToken
			if token == "" {
				return
			}
			req = req.WithToken(token)
		}
	}
}

// Items yields individual items across pages in server order.
func (p *Pager[T]) Items() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range p.Pages() {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Data {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// All drains the pager. On error it returns the items collected so far.
func (p *Pager[T]) All() ([]T, error) {
	var out []T
	for item, err := range p.Items() {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
