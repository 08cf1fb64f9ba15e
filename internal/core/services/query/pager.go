package query

import (
	"context"
	"errors"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

var ErrNoMorePages = errors.New("no more pages")

type pagerOptions struct {
	maxPages int
	view     string
}

// PagerOption configures a Pager.
type PagerOption func(*pagerOptions)

// WithMaxPages stops the pager after n pages. Zero means no cap.
func WithMaxPages(n int) PagerOption {
	return func(o *pagerOptions) { o.maxPages = n }
}

// WithView runs the pager's requests under a logical key other than the kind.
func WithView(view string) PagerOption {
	return func(o *pagerOptions) { o.view = view }
}

// Pager walks a query forward page by page, following HasNext.
type Pager[T any] struct {
	svc     *Service
	params  domain.QueryParams
	opts    pagerOptions
	fetched int
	more    bool
}

// NewPager starts at params.Page.
func NewPager[T any](svc *Service, params domain.QueryParams, opts ...PagerOption) *Pager[T] {
	p := &Pager[T]{svc: svc, params: params, more: true}
	for _, opt := range opts {
		opt(&p.opts)
	}
	if p.params.Page < 1 {
		p.params.Page = 1
	}
	return p
}

// HasMore reports whether Next may return another page.
func (p *Pager[T]) HasMore() bool {
	if p.opts.maxPages > 0 && p.fetched >= p.opts.maxPages {
		return false
	}
	return p.more
}

// Next fetches the following page. It returns ErrNoMorePages once the
// backend reports no next page or the cap is reached.
func (p *Pager[T]) Next(ctx context.Context) (Result[T], error) {
	if !p.HasMore() {
		return Result[T]{}, ErrNoMorePages
	}
	res, err := Fetch[T](ctx, p.svc, p.opts.view, p.params)
	if err != nil {
		return Result[T]{}, err
	}
	p.fetched++
	p.more = res.Info.HasNext
	if p.more {
		p.params = p.params.WithPage(res.Info.NextPage)
	}
	return res, nil
}

// All collects the data of every remaining page.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var items []T
	for p.HasMore() {
		res, err := p.Next(ctx)
		if err != nil {
			return items, err
		}
		items = append(items, res.Page.Data...)
	}
	return items, nil
}
