package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrPageOutOfRange = errors.New("page is outside the result set")

// Page is the paginated envelope every query endpoint returns.
type Page[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// PageInfo is the navigation state derived from an envelope.
type PageInfo struct {
	HasNext      bool `json:"has_next_page"`
	HasPrevious  bool `json:"has_previous_page"`
	NextPage     int  `json:"next_page,omitempty"`
	PreviousPage int  `json:"previous_page,omitempty"`
	TotalPages   int  `json:"total_pages"`
}

// HasNext reports whether records remain after this page.
func (p Page[T]) HasNext() bool {
	return p.Page*p.PageSize < p.Total
}

// HasPrevious reports whether this is not the first page.
func (p Page[T]) HasPrevious() bool {
	return p.Page > 1
}

// Info derives the navigation state.
func (p Page[T]) Info() PageInfo {
	info := PageInfo{
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}
	if info.HasNext {
		info.NextPage = p.Page + 1
	}
	if info.HasPrevious {
		info.PreviousPage = p.Page - 1
	}
	if p.PageSize > 0 {
		info.TotalPages = (p.Total + p.PageSize - 1) / p.PageSize
	}
	return info
}

// Validate checks 0 <= (page-1)*page_size < total whenever total > 0.
func (p Page[T]) Validate() error {
	if p.Page < 1 {
		return ErrInvalidPage
	}
	if p.PageSize < 1 {
		return ErrInvalidPageSize
	}
	if p.Total > 0 {
		offset := (p.Page - 1) * p.PageSize
		if offset < 0 || offset >= p.Total {
			return fmt.Errorf("%w: page %d of %d records at size %d", ErrPageOutOfRange, p.Page, p.Total, p.PageSize)
		}
	}
	return nil
}

// UnmarshalJSON accepts data as either an array or a single object. Aggregate
// endpoints send one object, which becomes a one-element slice.
func (p *Page[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data     json.RawMessage `json:"data"`
		Total    int             `json:"total"`
		Page     int             `json:"page"`
		PageSize int             `json:"page_size"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Total, p.Page, p.PageSize = raw.Total, raw.Page, raw.PageSize
	p.Data = nil

	data := bytes.TrimSpace(raw.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		p.Data = []T{}
	case data[0] == '[':
		if err := json.Unmarshal(data, &p.Data); err != nil {
			return err
		}
	default:
		var single T
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		p.Data = []T{single}
	}
	return nil
}
