package graph

import (
	"context"
	"net/http"
)

// Page is one page of a Graph list endpoint
type Page[T any] struct {
	Data   []T `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type PaginateOptions[T any] struct {
	// Limit caps the number of kept items; 0 means no cap
	Limit int
	// Filter, when set, drops items for which it returns false
	Filter func(T) bool
	// OnPage is called after each page with the kept count of that page and the running total
	OnPage func(kept, total int)
}

// Paginate follows paging.next from endpoint until the pages run out or Limit is reached.
// The limit check happens before looking at paging.next, so no page beyond the one
// that fills the limit is requested. Any failed page aborts with no partial result.
func Paginate[T any](ctx context.Context, c *Client, endpoint string, params map[string]any, opts PaginateOptions[T]) ([]T, error) {
	var items []T
	req := Request{Method: http.MethodGet, Endpoint: endpoint, Params: params}

	for {
		var page Page[T]
		if err := c.DoInto(ctx, req, &page); err != nil {
			return nil, err
		}

		kept := page.Data
		if opts.Filter != nil {
			kept = nil
			for _, item := range page.Data {
				if opts.Filter(item) {
					kept = append(kept, item)
				}
			}
		}
		items = append(items, kept...)

		if opts.OnPage != nil {
			opts.OnPage(len(kept), len(items))
		}

		if opts.Limit > 0 && len(items) >= opts.Limit {
			return items[:opts.Limit], nil
		}
		if page.Paging.Next == "" {
			return items, nil
		}

		// the cursor URL carries the original params
		req = Request{Method: http.MethodGet, Endpoint: page.Paging.Next}
	}
}
