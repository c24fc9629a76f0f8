package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
)

const (
	listEndpoint       = "products/products-list/shop/"
	bestsellerEndpoint = "products/api/bestseller/"
	detailEndpoint     = "products/details"
)

// API is the slice of the backend client the fetcher needs.
type API interface {
	Get(ctx context.Context, endpoint string, query url.Values, out any) error
}

// Page is one page of listing results. Paginated is false in bestseller mode,
// where the backend returns a flat array and the caller must suppress paging
// controls.
type Page struct {
	Items      []Product
	TotalCount int
	Paginated  bool
}

// TotalPages derives the page count from the total and the fixed page size.
func (p Page) TotalPages() int {
	if !p.Paginated || p.TotalCount <= 0 {
		return 1
	}
	return (p.TotalCount + PageSize - 1) / PageSize
}

// Fetcher loads product listings for a filter state.
type Fetcher struct {
	api API
}

// NewFetcher wires a fetcher to a backend client.
func NewFetcher(api API) *Fetcher { return &Fetcher{api: api} }

// List fetches the page of products selected by the filter. Bestseller mode
// switches to the flat bestseller endpoint and synthesizes the total count.
func (f *Fetcher) List(ctx context.Context, filter Filter) (Page, error) {
	if filter.Bestseller() {
		return f.bestsellers(ctx)
	}

	query := filter.Values()
	query.Del("sort")
	query.Set("page", fmt.Sprintf("%d", filter.Page))

	var payload struct {
		Results json.RawMessage `json:"results"`
		Count   int             `json:"count"`
	}
	if err := f.api.Get(ctx, listEndpoint, query, &payload); err != nil {
		return Page{}, err
	}
	items := decodeProducts(payload.Results)
	count := payload.Count
	if count < 0 {
		count = 0
	}
	return Page{Items: items, TotalCount: count, Paginated: true}, nil
}

func (f *Fetcher) bestsellers(ctx context.Context) (Page, error) {
	var raw json.RawMessage
	if err := f.api.Get(ctx, bestsellerEndpoint, nil, &raw); err != nil {
		return Page{}, err
	}
	items := decodeProducts(raw)
	return Page{Items: items, TotalCount: len(items), Paginated: false}, nil
}

// Detail fetches the full product payload for one product.
func (f *Fetcher) Detail(ctx context.Context, productID string) (Detail, error) {
	var out Detail
	endpoint := path.Join(detailEndpoint, url.PathEscape(productID)) + "/"
	if err := f.api.Get(ctx, endpoint, nil, &out); err != nil {
		return Detail{}, err
	}
	return out, nil
}

// decodeProducts tolerates a missing, null, or non-array results field and
// normalizes all of those to an empty list.
func decodeProducts(raw json.RawMessage) []Product {
	if len(raw) == 0 {
		return []Product{}
	}
	var items []Product
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []Product{}
	}
	return items
}
