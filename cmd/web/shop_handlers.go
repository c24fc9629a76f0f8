package main

import (
	"errors"
	"net/http"

	"finitefield.org/storefront-web/internal/backend"
	"finitefield.org/storefront-web/internal/catalog"
)

// ShopVM is the listing view model: the active filter, the fetched page, and
// the canonical query string for deep links.
type ShopVM struct {
	Filter     catalog.Filter
	SortKey    string
	Query      string
	Products   []catalog.Product
	TotalCount int
	TotalPages int
	Paginated  bool
	PrevQuery  string
	NextQuery  string

	// LoadFailed switches the grid to the error state with a retry control.
	LoadFailed bool
	ErrorText  string
}

func (a *app) buildShopVM(r *http.Request) ShopVM {
	filter := catalog.ParseQuery(r.URL.Query())
	fetcher, _ := a.catalogFor(r)

	vm := ShopVM{Filter: filter, SortKey: string(filter.Sort), Query: filter.Encode()}

	page, err := fetcher.List(r.Context(), filter)
	if err != nil {
		vm.LoadFailed = true
		vm.ErrorText = "Products could not be loaded."
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			vm.ErrorText = apiErr.Message
		}
		return vm
	}

	vm.Products = page.Items
	vm.TotalCount = page.TotalCount
	vm.TotalPages = page.TotalPages()
	vm.Paginated = page.Paginated
	if page.Paginated && filter.Page > 1 {
		prev := filter
		prev.SetPage(filter.Page - 1)
		vm.PrevQuery = prev.Encode()
	}
	if page.Paginated && filter.Page < vm.TotalPages {
		next := filter
		next.SetPage(filter.Page + 1)
		vm.NextQuery = next.Encode()
	}
	return vm
}

// shopHandler renders the shop listing page.
func (a *app) shopHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.buildShopVM(r)
	pd := a.newPageData(r, "Shop")
	pd.SEO.Description = "Browse the full product catalog."
	pd.Shop = &vm
	a.renderPage(w, r, pd)
}

// shopGridFrag re-renders the product grid for htmx filter edits, pushing the
// canonical filter query into the address bar.
func (a *app) shopGridFrag(w http.ResponseWriter, r *http.Request) {
	vm := a.buildShopVM(r)
	push := "/shop/"
	if vm.Query != "" {
		push += "?" + vm.Query
	}
	w.Header().Set("HX-Push-Url", push)
	a.renderTemplate(w, r, "frag_shop_grid", &vm)
}
