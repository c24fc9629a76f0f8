// Package catalog holds the shop listing state: the active filter set, its
// query-string form used both for backend calls and deep links, and the
// fetcher that turns a filter into a page of products.
package catalog

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Price bounds and paging defaults for the shop listing.
const (
	PriceFloor = 0
	PriceCeil  = 10000
	PageSize   = 12

	// DebounceDelay coalesces rapid filter edits before a fetch fires.
	DebounceDelay = 500 * time.Millisecond
)

// Sort enumerates the listing orderings. Bestseller is a mode switch served by
// a different endpoint, never an ordering parameter.
type Sort string

const (
	SortDefault    Sort = ""
	SortPriceAsc   Sort = "price_asc"
	SortPriceDesc  Sort = "price_desc"
	SortRating     Sort = "rating"
	SortBestseller Sort = "bestseller"
)

// orderingTokens maps sort keys to the backend's ordering tokens.
var orderingTokens = map[Sort]string{
	SortPriceAsc:  "price",
	SortPriceDesc: "-price",
	SortRating:    "-average_rating",
}

// Filter is the in-memory state of the shop's active filters. Construct with
// NewFilter; mutate through the setters so the page-reset and price-clamping
// invariants hold.
type Filter struct {
	Categories []string
	Options    []string
	Colors     []string
	Sizes      []string
	PriceMin   int
	PriceMax   int
	Rating     int // minimum rating, 0 means unset
	Search     string
	Sort       Sort
	Page       int
}

// NewFilter returns the default state: full price range, first page, no
// selections.
func NewFilter() Filter {
	return Filter{PriceMin: PriceFloor, PriceMax: PriceCeil, Page: 1}
}

// SetCategories replaces the selected category set and resets paging.
func (f *Filter) SetCategories(ids []string) { f.Categories = normalizeSet(ids); f.resetPage() }

// SetOptions replaces the selected option set and resets paging.
func (f *Filter) SetOptions(ids []string) { f.Options = normalizeSet(ids); f.resetPage() }

// SetColors replaces the selected color set and resets paging.
func (f *Filter) SetColors(ids []string) { f.Colors = normalizeSet(ids); f.resetPage() }

// SetSizes replaces the selected size set and resets paging.
func (f *Filter) SetSizes(ids []string) { f.Sizes = normalizeSet(ids); f.resetPage() }

// SetPriceMin clamps the lower bound into [PriceFloor, PriceCeil] and pushes
// the upper bound along when the edit crosses it.
func (f *Filter) SetPriceMin(v int) {
	v = clampPrice(v)
	f.PriceMin = v
	if f.PriceMax < v {
		f.PriceMax = v
	}
	f.resetPage()
}

// SetPriceMax clamps the upper bound and pulls the lower bound along when the
// edit crosses it.
func (f *Filter) SetPriceMax(v int) {
	v = clampPrice(v)
	f.PriceMax = v
	if f.PriceMin > v {
		f.PriceMin = v
	}
	f.resetPage()
}

// SetRating sets the minimum-rating selection; values outside 1..5 clear it.
func (f *Filter) SetRating(v int) {
	if v < 1 || v > 5 {
		v = 0
	}
	f.Rating = v
	f.resetPage()
}

// SetSearch trims and stores the free-text query.
func (f *Filter) SetSearch(q string) { f.Search = strings.TrimSpace(q); f.resetPage() }

// SetSort switches the ordering (or bestseller mode).
func (f *Filter) SetSort(s Sort) {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortRating, SortBestseller:
		f.Sort = s
	default:
		f.Sort = SortDefault
	}
	f.resetPage()
}

// SetPage moves to the given page, leaving every other field untouched.
func (f *Filter) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	f.Page = p
}

// Reset clears everything except the search text, mirroring the shop's reset
// control.
func (f *Filter) Reset() {
	search := f.Search
	*f = NewFilter()
	f.Search = search
}

func (f *Filter) resetPage() { f.Page = 1 }

// Bestseller reports whether the filter is in bestseller mode.
func (f Filter) Bestseller() bool { return f.Sort == SortBestseller }

// Values serializes the filter, emitting only non-default fields. Multi-valued
// sets join with commas under singular keys (category, option, color, size),
// matching the backend's naming. Sort keys become ordering tokens; bestseller
// stays under "sort" because it selects an endpoint, not an ordering.
func (f Filter) Values() url.Values {
	q := url.Values{}
	if len(f.Categories) > 0 {
		q.Set("category", strings.Join(f.Categories, ","))
	}
	if len(f.Options) > 0 {
		q.Set("option", strings.Join(f.Options, ","))
	}
	if len(f.Colors) > 0 {
		q.Set("color", strings.Join(f.Colors, ","))
	}
	if len(f.Sizes) > 0 {
		q.Set("size", strings.Join(f.Sizes, ","))
	}
	if f.PriceMin != PriceFloor {
		q.Set("price_min", strconv.Itoa(f.PriceMin))
	}
	if f.PriceMax != PriceCeil {
		q.Set("price_max", strconv.Itoa(f.PriceMax))
	}
	if f.Rating > 0 {
		q.Set("rating", strconv.Itoa(f.Rating))
	}
	if f.Search != "" {
		q.Set("name", f.Search)
	}
	switch {
	case f.Sort == SortBestseller:
		q.Set("sort", string(SortBestseller))
	case f.Sort != SortDefault:
		q.Set("ordering", orderingTokens[f.Sort])
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// Encode returns the canonical query string for the filter.
func (f Filter) Encode() string { return f.Values().Encode() }

// ParseQuery is the inverse of Values: fields absent from the query come back
// as defaults, never as an error. Junk values degrade to defaults so a
// hand-edited deep link cannot break the page.
func ParseQuery(q url.Values) Filter {
	f := NewFilter()
	f.Categories = splitSet(q.Get("category"))
	f.Options = splitSet(q.Get("option"))
	f.Colors = splitSet(q.Get("color"))
	f.Sizes = splitSet(q.Get("size"))
	if v, ok := parseIntParam(q.Get("price_min")); ok {
		f.PriceMin = clampPrice(v)
	}
	if v, ok := parseIntParam(q.Get("price_max")); ok {
		f.PriceMax = clampPrice(v)
	}
	if f.PriceMin > f.PriceMax {
		f.PriceMax = f.PriceMin
	}
	if v, ok := parseIntParam(q.Get("rating")); ok && v >= 1 && v <= 5 {
		f.Rating = v
	}
	// "name" is the backend's filter key; "search" is the legacy deep-link key.
	if s := strings.TrimSpace(q.Get("name")); s != "" {
		f.Search = s
	} else {
		f.Search = strings.TrimSpace(q.Get("search"))
	}
	if q.Get("sort") == string(SortBestseller) {
		f.Sort = SortBestseller
	} else {
		switch q.Get("ordering") {
		case "price":
			f.Sort = SortPriceAsc
		case "-price":
			f.Sort = SortPriceDesc
		case "-average_rating":
			f.Sort = SortRating
		}
	}
	if v, ok := parseIntParam(q.Get("page")); ok && v > 1 {
		f.Page = v
	}
	return f
}

// ParseQueryString parses a raw query string, ignoring malformed pairs.
func ParseQueryString(raw string) Filter {
	q, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return NewFilter()
	}
	return ParseQuery(q)
}

func clampPrice(v int) int {
	if v < PriceFloor {
		return PriceFloor
	}
	if v > PriceCeil {
		return PriceCeil
	}
	return v
}

func parseIntParam(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalizeSet(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func splitSet(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalizeSet(strings.Split(raw, ","))
}
