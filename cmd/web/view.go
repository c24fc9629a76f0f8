package main

import (
	"net/http"

	"finitefield.org/storefront-web/internal/middleware"
	"finitefield.org/storefront-web/internal/nav"
	"finitefield.org/storefront-web/internal/notify"
	"finitefield.org/storefront-web/internal/seo"
)

const brandName = "Bean Commerce"

// PageData is the shared layout view model; per-page payloads hang off the
// typed fields.
type PageData struct {
	Title       string
	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	SignedIn    bool
	CartCount   int
	SEO         seo.Meta
	JSONLD      []string
	Notices     []notify.Notice

	Home     *HomeVM
	Shop     *ShopVM
	Product  *ProductVM
	Cart     *CartVM
	Checkout *CheckoutVM
	Login    *LoginVM
	Account  *AccountVM
}

func (a *app) newPageData(r *http.Request, title string) PageData {
	pd := PageData{
		Title:       title,
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
		SignedIn:    middleware.SignedIn(r.Context()),
	}
	pd.SEO.Title = title + " | " + brandName
	pd.SEO.Canonical = absoluteURL(r)
	pd.SEO.OG.Title = pd.SEO.Title
	pd.SEO.OG.Type = "website"
	pd.SEO.Twitter.Card = "summary_large_image"
	return pd
}

func isHTMX(r *http.Request) bool { return middleware.IsHTMX(r.Context()) }

func absoluteURL(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
			scheme = fwd
		} else {
			scheme = "http"
		}
	}
	u := *r.URL
	u.Scheme = scheme
	u.Host = r.Host
	return u.String()
}
