package main

import (
	"net/http"
	"strconv"
	"strings"

	"finitefield.org/storefront-web/internal/catalog"
	"finitefield.org/storefront-web/internal/checkout"
	"finitefield.org/storefront-web/internal/notify"
	"finitefield.org/storefront-web/internal/seo"
)

// HomeVM is the landing page view model: the bestseller strip plus the
// supplier inquiry form state.
type HomeVM struct {
	Bestsellers []catalog.Product
}

// homeHandler renders the landing page.
func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	fetcher, bc := a.catalogFor(r)

	filter := catalog.NewFilter()
	filter.SetSort(catalog.SortBestseller)
	vm := HomeVM{}
	if page, err := fetcher.List(r.Context(), filter); err == nil {
		vm.Bestsellers = page.Items
	} else {
		a.log.Warn().Err(err).Msg("bestsellers")
	}
	bc.Relay(w)

	pd := a.newPageData(r, brandName)
	pd.SEO.Title = brandName
	pd.SEO.Description = "Wholesale goods, storefront prices."
	pd.JSONLD = append(pd.JSONLD,
		seo.JSON(seo.Organization(brandName, pd.SEO.Canonical, "")),
		seo.JSON(seo.WebSite(brandName, pd.SEO.Canonical, "/shop/?name=")),
	)
	pd.Home = &vm
	a.renderPage(w, r, pd)
}

// inquiryHandler submits the supplier inquiry form from the landing page.
func (a *app) inquiryHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	req := checkout.InquiryRequest{
		Item:    strings.TrimSpace(r.FormValue("item")),
		Details: strings.TrimSpace(r.FormValue("details")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
	}
	if q, err := strconv.Atoi(r.FormValue("quantity")); err == nil {
		req.Quantity = q
	}

	client, bc := a.checkoutFor(r)
	msg, err := client.SendInquiry(r.Context(), req)
	bc.Relay(w)
	if err != nil {
		notice := notify.Notice{Level: notify.LevelError, Message: errorText(err, "Inquiry could not be sent")}
		w.WriteHeader(http.StatusUnprocessableEntity)
		a.renderTemplate(w, r, "frag_notice", notice)
		return
	}
	a.renderTemplate(w, r, "frag_notice", notify.Notice{Level: notify.LevelSuccess, Message: msg})
}
