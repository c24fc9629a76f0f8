package main

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"finitefield.org/storefront-web/internal/backend"
	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/catalog"
	"finitefield.org/storefront-web/internal/notify"
	"finitefield.org/storefront-web/internal/seo"
)

// ProductVM is the product detail view model.
type ProductVM struct {
	Detail      catalog.Detail
	Images      []string
	Description template.HTML
}

// productHandler renders the product detail page.
func (a *app) productHandler(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	fetcher, bc := a.catalogFor(r)

	detail, err := fetcher.Detail(r.Context(), productID)
	bc.Relay(w)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		a.log.Error().Err(err).Str("product", productID).Msg("product detail")
		http.Error(w, "product unavailable", http.StatusBadGateway)
		return
	}

	desc, err := a.markdown.Render(detail.Description1)
	if err != nil {
		desc = template.HTML(template.HTMLEscapeString(detail.Description1))
	}

	vm := ProductVM{Detail: detail, Images: detail.Images(), Description: desc}
	pd := a.newPageData(r, detail.Name)
	pd.SEO.Description = firstLine(detail.Description1)
	image := ""
	if imgs := vm.Images; len(imgs) > 0 {
		image = imgs[0]
		pd.SEO.OG.Image = image
		pd.SEO.Twitter.Image = image
	}
	pd.JSONLD = append(pd.JSONLD, seo.JSON(seo.Product(
		detail.Name,
		pd.SEO.Description,
		pd.SEO.Canonical,
		image,
		&seo.Offer{
			Price:        detail.Price.StringFixed(2),
			Currency:     a.cfg.Currency,
			Availability: availability(detail.IsActive),
		},
	)))
	pd.Product = &vm
	a.renderPage(w, r, pd)
}

// cartAddHandler handles the add-to-cart form. htmx requests get the updated
// badge and a notice fragment; plain submissions bounce back to the product.
func (a *app) cartAddHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	req := cart.AddRequest{
		ProductID: strings.TrimSpace(r.FormValue("product_id")),
		Color:     strings.TrimSpace(r.FormValue("color")),
		Size:      strings.TrimSpace(r.FormValue("size")),
		Options:   strings.TrimSpace(r.FormValue("options")),
	}
	if q, err := strconv.Atoi(r.FormValue("quantity")); err == nil && q > 0 {
		req.Quantity = q
	}
	if req.ProductID == "" {
		http.Error(w, "missing product", http.StatusBadRequest)
		return
	}

	client, bc := a.cartFor(r)
	msg, err := client.Add(r.Context(), req)
	bc.Relay(w)
	a.respondMutation(w, r, client, msg, err, "Item added to cart")
}

// wishlistAddHandler handles the add-to-wishlist control.
func (a *app) wishlistAddHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	productID := strings.TrimSpace(r.FormValue("product_id"))
	if productID == "" {
		http.Error(w, "missing product", http.StatusBadRequest)
		return
	}

	client, bc := a.cartFor(r)
	msg, err := client.AddToWishlist(r.Context(), productID)
	bc.Relay(w)
	a.respondMutation(w, r, client, msg, err, "Item added to wishlist")
}

// respondMutation renders the shared post-mutation response: a notice plus a
// refreshed cart badge.
func (a *app) respondMutation(w http.ResponseWriter, r *http.Request, client *cart.Client, msg string, err error, fallback string) {
	if err != nil {
		if errors.Is(err, backend.ErrSessionExpired) {
			a.redirectToLogin(w, r)
			return
		}
		notice := notify.Notice{Level: notify.LevelError, Message: errorText(err, "Something went wrong")}
		w.WriteHeader(http.StatusBadGateway)
		a.renderTemplate(w, r, "frag_notice", notice)
		return
	}
	if msg == "" {
		msg = fallback
	}

	count := 0
	if c, err := client.Get(r.Context()); err == nil {
		count = len(c.Items)
	}
	a.renderFragments(w, r, []fragment{
		{name: "frag_notice", data: notify.Notice{Level: notify.LevelSuccess, Message: msg}},
		{name: "frag_cart_badge_oob", data: count},
	})
}

func (a *app) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func errorText(err error, fallback string) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func availability(active bool) string {
	if active {
		return "https://schema.org/InStock"
	}
	return "https://schema.org/OutOfStock"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	// truncate on a rune boundary so multi-byte text stays valid UTF-8
	if r := []rune(s); len(r) > 160 {
		s = string(r[:160])
	}
	return s
}
