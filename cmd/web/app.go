package main

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"finitefield.org/storefront-web/internal/account"
	"finitefield.org/storefront-web/internal/backend"
	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/catalog"
	"finitefield.org/storefront-web/internal/checkout"
	"finitefield.org/storefront-web/internal/config"
	"finitefield.org/storefront-web/internal/content"
	"finitefield.org/storefront-web/internal/middleware"
)

// app carries the process-wide dependencies of the web handlers. Per-request
// backend clients are derived from api via ForRequest so each visitor's
// cookies stay their own.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	api      *backend.Client
	markdown *content.Renderer

	// tmplCache is nil in dev mode, where templates reparse per request.
	tmplCache *template.Template
}

func newApp(cfg config.Config, log zerolog.Logger) (*app, error) {
	api, err := backend.NewClient(cfg.BackendURL, nil)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		log:      log,
		api:      api,
		markdown: content.NewRenderer(),
	}
	if !cfg.Dev {
		tc, err := a.parseTemplates()
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		a.tmplCache = tc
	}
	return a, nil
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	// Behind a trusted reverse proxy RealIP rewrites RemoteAddr from
	// X-Forwarded-For; only trusted proxies may set those headers.
	r.Use(chiMid.RealIP)
	r.Use(middleware.HTMX)
	r.Use(middleware.DetectAuth)
	r.Use(middleware.Logger(a.log))
	r.Use(chiMid.Recoverer)
	r.Use(chiMid.Compress(5))
	r.Use(chiMid.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/assets/*", http.StripPrefix("/assets", middleware.AssetsWithCache(a.cfg.PublicDir)))

	r.Get("/", a.homeHandler)
	r.Post("/inquiry", a.inquiryHandler)

	r.Get("/login", a.loginHandler)
	r.Post("/login", a.loginSubmitHandler)
	r.Post("/register", a.registerSubmitHandler)
	r.Post("/logout", a.logoutHandler)
	r.Get("/account", a.accountHandler)

	r.Route("/shop", func(r chi.Router) {
		r.Get("/", a.shopHandler)
		r.Get("/grid", a.shopGridFrag)
		r.Get("/{productID}", a.productHandler)
	})

	r.Post("/cart/add", a.cartAddHandler)
	r.Post("/wishlist/add", a.wishlistAddHandler)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", a.cartHandler)
		r.Post("/items/{itemID}/quantity", a.cartQuantityHandler)
		r.Post("/items/{itemID}/remove", a.cartRemoveHandler)
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", a.checkoutHandler)
		r.Post("/", a.checkoutSubmitHandler)
	})

	return r
}

// request-scoped clients

func (a *app) backendFor(r *http.Request) *backend.Client {
	return a.api.ForRequest(r)
}

func (a *app) catalogFor(r *http.Request) (*catalog.Fetcher, *backend.Client) {
	bc := a.backendFor(r)
	return catalog.NewFetcher(bc), bc
}

func (a *app) cartFor(r *http.Request) (*cart.Client, *backend.Client) {
	bc := a.backendFor(r)
	return cart.NewClient(bc), bc
}

func (a *app) checkoutFor(r *http.Request) (*checkout.Client, *backend.Client) {
	bc := a.backendFor(r)
	return checkout.NewClient(bc), bc
}

func (a *app) accountFor(r *http.Request) (*account.Client, *backend.Client) {
	bc := a.backendFor(r)
	return account.NewClient(bc), bc
}
