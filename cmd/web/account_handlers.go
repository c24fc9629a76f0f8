package main

import (
	"errors"
	"net/http"
	"strings"

	"finitefield.org/storefront-web/internal/account"
	"finitefield.org/storefront-web/internal/backend"
)

const msgBadCredentials = "Login failed. Please check your credentials."

// LoginVM is the sign-in / sign-up page view model.
type LoginVM struct {
	Email     string
	FormError string
	// Register re-opens the page on the sign-up panel after a failed
	// registration.
	Register bool
}

// AccountVM is the account page view model.
type AccountVM struct {
	Profile account.Profile
}

// loginHandler renders the sign-in page. A signed-in visitor goes straight to
// their account.
func (a *app) loginHandler(w http.ResponseWriter, r *http.Request) {
	pd := a.newPageData(r, "Sign in")
	if pd.SignedIn {
		http.Redirect(w, r, "/account", http.StatusSeeOther)
		return
	}
	pd.Login = &LoginVM{}
	a.renderPage(w, r, pd)
}

// loginSubmitHandler exchanges the form credentials for session cookies and
// relays them to the browser.
func (a *app) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	creds := account.Credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	client, bc := a.accountFor(r)
	err := client.Login(r.Context(), creds)
	bc.Relay(w)
	if err != nil {
		// A credential failure surfaces as an expired session: the backend
		// answers 401 and the silent refresh cannot help a visitor who was
		// never signed in.
		msg := msgBadCredentials
		if !errors.Is(err, backend.ErrSessionExpired) {
			msg = errorText(err, msgBadCredentials)
		}
		vm := LoginVM{Email: creds.Email, FormError: msg}
		pd := a.newPageData(r, "Sign in")
		pd.Login = &vm
		w.WriteHeader(http.StatusUnauthorized)
		a.renderPage(w, r, pd)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// registerSubmitHandler creates the account; the backend signs the visitor in
// on success.
func (a *app) registerSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	reg := account.NewRegistration(email, r.FormValue("password"))
	if confirm := r.FormValue("confirm_password"); confirm != "" {
		reg.RePassword = confirm
	}

	client, bc := a.accountFor(r)
	err := client.Register(r.Context(), reg)
	bc.Relay(w)
	if err != nil {
		vm := LoginVM{Email: email, Register: true, FormError: errorText(err, "Registration failed.")}
		if errors.Is(err, account.ErrIncompleteRegistration) {
			vm.FormError = "Enter a valid email and matching passwords of at least 8 characters."
		}
		pd := a.newPageData(r, "Sign in")
		pd.Login = &vm
		w.WriteHeader(http.StatusUnprocessableEntity)
		a.renderPage(w, r, pd)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logoutHandler ends the session and relays the backend's cookie deletions.
func (a *app) logoutHandler(w http.ResponseWriter, r *http.Request) {
	client, bc := a.accountFor(r)
	if _, err := client.Logout(r.Context()); err != nil && !errors.Is(err, backend.ErrSessionExpired) {
		a.log.Warn().Err(err).Msg("logout")
	}
	bc.Relay(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// accountHandler renders the profile page for the signed-in visitor.
func (a *app) accountHandler(w http.ResponseWriter, r *http.Request) {
	client, bc := a.accountFor(r)
	profile, err := client.Profile(r.Context())
	bc.Relay(w)
	if err != nil {
		if errors.Is(err, backend.ErrSessionExpired) {
			a.redirectToLogin(w, r)
			return
		}
		a.log.Error().Err(err).Msg("profile")
		http.Error(w, "profile unavailable", http.StatusBadGateway)
		return
	}

	pd := a.newPageData(r, "Your account")
	pd.Account = &AccountVM{Profile: profile}
	a.renderPage(w, r, pd)
}
