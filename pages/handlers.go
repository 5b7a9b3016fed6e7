package pages

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/components"
	"github.com/motoshop/storefront/lib/client"
)

// LoginPath is where pages send visitors that need a session.
const LoginPath = components.LoginPath

// Handlers serves the site pages around a component set.
type Handlers struct {
	set    *components.Set
	logger *zap.Logger
	secure bool
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handlers) { h.logger = l }
}

// WithSecureCookies marks cookies written by pages Secure.
func WithSecureCookies(secure bool) Option {
	return func(h *Handlers) { h.secure = secure }
}

// NewHandlers returns the page handlers for set.
func NewHandlers(set *components.Set, opts ...Option) *Handlers {
	h := &Handlers{set: set, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// page renders content inside the shell.
func (h *Handlers) page(w http.ResponseWriter, r *http.Request, title string, content templ.Component) {
	header := components.Navbar(components.SignedIn(r.Context()))
	if err := storefront.Render(w, r, Shell(title, header, content)); err != nil {
		h.logger.Error("rendering page", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// List serves the catalog list.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request, _ storefront.RouteParams) {
	q := r.URL.Query()
	props := components.ListProps{ShowSold: q.Get("show_sold") == "true"}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		props.Page = n
	}
	h.page(w, r, "Motocykle", h.set.List.Defer(props, components.Loading()))
}

// Item serves the detail page of the listing named by the id param.
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request, params storefront.RouteParams) {
	props := components.ItemProps{ID: params.Get("id")}
	h.page(w, r, "Motocykl", h.set.Item.Defer(props, components.Loading()))
}

// NewListing serves the editor in create mode.
func (h *Handlers) NewListing(w http.ResponseWriter, r *http.Request, _ storefront.RouteParams) {
	if !h.requireSession(w, r) {
		return
	}
	props := components.EditProps{Type: components.PageCreate}
	h.page(w, r, "Nowe ogłoszenie", h.set.Editor.Defer(props, components.Loading()))
}

// EditListing serves the editor for the listing named by the id param.
func (h *Handlers) EditListing(w http.ResponseWriter, r *http.Request, params storefront.RouteParams) {
	if !h.requireSession(w, r) {
		return
	}
	props := components.EditProps{ID: params.Get("id"), Type: components.PageEdit}
	h.page(w, r, "Edycja ogłoszenia", h.set.Editor.Defer(props, components.Loading()))
}

// Login serves the login form. The form needs no data, so it renders inline.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request, _ storefront.RouteParams) {
	props := components.LoginProps{Next: components.SafeNext(r.URL.Query().Get("next"))}
	h.page(w, r, "Logowanie", h.set.Login.Render(r.Context(), props))
}

// Logout clears the session cookie and returns to the list.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request, _ storefront.RouteParams) {
	http.SetCookie(w, components.ClearSession(h.secure))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// NotFound serves unknown paths.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request, _ storefront.RouteParams) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	h.page(w, r, "Nie znaleziono", templ.Raw(`<h3 class="not-found">Page not found.</h3>`))
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request, _ storefront.RouteParams) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// requireSession redirects to the login page, carrying the current URL, when
// the request has no session.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if components.SignedIn(r.Context()) {
		return true
	}
	http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
	return false
}

// Session moves the session cookie into the request context, where the
// backend client and the components read it.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(components.SessionCookie); err == nil && c.Value != "" {
			r = r.WithContext(client.WithToken(r.Context(), c.Value))
		}
		next.ServeHTTP(w, r)
	})
}
