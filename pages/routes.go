package pages

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/motoshop/storefront"
)

// ComponentPath is where the registry's component routes live.
const ComponentPath = "/_c/"

// Route binds a method and a path pattern to a page. Patterns use {name}
// placeholders.
type Route struct {
	Method  string
	Pattern string
	Page    storefront.PageFunc
}

// Routes lists every page the site serves.
func (h *Handlers) Routes() []Route {
	return []Route{
		{http.MethodGet, "/", h.List},
		{http.MethodGet, "/motorcycle/{id}", h.Item},
		{http.MethodGet, "/admin/motorcycle/new", h.NewListing},
		{http.MethodGet, "/admin/motorcycle/{id}/edit", h.EditListing},
		{http.MethodGet, LoginPath, h.Login},
		{http.MethodPost, "/logout", h.Logout},
		{http.MethodGet, "/healthz", h.Healthz},
	}
}

// NewRouter builds the chi router serving the pages and the component routes
// of reg.
func NewRouter(reg *storefront.Registry, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(Session)

	for _, rt := range h.Routes() {
		r.Method(rt.Method, rt.Pattern, chiPage(rt.Page))
	}
	r.Handle(ComponentPath+"*", reg.Handler())
	r.NotFound(chiPage(h.NotFound))

	return r
}

// chiPage adapts a page to chi, handing it the matched URL params.
func chiPage(fn storefront.PageFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, RouteParams(r))
	}
}

// RouteParams returns the params chi matched for r, unescaped. chi matches
// on the raw path when the request has one, so %2F inside a segment reaches
// here escaped.
func RouteParams(r *http.Request) storefront.RouteParams {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return storefront.NewRouteParams()
	}
	kv := make([]string, 0, 2*len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		v := rctx.URLParams.Values[i]
		if r.URL.RawPath != "" {
			if u, err := url.PathUnescape(v); err == nil {
				v = u
			}
		}
		kv = append(kv, k, v)
	}
	return storefront.NewRouteParams(kv...)
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				reqID := middleware.GetReqID(r.Context())
				if reqID == "" {
					reqID = ww.Header().Get("X-Request-Id")
				}
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", reqID),
					zap.Bool("htmx", storefront.IsHTMX(r)),
				}
				if storefront.IsHTMX(r) {
					fields = append(fields,
						zap.Bool("boosted", storefront.IsBoosted(r)),
						zap.String("hx_target", storefront.TargetID(r)),
						zap.String("hx_trigger", storefront.TriggerName(r)),
					)
				}
				logger.Info("request", fields...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
