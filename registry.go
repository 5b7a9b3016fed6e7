package storefront

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry mounts components and routes their requests.
type Registry struct {
	mu         sync.RWMutex
	mux        *http.ServeMux
	encoder    *Encoder
	logger     *zap.Logger
	components map[string]Mountable

	// LoginPath is where unauthorized requests are sent. Empty disables the
	// redirect and unauthorized errors are served as 401.
	LoginPath string

	// OnError writes the response for failed component requests. The default
	// maps the error with StatusOf and logs it.
	OnError ErrorHandler
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for request errors.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(reg *Registry) { reg.logger = l }
}

// WithLoginPath sets Registry.LoginPath.
func WithLoginPath(path string) RegistryOption {
	return func(reg *Registry) { reg.LoginPath = path }
}

// NewRegistry creates a registry sealing props with key.
func NewRegistry(key []byte, opts ...RegistryOption) (*Registry, error) {
	enc, err := NewEncoder(key)
	if err != nil {
		return nil, fmt.Errorf("storefront: creating encoder: %w", err)
	}
	reg := &Registry{
		mux:        http.NewServeMux(),
		encoder:    enc,
		logger:     zap.NewNop(),
		components: make(map[string]Mountable),
	}
	for _, opt := range opts {
		opt(reg)
	}
	reg.OnError = reg.defaultOnError
	return reg, nil
}

func (reg *Registry) defaultOnError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	log := reg.logger.With(
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	if status >= http.StatusInternalServerError {
		log.Error("component request failed")
	} else {
		log.Debug("component request rejected")
	}

	if status == http.StatusUnauthorized && reg.LoginPath != "" {
		target := reg.LoginPath
		if next := CurrentURL(r); next != "" {
			if u, perr := url.Parse(next); perr == nil {
				target += "?next=" + url.QueryEscape(u.RequestURI())
			}
		}
		if IsHTMX(r) {
			w.Header().Set("HX-Redirect", target)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	http.Error(w, http.StatusText(status), status)
}

// Encoder returns the registry's props encoder.
func (reg *Registry) Encoder() *Encoder {
	return reg.encoder
}

// Add registers components. Panics on a prefix collision.
func (reg *Registry) Add(components ...Mountable) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, comp := range components {
		prefix := comp.Prefix()
		if _, exists := reg.components[prefix]; exists {
			panic(fmt.Sprintf("storefront: prefix collision for %q", prefix))
		}
		comp.attach(reg.encoder, reg.handleError, reg.logger)
		reg.components[prefix] = comp
		reg.mux.Handle(prefix+"/", comp)
		reg.logger.Debug("component mounted",
			zap.String("component", comp.Name()),
			zap.String("prefix", prefix))
	}
}

// handleError defers to OnError at call time so it can be replaced after
// components are added.
func (reg *Registry) handleError(w http.ResponseWriter, r *http.Request, err error) {
	reg.OnError(w, r, err)
}

// Prefixes returns the mounted prefixes in order.
func (reg *Registry) Prefixes() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]string, 0, len(reg.components))
	for p := range reg.components {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Handler returns the HTTP handler for component routes. Mount it at "/_c/".
//
// Mutating methods require the HX-Request header HTMX sends, which a
// cross-origin form post cannot set.
func (reg *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead && !IsHTMX(r) {
			http.Error(w, "Forbidden: HTMX request required", http.StatusForbidden)
			return
		}
		reg.mux.ServeHTTP(w, r)
	})
}
