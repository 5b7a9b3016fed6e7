package storefront

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"
)

// PropsParam is the query or form parameter carrying sealed props.
const PropsParam = "p"

// Component[P] is the base type embedded by storefront components. P is the
// props type, sealed into every URL the component produces.
//
// Components embed *Component[P] to gain action registration, URL
// generation, placeholders and an HTTP dispatcher:
//
//	type ItemPage struct {
//	    *storefront.Component[ItemProps]
//	    client Client
//	}
//
//	func NewItemPage(client Client) *ItemPage {
//	    c := &ItemPage{client: client}
//	    c.Component = storefront.New[ItemProps]("item", c)
//	    return c
//	}
//
// Each component instance receives a deterministic URL prefix derived from
// its name and the source location of New.
type Component[P any] struct {
	name      string
	prefix    string
	sensitive bool
	view      View[P]
	actions   map[string]*actionDef[P]
	encoder   *Encoder
	onError   ErrorHandler
	logger    *zap.Logger
}

// New creates a component named name whose lifecycle methods are view.
//
// By default props are signed (readable, tamper-proof). Call Sensitive to
// encrypt them instead.
func New[P any](name string, view View[P]) *Component[P] {
	return &Component[P]{
		name:    name,
		prefix:  "/_c/" + name + "-" + componentHash(name, 1),
		view:    view,
		actions: make(map[string]*actionDef[P]),
		logger:  zap.NewNop(),
	}
}

// Sensitive marks the component as sensitive, enabling full encryption of
// its props.
func (c *Component[P]) Sensitive() *Component[P] {
	c.sensitive = true
	return c
}

// Name returns the component's name.
func (c *Component[P]) Name() string {
	return c.name
}

// Prefix returns the component's URL prefix. All routes of the component are
// served under it.
func (c *Component[P]) Prefix() string {
	return c.prefix
}

// IsSensitive returns whether the component uses encrypted props.
func (c *Component[P]) IsSensitive() bool {
	return c.sensitive
}

// Action registers a named action handler, POST unless overridden:
//
//	c.Action("save", c.save)
//	c.Action("delete", c.remove).Method(http.MethodDelete)
//
// The dispatcher hydrates props before calling the handler and renders after
// it returns OK.
func (c *Component[P]) Action(name string, handler ActionFunc[P]) *ActionBuilder {
	def := &actionDef[P]{name: name, method: http.MethodPost, handler: handler}
	c.actions[name] = def
	return &ActionBuilder{method: &def.method, maxBytes: &def.maxBytes}
}

// HasAction reports whether an action with that name is registered.
func (c *Component[P]) HasAction(name string) bool {
	_, ok := c.actions[name]
	return ok
}

// Encoder returns the encoder attached by the registry.
func (c *Component[P]) Encoder() *Encoder {
	return c.encoder
}

func (c *Component[P]) attach(enc *Encoder, onError ErrorHandler, logger *zap.Logger) {
	c.encoder = enc
	c.onError = onError
	if logger != nil {
		c.logger = logger.With(zap.String("component", c.name))
	}
}

// URL returns the route of action with sealed props. The empty action is the
// default render.
func (c *Component[P]) URL(action string, props P) string {
	path, encoded := c.buildActionURL(action, props)
	if encoded == "" {
		return path
	}
	return path + "?" + PropsParam + "=" + encoded
}

// Wire returns the HTMX attributes that invoke action with props. Panics if
// the action is not registered.
//
//	<button { c.Wire("delete", props)... } hx-confirm="Delete?">Delete</button>
func (c *Component[P]) Wire(action string, props P) templ.Attributes {
	def, ok := c.actions[action]
	if !ok {
		panic(fmt.Sprintf("storefront: component %q has no action %q", c.name, action))
	}
	if def.maxBytes > 0 {
		return WireAttrs(c.URL(action, props), def.method, "")
	}
	path, encoded := c.buildActionURL(action, props)
	return WireAttrs(path, def.method, encoded)
}

// Refresh returns the attributes that re-render the component with props.
func (c *Component[P]) Refresh(props P) templ.Attributes {
	path, encoded := c.buildActionURL("", props)
	return WireAttrs(path, http.MethodGet, encoded)
}

// Defer renders placeholder and loads the component right after the page
// loads.
func (c *Component[P]) Defer(props P, placeholder templ.Component) templ.Component {
	return lazyComponent(c.URL("", props), placeholder, "load")
}

// buildActionURL returns the path of action and the sealed props. Without an
// encoder the props are dropped.
func (c *Component[P]) buildActionURL(action string, props P) (string, string) {
	path := c.prefix + "/" + action
	if c.encoder == nil {
		return path, ""
	}
	encoded, err := c.encoder.Encode(props, c.sensitive)
	if err != nil {
		c.logger.Error("encoding props", zap.String("action", action), zap.Error(err))
		return path, ""
	}
	return path, encoded
}

// ServeHTTP decodes props, hydrates them and dispatches to the default
// render (GET on the prefix) or to a registered action.
func (c *Component[P]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var def *actionDef[P]
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, c.prefix), "/")
	if path == "" {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
	} else {
		var ok bool
		if def, ok = c.actions[path]; !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != def.method {
			w.Header().Set("Allow", def.method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if def.maxBytes > 0 {
			r = limitBody(w, r, def.maxBytes)
		}
	}

	props, err := c.decode(r)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if err := c.view.Hydrate(r.Context(), &props); err != nil {
		c.fail(w, r, fmt.Errorf("%w: %w", ErrHydrationFailed, err))
		return
	}
	if def == nil {
		c.render(w, r, props, nil, 0)
		return
	}
	c.logger.Debug("action", zap.String("action", def.name))
	c.handleResult(w, r, def.handler(r.Context(), props, r))
}

func (c *Component[P]) decode(r *http.Request) (P, error) {
	var props P
	encoded := r.FormValue(PropsParam)
	if encoded == "" {
		return props, nil
	}
	if c.encoder == nil {
		return props, fmt.Errorf("component %q is not registered: %w", c.name, ErrInvalidFormat)
	}
	if err := c.encoder.Decode(encoded, c.sensitive, &props); err != nil {
		return props, wrapEncodingError(err)
	}
	return props, nil
}

func (c *Component[P]) handleResult(w http.ResponseWriter, r *http.Request, result Result[P]) {
	for k, vs := range result.GetHeaders() {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if t := BuildTriggerHeader(result.GetTrigger(), result.GetTriggerData()); t != "" {
		w.Header().Set("HX-Trigger", t)
	}
	if err := result.GetErr(); err != nil {
		c.fail(w, r, err)
		return
	}
	if redirect := result.GetRedirect(); redirect != "" {
		if IsHTMX(r) {
			w.Header().Set("HX-Redirect", redirect)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	if result.ShouldSkip() {
		return
	}
	c.render(w, r, result.GetProps(), result.GetFlashes(), result.GetStatus())
}

// render buffers the output so a failed render still reaches OnError.
func (c *Component[P]) render(w http.ResponseWriter, r *http.Request, props P, flashes []Flash, status int) {
	ctx := r.Context()
	var buf bytes.Buffer
	if err := c.view.Render(ctx, props).Render(ctx, &buf); err != nil {
		c.fail(w, r, err)
		return
	}
	if err := FlashesOOB(flashes).Render(ctx, &buf); err != nil {
		c.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != 0 {
		w.WriteHeader(status)
	}
	if _, err := buf.WriteTo(w); err != nil {
		c.logger.Debug("writing response", zap.Error(err))
	}
}

func (c *Component[P]) fail(w http.ResponseWriter, r *http.Request, err error) {
	if c.onError != nil {
		c.onError(w, r, err)
		return
	}
	http.Error(w, http.StatusText(StatusOf(err)), StatusOf(err))
}

// componentHash returns 8 hex chars derived from the name and the caller's
// file:line.
func componentHash(name string, skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	input := name
	if ok {
		input = fmt.Sprintf("%s:%d:%s", filepath.Base(file), line, name)
	}
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:4])
}

// lazyComponent renders a placeholder that replaces itself with url's
// response when trigger fires.
func lazyComponent(url string, placeholder templ.Component, trigger string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		attrs := templ.Attributes{"hx-get": url, "hx-trigger": trigger, "hx-swap": "outerHTML"}
		if _, err := io.WriteString(w, `<div`+AttrString(attrs)+`>`); err != nil {
			return err
		}
		if placeholder != nil {
			if err := placeholder.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}
