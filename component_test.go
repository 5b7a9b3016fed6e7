package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type counterProps struct {
	ID    string `msgpack:"id"`
	Count int    `msgpack:"count"`
}

type counter struct {
	*Component[counterProps]
	hydrateErr error
}

func newCounter() *counter {
	c := &counter{}
	c.Component = New[counterProps]("counter", c)
	c.Action("inc", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		p.Count++
		return OK(p).
			Flash(FlashSuccess, "bumped").
			Trigger("counter:changed", map[string]any{"count": p.Count})
	})
	c.Action("reset", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		return Redirect[counterProps]("/done")
	}).Method(http.MethodDelete)
	c.Action("fail", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		return Err(p, ErrNotFound)
	})
	c.Action("cookie", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		return OK(p).
			Header("Set-Cookie", "a=1").
			Header("Set-Cookie", "b=2").
			Status(http.StatusCreated)
	})
	c.Action("note", func(ctx context.Context, p counterProps, r *http.Request) Result[counterProps] {
		var tooLarge *http.MaxBytesError
		if err := BodyError(r); errors.As(err, &tooLarge) {
			return OK(p).Flash(FlashError, "too large")
		} else if err != nil {
			return Err(p, err)
		}
		p.Count = len(r.FormValue("note"))
		return OK(p)
	}).MaxBytes(16)
	return c
}

func (c *counter) Hydrate(ctx context.Context, p *counterProps) error {
	if c.hydrateErr != nil {
		return c.hydrateErr
	}
	if p.ID == "" {
		p.ID = "anon"
	}
	return nil
}

func (c *counter) Render(ctx context.Context, p counterProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div id="counter" data-id="%s">%d</div>`, templ.EscapeString(p.ID), p.Count)
		return err
	})
}

func newTestRegistry(t *testing.T, opts ...RegistryOption) *Registry {
	t.Helper()
	reg, err := NewRegistry(testKey, opts...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

// wired splits Wire attributes into method, path and form values.
func wired(t *testing.T, attrs templ.Attributes) (string, string, map[string]string) {
	t.Helper()
	form := map[string]string{}
	if vals, ok := attrs["hx-vals"].(string); ok {
		if err := json.Unmarshal([]byte(vals), &form); err != nil {
			t.Fatalf("hx-vals %q: %v", vals, err)
		}
	}
	for _, m := range []string{"get", "post", "put", "patch", "delete"} {
		if path, ok := attrs["hx-"+m].(string); ok {
			return strings.ToUpper(m), path, form
		}
	}
	t.Fatalf("no hx method in %v", attrs)
	return "", "", nil
}

func TestComponentPrefix(t *testing.T) {
	c := newCounter()
	if !strings.HasPrefix(c.Prefix(), "/_c/counter-") {
		t.Errorf("Prefix() = %q, want /_c/counter-<hash>", c.Prefix())
	}
	if got, want := len(c.Prefix()), len("/_c/counter-")+8; got != want {
		t.Errorf("len(Prefix()) = %d, want %d", got, want)
	}
	if c.Name() != "counter" {
		t.Errorf("Name() = %q, want counter", c.Name())
	}
	if !c.HasAction("inc") || c.HasAction("nope") {
		t.Error("HasAction() mismatch")
	}
}

func TestComponentURLWithoutRegistry(t *testing.T) {
	c := newCounter()
	if got := c.URL("", counterProps{ID: "x"}); got != c.Prefix()+"/" {
		t.Errorf("URL() = %q, want bare path without an encoder", got)
	}
}

func TestDispatchRender(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	res := TestGet(reg.Handler(), c.URL("", counterProps{ID: "a", Count: 3}))
	if !res.IsOK() {
		t.Fatalf("status = %d, body = %s", res.StatusCode, res.HTML)
	}
	if got := res.Text("#counter"); got != "3" {
		t.Errorf("count = %q, want 3", got)
	}
	if id, _ := res.Attr("#counter", "data-id"); id != "a" {
		t.Errorf("data-id = %q, want a", id)
	}
	if ct := res.GetHeader("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestDispatchRenderWithoutProps(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	res := TestGet(reg.Handler(), c.Prefix()+"/")
	if id, _ := res.Attr("#counter", "data-id"); id != "anon" {
		t.Errorf("data-id = %q, want hydrated default", id)
	}
}

func TestDispatchAction(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	method, path, form := wired(t, c.Wire("inc", counterProps{ID: "a", Count: 1}))
	if method != http.MethodPost {
		t.Fatalf("method = %s, want POST", method)
	}
	res := TestPost(reg.Handler(), path, form)
	if !res.IsOK() {
		t.Fatalf("status = %d, body = %s", res.StatusCode, res.HTML)
	}
	if got := res.Text("#counter"); got != "2" {
		t.Errorf("count = %q, want 2", got)
	}
	if !res.HasFlash(FlashSuccess, "bumped") {
		t.Errorf("flashes = %+v", res.Flashes)
	}
	if !res.HasEvent("counter:changed") {
		t.Errorf("events = %v", res.TriggeredEvents)
	}
	if got := res.GetHeader("HX-Trigger"); got != `{"counter:changed":{"count":2}}` {
		t.Errorf("HX-Trigger = %q", got)
	}
}

func TestDispatchBodyLimit(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)
	h := reg.Handler()

	method, path, form := wired(t, c.Wire("note", counterProps{ID: "a"}))
	if method != http.MethodPost || len(form) != 0 {
		t.Fatalf("method = %s, form = %v; want POST with props in the URL", method, form)
	}
	if !strings.Contains(path, "?"+PropsParam+"=") {
		t.Fatalf("path = %q, want sealed props in the query", path)
	}

	res := TestPost(h, path, map[string]string{"note": "short"})
	if got := res.Text("#counter"); got != "5" {
		t.Errorf("count = %q, want 5", got)
	}

	res = TestPost(h, path, map[string]string{"note": strings.Repeat("x", 64)})
	if !res.IsOK() {
		t.Fatalf("status = %d, body = %s", res.StatusCode, res.HTML)
	}
	if !res.HasFlash(FlashError, "too large") {
		t.Errorf("flashes = %+v", res.Flashes)
	}
	if id, _ := res.Attr("#counter", "data-id"); id != "a" {
		t.Errorf("data-id = %q, want props from the URL", id)
	}
}

func TestDispatchRedirect(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	method, path, _ := wired(t, c.Wire("reset", counterProps{ID: "a"}))
	if method != http.MethodDelete {
		t.Fatalf("method = %s, want DELETE", method)
	}
	res := TestDelete(reg.Handler(), path)
	if !res.RedirectedTo("/done") {
		t.Errorf("RedirectURL = %q, want /done", res.RedirectURL)
	}

	// Without HTMX the component answers with a plain redirect.
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	res = TestServe(c, req)
	if res.StatusCode != http.StatusSeeOther || !res.RedirectedTo("/done") {
		t.Errorf("status = %d, redirect = %q", res.StatusCode, res.RedirectURL)
	}
}

func TestDispatchErrResult(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	_, path, form := wired(t, c.Wire("fail", counterProps{}))
	res := TestPost(reg.Handler(), path, form)
	if !res.HasStatus(http.StatusNotFound) {
		t.Errorf("status = %d, want 404", res.StatusCode)
	}
}

func TestDispatchHeadersAndStatus(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	_, path, form := wired(t, c.Wire("cookie", counterProps{}))
	res := TestPost(reg.Handler(), path, form)
	if !res.HasStatus(http.StatusCreated) {
		t.Errorf("status = %d, want 201", res.StatusCode)
	}
	cookies := res.Headers.Values("Set-Cookie")
	if len(cookies) != 2 || cookies[0] != "a=1" || cookies[1] != "b=2" {
		t.Errorf("Set-Cookie = %v", cookies)
	}
}

func TestDispatchBadProps(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	tests := []struct {
		name string
		p    string
	}{
		{"garbage", "not-sealed"},
		{"bad signature", "AAAA.BBBB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := TestGet(reg.Handler(), c.Prefix()+"/?p="+tt.p)
			if !res.HasStatus(http.StatusBadRequest) {
				t.Errorf("status = %d, want 400", res.StatusCode)
			}
		})
	}
}

func TestDispatchForeignKey(t *testing.T) {
	other := newTestRegistry(t)
	oc := newCounter()
	other.Add(oc)
	sealed := oc.URL("", counterProps{ID: "a"})

	reg, err := NewRegistry([]byte("another key entirely"))
	if err != nil {
		t.Fatal(err)
	}
	c := newCounter()
	reg.Add(c)

	res := TestGet(reg.Handler(), sealed)
	if !res.HasStatus(http.StatusBadRequest) {
		t.Errorf("status = %d, want 400", res.StatusCode)
	}
}

func TestDispatchRouting(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)
	h := reg.Handler()

	if res := TestGet(h, c.Prefix()+"/missing"); !res.HasStatus(http.StatusNotFound) {
		t.Errorf("unknown action status = %d, want 404", res.StatusCode)
	}
	if res := TestGet(h, c.Prefix()+"/inc"); !res.HasStatus(http.StatusMethodNotAllowed) {
		t.Errorf("wrong method status = %d, want 405", res.StatusCode)
	}
	if res := TestPost(h, c.Prefix()+"/", nil); !res.HasStatus(http.StatusMethodNotAllowed) {
		t.Errorf("POST render status = %d, want 405", res.StatusCode)
	}
}

func TestDispatchHydrateUnauthorized(t *testing.T) {
	reg := newTestRegistry(t, WithLoginPath("/login"))
	c := newCounter()
	c.hydrateErr = ErrUnauthorized
	reg.Add(c)

	res := NewTestRequest(http.MethodGet, c.Prefix()+"/").
		WithHeader("HX-Current-URL", "http://shop.local/admin/motorcycle/7/edit").
		Execute(reg.Handler())
	want := "/login?next=%2Fadmin%2Fmotorcycle%2F7%2Fedit"
	if !res.RedirectedTo(want) {
		t.Errorf("RedirectURL = %q, want %q", res.RedirectURL, want)
	}
}

func TestDispatchHydrateError(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	c.hydrateErr = errors.New("db down")
	reg.Add(c)

	var got error
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		http.Error(w, "custom", http.StatusTeapot)
	}
	res := TestGet(reg.Handler(), c.Prefix()+"/")
	if !res.HasStatus(http.StatusTeapot) {
		t.Errorf("status = %d, want 418", res.StatusCode)
	}
	if !errors.Is(got, ErrHydrationFailed) {
		t.Errorf("OnError got %v, want ErrHydrationFailed", got)
	}
}

func TestRegistryRequiresHTMXForMutations(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	res := NewTestRequest(http.MethodPost, c.Prefix()+"/inc").
		WithHeader("HX-Request", "").
		Execute(reg.Handler())
	if !res.HasStatus(http.StatusForbidden) {
		t.Errorf("status = %d, want 403", res.StatusCode)
	}
}

func TestRegistryPrefixCollision(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Add(newCounter())

	defer func() {
		if recover() == nil {
			t.Error("Add() did not panic on a prefix collision")
		}
	}()
	reg.Add(newCounter())
}

func TestRegistryPrefixes(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)
	if got := reg.Prefixes(); len(got) != 1 || got[0] != c.Prefix() {
		t.Errorf("Prefixes() = %v", got)
	}
	if reg.Encoder() == nil {
		t.Error("Encoder() = nil")
	}
}

func TestNewRegistryEmptyKey(t *testing.T) {
	if _, err := NewRegistry(nil); err == nil {
		t.Error("NewRegistry(nil) error = nil")
	}
}

func TestSensitiveComponent(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	c.Sensitive()
	reg.Add(c)

	url := c.URL("", counterProps{ID: "secret-id", Count: 9})
	if strings.Contains(url, "secret-id") {
		t.Errorf("URL() leaks props: %s", url)
	}
	res := TestGet(reg.Handler(), url)
	if id, _ := res.Attr("#counter", "data-id"); id != "secret-id" {
		t.Errorf("data-id = %q, want secret-id", id)
	}
}

func TestDeferPlaceholder(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	loading := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h3>Loading...</h3>`)
		return err
	})
	tests := []struct {
		name    string
		comp    templ.Component
		trigger string
	}{
		{"defer", c.Defer(counterProps{ID: "a"}, loading), "load"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := TestComponent(context.Background(), tt.comp)
			if err != nil {
				t.Fatal(err)
			}
			div := res.Find("div[hx-get]")
			if div.Length() != 1 {
				t.Fatalf("placeholder not found in %s", res.HTML)
			}
			if got, _ := div.Attr("hx-trigger"); got != tt.trigger {
				t.Errorf("hx-trigger = %q, want %q", got, tt.trigger)
			}
			if got, _ := div.Attr("hx-get"); !strings.HasPrefix(got, c.Prefix()+"/?p=") {
				t.Errorf("hx-get = %q", got)
			}
			if got := strings.TrimSpace(div.Find("h3").Text()); got != "Loading..." {
				t.Errorf("placeholder text = %q", got)
			}
		})
	}
}

func TestRefreshAttrs(t *testing.T) {
	reg := newTestRegistry(t)
	c := newCounter()
	reg.Add(c)

	method, path, _ := wired(t, c.Refresh(counterProps{ID: "a"}))
	if method != http.MethodGet || !strings.HasPrefix(path, c.Prefix()+"/?p=") {
		t.Errorf("Refresh() = %s %s", method, path)
	}
}

func TestWireUnknownActionPanics(t *testing.T) {
	c := newCounter()
	defer func() {
		if recover() == nil {
			t.Error("Wire() did not panic for an unknown action")
		}
	}()
	c.Wire("nope", counterProps{})
}
