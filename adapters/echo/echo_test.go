package storefrontecho

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/motoshop/storefront"
)

type pingProps struct {
	Name string `msgpack:"n"`
}

type ping struct {
	*storefront.Component[pingProps]
}

func (p *ping) Hydrate(ctx context.Context, props *pingProps) error { return nil }

func (p *ping) Render(ctx context.Context, props pingProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>pong "+templ.EscapeString(props.Name)+"</p>")
		return err
	})
}

func newPing() *ping {
	p := &ping{}
	p.Component = storefront.New[pingProps]("ping", p)
	return p
}

func newRegistry(t *testing.T) *storefront.Registry {
	t.Helper()
	reg, err := storefront.NewRegistry([]byte("echo-adapter-test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func serve(h http.Handler, method, target string, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMountServesComponents(t *testing.T) {
	e := echo.New()
	reg := newRegistry(t)
	p := newPing()
	reg.Add(p)
	Mount(e, reg)

	rec := serve(e, http.MethodGet, p.URL("", pingProps{Name: "echo"}), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "pong echo") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMountGroup(t *testing.T) {
	e := echo.New()
	var hits int
	g := e.Group("", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			hits++
			return next(c)
		}
	})
	reg := newRegistry(t)
	p := newPing()
	reg.Add(p)
	MountGroup(g, reg)

	rec := serve(e, http.MethodGet, p.URL("", pingProps{}), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if hits != 1 {
		t.Errorf("group middleware ran %d times, want 1", hits)
	}
}

func TestCSRFProtection(t *testing.T) {
	e := echo.New()
	Mount(e, newRegistry(t))

	// POST without HX-Request header should be forbidden
	rec := serve(e, http.MethodPost, "/_c/test/action", false)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for POST without HX-Request, got %d", rec.Code)
	}
}

func TestGETAllowed(t *testing.T) {
	e := echo.New()
	Mount(e, newRegistry(t))

	// Unknown component is a 404, not a CSRF rejection.
	rec := serve(e, http.MethodGet, "/_c/test", false)
	if rec.Code == http.StatusForbidden {
		t.Error("GET request should not require HX-Request header")
	}
}

func TestPageParams(t *testing.T) {
	e := echo.New()
	var got storefront.RouteParams
	e.GET(Path("/motorcycle/{id}/image/{n}"), Page(func(w http.ResponseWriter, r *http.Request, params storefront.RouteParams) {
		got = params
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := serve(e, http.MethodGet, "/motorcycle/7/image/2", false)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if keys := got.Keys(); len(keys) != 2 || keys[0] != "id" || keys[1] != "n" {
		t.Errorf("keys = %v", keys)
	}
	if got.Get("id") != "7" || got.Get("n") != "2" {
		t.Errorf("params = id %q n %q", got.Get("id"), got.Get("n"))
	}
}

func TestPageParamsUnescaped(t *testing.T) {
	e := echo.New()
	var got storefront.RouteParams
	e.GET(Path("/motorcycle/{id}/image/{n}"), Page(func(w http.ResponseWriter, r *http.Request, params storefront.RouteParams) {
		got = params
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := serve(e, http.MethodGet, "/motorcycle/a%2Fb/image/2", false)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.Get("id") != "a/b" || got.Get("n") != "2" {
		t.Errorf("params = id %q n %q, want a/b and 2", got.Get("id"), got.Get("n"))
	}
}

func TestPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/", "/"},
		{"/motorcycle/{id}", "/motorcycle/:id"},
		{"/admin/motorcycle/{id}/edit", "/admin/motorcycle/:id/edit"},
		{"/a/{x}/b/{y}", "/a/:x/b/:y"},
		{"/broken/{id", "/broken/{id"},
	}
	for _, tt := range tests {
		if got := Path(tt.in); got != tt.want {
			t.Errorf("Path(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Render(c, templ.Raw("<b>hi</b>")); err != nil {
		t.Fatal(err)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte("<b>hi</b>")) {
		t.Errorf("body = %q", rec.Body.String())
	}
}
