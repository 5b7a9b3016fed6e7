// Package storefrontecho mounts storefront components and pages on Echo.
//
//	e := echo.New()
//	storefrontecho.Mount(e, reg)
//	e.GET("/motorcycle/:id", storefrontecho.Page(handlers.Item))
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	storefrontecho.MountGroup(g, reg)
package storefrontecho

import (
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/motoshop/storefront"
)

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	path string
}

// WithPath sets the URL path prefix for component routes.
// Defaults to "/_c/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// Mount serves the component routes of reg on e.
func Mount(e *echo.Echo, reg *storefront.Registry, opts ...Option) {
	e.Any(mountPath(opts)+"*", echo.WrapHandler(reg.Handler()))
}

// MountGroup serves the component routes of reg on g, behind the group's
// middleware.
func MountGroup(g *echo.Group, reg *storefront.Registry, opts ...Option) {
	g.Any(mountPath(opts)+"*", echo.WrapHandler(reg.Handler()))
}

func mountPath(opts []Option) string {
	o := &options{path: "/_c/"}
	for _, opt := range opts {
		opt(o)
	}
	return o.path
}

// Page adapts a page to Echo, handing it the matched path params.
func Page(fn storefront.PageFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		fn(c.Response(), c.Request(), Params(c))
		return nil
	}
}

// Params returns the path params Echo matched, unescaped. Wildcard matches
// are named "*".
func Params(c echo.Context) storefront.RouteParams {
	names := c.ParamNames()
	raw := c.Request().URL.RawPath != ""
	kv := make([]string, 0, 2*len(names))
	for _, name := range names {
		v := c.Param(name)
		if raw {
			if u, err := url.PathUnescape(v); err == nil {
				v = u
			}
		}
		kv = append(kv, name, v)
	}
	return storefront.NewRouteParams(kv...)
}

// Path converts a {name} pattern to Echo's :name syntax.
func Path(pattern string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(pattern, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(pattern[open:], '}')
		if end < 0 {
			break
		}
		b.WriteString(pattern[:open])
		b.WriteByte(':')
		b.WriteString(pattern[open+1 : open+end])
		pattern = pattern[open+end+1:]
	}
	b.WriteString(pattern)
	return b.String()
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return storefrontecho.Render(c, myTemplate())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
