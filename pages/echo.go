package pages

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/motoshop/storefront"
	storefrontecho "github.com/motoshop/storefront/adapters/echo"
)

// NewEcho serves the same pages and component routes as NewRouter on Echo.
func NewEcho(reg *storefront.Registry, h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestID())
	e.Use(echo.WrapMiddleware(RequestLogger(h.logger)))
	e.Use(echomw.Recover())
	e.Use(echo.WrapMiddleware(Session))

	for _, rt := range h.Routes() {
		e.Add(rt.Method, storefrontecho.Path(rt.Pattern), storefrontecho.Page(rt.Page))
	}
	storefrontecho.Mount(e, reg, storefrontecho.WithPath(ComponentPath))

	notFound := storefrontecho.Page(h.NotFound)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusNotFound {
			_ = notFound(c)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	return e
}
