package storefront

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"
)

// Hydrater is implemented by components to complete props decoded from a
// request. Called before any handler, including the default render.
//
// Hydrate should stay cheap: a component that shows loading and failed states
// does its fetching in Render through a Controller, not here. Returning an
// error sends the request to the registry's OnError.
type Hydrater[P any] interface {
	Hydrate(ctx context.Context, props *P) error
}

// Renderer is implemented by components to produce templ output. Called for
// GET requests and after action handlers that return OK.
type Renderer[P any] interface {
	Render(ctx context.Context, props P) templ.Component
}

// View is the pair of lifecycle methods every component implements.
type View[P any] interface {
	Hydrater[P]
	Renderer[P]
}

// ErrorHandler writes the response for a failed component request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Mountable is satisfied by any type embedding *Component[P]. The registry
// uses it to route requests and hand over shared state.
type Mountable interface {
	http.Handler
	Name() string
	Prefix() string
	attach(enc *Encoder, onError ErrorHandler, logger *zap.Logger)
}
