// Package storefront is the component kernel of the motorcycle catalog
// front-end: server-rendered templ components driven by HTMX.
//
// # Components
//
// A component embeds *Component[P] where P is its props type. Props hold ids
// and small flags only; they are sealed into every URL the component emits and
// decoded again when HTMX calls back.
//
//	type ItemPage struct {
//	    *storefront.Component[ItemProps]
//	    client Client
//	}
//
// Every component implements View[P]:
//   - Hydrate(ctx, *P) completes props before any handler runs
//   - Render(ctx, P) produces the templ.Component output
//
// Named actions are registered with Action and wired into markup with Wire:
//
//	c.Action("save", c.save)
//	c.Action("delete", c.remove).Method(http.MethodDelete)
//
// # Loading data
//
// A view that shows data from the backend owns a Controller. The controller
// fetches exactly once per mount and moves NotRequested -> Requesting ->
// Loaded or Failed. StateViews maps each state to markup. Unmounting revokes
// the liveness token taken at mount, so a response that arrives after the
// view went away is dropped.
//
//	ctrl := storefront.NewController(func(ctx context.Context) (*catalog.Motorcycle, error) {
//	    return c.client.GetMotorcycle(ctx, props.ID)
//	})
//	return ctrl.Await(storefront.StateViews[*catalog.Motorcycle]{...})
//
// Pages embed components with Defer so the first response carries only the
// loading indicator and the component request fills it in.
//
// # Security
//
// Props are either signed (HMAC, the default) or encrypted (AES-GCM, via
// Sensitive). Mutating requests must carry the HX-Request header.
//
// # Registration
//
//	reg, err := storefront.NewRegistry(key, storefront.WithLoginPath("/login"))
//	reg.Add(itemPage, itemList, editor)
//	mux.Handle("/_c/", reg.Handler())
//
// Errors from components reach Registry.OnError, which maps them with
// StatusOf.
package storefront
