package storefront

// Result[P] is returned from action handlers to control rendering and side
// effects.
//
// The dispatcher processes the Result after the handler returns: headers and
// status first, then either a redirect, an error through OnError, or a render
// with the result's props followed by any flashes.
//
//	// Success, re-render with updated props
//	return storefront.OK(props)
//
//	// Success with a toast
//	return storefront.OK(props).Flash(storefront.FlashSuccess, "Saved")
//
//	// Navigate elsewhere (HX-Redirect for HTMX requests)
//	return storefront.Redirect[Props]("/motorcycle/" + id)
//
//	// Broadcast an event with data
//	return storefront.OK(props).Trigger("listing:saved", map[string]any{"id": id})
type Result[P any] struct {
	props       P
	err         error
	redirect    string
	flashes     []Flash
	trigger     string
	triggerData map[string]any
	headers     map[string][]string
	status      int
	skip        bool
}

// OK creates a success result that renders with the given props.
func OK[P any](props P) Result[P] {
	return Result[P]{props: props}
}

// Err creates an error result handled by the registry's OnError.
//
// Errors a user can fix (validation problems) are better returned as OK with
// the problems in props and a flash, so the form re-renders.
func Err[P any](props P, err error) Result[P] {
	return Result[P]{props: props, err: err}
}

// Skip reports that the handler wrote its own response.
func Skip[P any]() Result[P] {
	return Result[P]{skip: true}
}

// Redirect navigates the browser to url: via HX-Redirect for HTMX requests,
// via 303 See Other otherwise.
func Redirect[P any](url string) Result[P] {
	return Result[P]{redirect: url}
}

// Flash adds a toast. Flashes are appended out-of-band after the render.
func (r Result[P]) Flash(level, message string) Result[P] {
	r.flashes = append(r.flashes, Flash{Level: level, Message: message})
	return r
}

// Trigger emits an event via the HX-Trigger header. With data the header is
// JSON and listeners receive the data as event detail.
func (r Result[P]) Trigger(event string, data ...map[string]any) Result[P] {
	r.trigger = event
	if len(data) > 0 {
		r.triggerData = data[0]
	}
	return r
}

// PushURL updates the browser URL via HX-Push-Url.
func (r Result[P]) PushURL(url string) Result[P] {
	return r.Header("HX-Push-Url", url)
}

// Header sets a response header. Set-Cookie may be added more than once.
func (r Result[P]) Header(key, value string) Result[P] {
	headers := make(map[string][]string, len(r.headers)+1)
	for k, v := range r.headers {
		headers[k] = v
	}
	if key == "Set-Cookie" {
		headers[key] = append(append([]string(nil), headers[key]...), value)
	} else {
		headers[key] = []string{value}
	}
	r.headers = headers
	return r
}

// Status sets the HTTP status code.
func (r Result[P]) Status(code int) Result[P] {
	r.status = code
	return r
}

// GetProps returns the props from the result.
func (r Result[P]) GetProps() P {
	return r.props
}

// GetErr returns the error from the result.
func (r Result[P]) GetErr() error {
	return r.err
}

// GetRedirect returns the redirect URL.
func (r Result[P]) GetRedirect() string {
	return r.redirect
}

// GetFlashes returns the flash messages.
func (r Result[P]) GetFlashes() []Flash {
	return r.flashes
}

// GetTrigger returns the trigger event name.
func (r Result[P]) GetTrigger() string {
	return r.trigger
}

// GetTriggerData returns the trigger event data.
func (r Result[P]) GetTriggerData() map[string]any {
	return r.triggerData
}

// GetHeaders returns the response headers.
func (r Result[P]) GetHeaders() map[string][]string {
	return r.headers
}

// GetStatus returns the HTTP status code (0 means not set).
func (r Result[P]) GetStatus() int {
	return r.status
}

// ShouldSkip returns whether the handler wrote its own response.
func (r Result[P]) ShouldSkip() bool {
	return r.skip
}
