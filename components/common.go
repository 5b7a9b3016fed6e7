package components

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/a-h/templ"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/lib/endpoint"
)

// Error classes shown by ErrorNotice.
const (
	ClassNotFound    = "not-found"
	ClassIncomplete  = "incomplete"
	ClassMalformed   = "malformed"
	ClassNetwork     = "network"
	ClassUnavailable = "unavailable"
	ClassBadRequest  = "bad-request"
)

// Loading is the indicator shown while a view waits for its data.
func Loading() templ.Component {
	return fragment(`<h3 class="loading" aria-busy="true">Loading...</h3>`)
}

// Classify names the kind of failure for display.
func Classify(err error) string {
	var he *storefront.HTTPError
	switch {
	case storefront.IsNotFound(err):
		return ClassNotFound
	case storefront.IsMissingField(err):
		return ClassIncomplete
	case errors.Is(err, storefront.ErrMalformedResponse):
		return ClassMalformed
	case errors.Is(err, storefront.ErrNetwork):
		return ClassNetwork
	case errors.Is(err, endpoint.ErrMissingParam):
		return ClassBadRequest
	case errors.As(err, &he) && he.Status < http.StatusInternalServerError:
		return ClassBadRequest
	}
	return ClassUnavailable
}

// describe returns the user-facing message for err.
func describe(err error) string {
	switch Classify(err) {
	case ClassNotFound:
		return "This motorcycle is no longer listed."
	case ClassIncomplete:
		var mf *storefront.MissingFieldError
		if errors.As(err, &mf) {
			return fmt.Sprintf("This listing is incomplete (no %s).", mf.Field)
		}
		return "This listing is incomplete."
	case ClassMalformed:
		return "The catalog sent a response we could not read."
	case ClassNetwork:
		return "The catalog could not be reached."
	case ClassBadRequest:
		return "This listing could not be requested."
	}
	var he *storefront.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("The catalog is unavailable (HTTP %d).", he.Status)
	}
	return "The catalog is unavailable."
}

// ErrorNotice renders a failed view. When retry is non-nil a button re-issues
// the request described by its attributes and swaps the result in place of
// the closest element with class target.
func ErrorNotice(err error, retry templ.Attributes, target string) templ.Component {
	var button any
	if retry != nil {
		button = fragment(`<button type="button" class="retry-btn"`,
			attrs(merge(retry, templ.Attributes{
				"hx-target": "closest ." + target,
				"hx-swap":   "outerHTML",
			})),
			`>Try again</button>`)
	}
	return fragment(
		`<div class="alert alert-error" role="alert"`, attrs(templ.Attributes{"data-error-class": Classify(err)}), `>`,
		`<p class="error-message">`, text(describe(err)), `</p>`,
		button,
		`</div>`,
	)
}

// Navbar is the site header. Signed-in users get the editor links.
func Navbar(signedIn bool) templ.Component {
	var session any = `<li><a class="nav-link" href="/login">Log in</a></li>`
	if signedIn {
		session = fragment(
			`<li><a class="nav-link" href="/admin/motorcycle/new">Add listing</a></li>`,
			`<li><form method="post" action="/logout"><button type="submit" class="nav-link">Log out</button></form></li>`,
		)
	}
	return fragment(
		`<nav class="navbar"><a class="navbar-brand" href="/">Motoshop</a><ul class="navbar-nav">`,
		`<li><a class="nav-link" href="/">Motocykle</a></li>`,
		session,
		`</ul></nav>`,
	)
}
