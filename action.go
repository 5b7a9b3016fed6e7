package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/a-h/templ"
)

// ActionFunc handles a named component action. The request is available for
// form values and uploads.
type ActionFunc[P any] func(ctx context.Context, props P, r *http.Request) Result[P]

// actionDef holds a registered action.
type actionDef[P any] struct {
	name     string
	method   string
	maxBytes int64
	handler  ActionFunc[P]
}

// ActionBuilder configures action registration.
//
//	c.Action("save", c.save)  // POST by default
//	c.Action("delete", c.remove).Method(http.MethodDelete)
type ActionBuilder struct {
	method   *string
	maxBytes *int64
}

// Method overrides the default POST method for an action.
func (ab *ActionBuilder) Method(m string) *ActionBuilder {
	*ab.method = m
	return ab
}

// MaxBytes caps the request body of the action at n bytes. The dispatcher
// parses the form before decoding props; a body that cannot be read is
// reported to the handler through BodyError. Props of a capped action travel
// in the URL so that a cut-off body does not lose them.
//
//	c.Action("upload", c.upload).MaxBytes(10 << 20)
func (ab *ActionBuilder) MaxBytes(n int64) *ActionBuilder {
	*ab.maxBytes = n
	return ab
}

// multipartMemory is how much of a parsed multipart body is kept in memory;
// larger files spill to disk.
const multipartMemory = 32 << 20

type bodyErrKey struct{}

// BodyError returns why the body of a MaxBytes action could not be read, or
// nil. An oversized body yields an error matching *http.MaxBytesError.
func BodyError(r *http.Request) error {
	err, _ := r.Context().Value(bodyErrKey{}).(error)
	return err
}

// limitBody caps the body of r at n bytes and parses the form. A read
// failure is stored for BodyError; values from the URL query stay available.
func limitBody(w http.ResponseWriter, r *http.Request, n int64) *http.Request {
	r.Body = http.MaxBytesReader(w, r.Body, n)
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), bodyErrKey{}, err))
}

// WireAttrs builds the HTMX attributes for a component action.
//
// For GET, props travel in the URL query string (hx-get). For other methods
// the path goes in hx-post/hx-put/hx-patch/hx-delete and props in hx-vals.
// Everything else (hx-target, hx-swap, hx-trigger) belongs to the template.
func WireAttrs(path, method, encoded string) templ.Attributes {
	attrs := templ.Attributes{}

	if method == http.MethodGet || method == "" {
		url := path
		if encoded != "" {
			url = path + "?p=" + encoded
		}
		attrs["hx-get"] = url
		return attrs
	}

	switch method {
	case http.MethodPost:
		attrs["hx-post"] = path
	case http.MethodPut:
		attrs["hx-put"] = path
	case http.MethodPatch:
		attrs["hx-patch"] = path
	case http.MethodDelete:
		attrs["hx-delete"] = path
	}
	if encoded != "" {
		data, _ := json.Marshal(map[string]string{"p": encoded})
		attrs["hx-vals"] = string(data)
	}
	return attrs
}
