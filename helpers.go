package storefront

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/a-h/templ"
)

// Render writes a templ component to the HTTP response.
//
// Sets Content-Type to text/html and renders with the request's context. Use
// this for pages; component handlers render through their Renderer.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// IsBoosted returns true if the request is a boosted navigation (hx-boost).
func IsBoosted(r *http.Request) bool {
	return r.Header.Get("HX-Boosted") == "true"
}

// CurrentURL returns the URL the browser is on, from HX-Current-URL.
// Empty for non-HTMX requests.
func CurrentURL(r *http.Request) string {
	return r.Header.Get("HX-Current-URL")
}

// TriggerName returns the name of the element that triggered the request.
func TriggerName(r *http.Request) string {
	return r.Header.Get("HX-Trigger-Name")
}

// TargetID returns the id of the target element.
func TargetID(r *http.Request) string {
	return r.Header.Get("HX-Target")
}

// BuildTriggerHeader builds an HX-Trigger header value.
//
//	"listing:saved", nil          -> listing:saved
//	"listing:saved", {"id": "7"}  -> {"listing:saved":{"id":"7"}}
func BuildTriggerHeader(trigger string, data map[string]any) string {
	if trigger == "" {
		return ""
	}
	if data == nil {
		return trigger
	}
	out, err := json.Marshal(map[string]any{trigger: data})
	if err != nil {
		return trigger
	}
	return string(out)
}

// AttrString renders attributes as ` key="value"` pairs in key order, for
// components that write markup by hand. Boolean true renders the bare key,
// false and nil are skipped.
func AttrString(attrs templ.Attributes) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case nil:
		case bool:
			if v {
				sb.WriteString(" " + templ.EscapeString(k))
			}
		case string:
			sb.WriteString(" " + templ.EscapeString(k) + `="` + templ.EscapeString(v) + `"`)
		default:
			sb.WriteString(" " + templ.EscapeString(k) + `="` + templ.EscapeString(fmt.Sprint(v)) + `"`)
		}
	}
	return sb.String()
}
