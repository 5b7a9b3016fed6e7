package storefront

import (
	"fmt"
	"net/http"
)

// PageFunc serves a page given the params its route matched. Router adapters
// build the params from their own match.
type PageFunc func(w http.ResponseWriter, r *http.Request, params RouteParams)

// RouteParams is the ordered set of named values a router extracted from the
// request path. It is read-only once built.
type RouteParams struct {
	keys   []string
	values map[string]string
}

// NewRouteParams builds params from alternating name/value pairs. Later
// duplicates replace earlier values but keep the first position. Panics on an
// odd number of arguments.
func NewRouteParams(kv ...string) RouteParams {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("storefront: NewRouteParams needs name/value pairs, got %d values", len(kv)))
	}
	p := RouteParams{values: make(map[string]string, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		if _, seen := p.values[kv[i]]; !seen {
			p.keys = append(p.keys, kv[i])
		}
		p.values[kv[i]] = kv[i+1]
	}
	return p
}

// Get returns the value for name, or "" if absent.
func (p RouteParams) Get(name string) string {
	return p.values[name]
}

// Lookup returns the value for name and whether it was present.
func (p RouteParams) Lookup(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of params.
func (p RouteParams) Len() int {
	return len(p.keys)
}

// Keys returns the names in match order.
func (p RouteParams) Keys() []string {
	return append([]string(nil), p.keys...)
}
