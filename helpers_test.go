package storefront

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
)

func TestIsHTMX(t *testing.T) {
	tests := []struct {
		name   string
		header string
		expect bool
	}{
		{"with HX-Request true", "true", true},
		{"with HX-Request false", "false", false},
		{"without header", "", false},
		{"with other value", "yes", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("HX-Request", tt.header)
			}
			if got := IsHTMX(req); got != tt.expect {
				t.Errorf("IsHTMX() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestRequestHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Boosted", "true")
	req.Header.Set("HX-Current-URL", "http://shop.local/motorcycle/7")
	req.Header.Set("HX-Trigger-Name", "save")
	req.Header.Set("HX-Target", "editor")

	if !IsBoosted(req) {
		t.Error("IsBoosted() = false")
	}
	if got := CurrentURL(req); got != "http://shop.local/motorcycle/7" {
		t.Errorf("CurrentURL() = %q", got)
	}
	if got := TriggerName(req); got != "save" {
		t.Errorf("TriggerName() = %q", got)
	}
	if got := TargetID(req); got != "editor" {
		t.Errorf("TargetID() = %q", got)
	}
}

func TestBuildTriggerHeader(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		data    map[string]any
		want    string
	}{
		{"empty", "", nil, ""},
		{"simple", "listing:saved", nil, "listing:saved"},
		{"with data", "listing:saved", map[string]any{"id": "7"}, `{"listing:saved":{"id":"7"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildTriggerHeader(tt.trigger, tt.data); got != tt.want {
				t.Errorf("BuildTriggerHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAttrString(t *testing.T) {
	got := AttrString(templ.Attributes{
		"hx-get":     "/_c/item?p=a&b",
		"disabled":   true,
		"hidden":     false,
		"data-count": 3,
		"skip":       nil,
		"title":      `say "hi"`,
	})
	want := ` data-count="3" disabled hx-get="/_c/item?p=a&amp;b" title="say &#34;hi&#34;"`
	if got != want {
		t.Errorf("AttrString() = %q, want %q", got, want)
	}
}

func TestWireAttrs(t *testing.T) {
	tests := []struct {
		method string
		key    string
		want   string
	}{
		{http.MethodGet, "hx-get", "/_c/x/a?p=SEALED"},
		{"", "hx-get", "/_c/x/a?p=SEALED"},
		{http.MethodPost, "hx-post", "/_c/x/a"},
		{http.MethodPut, "hx-put", "/_c/x/a"},
		{http.MethodPatch, "hx-patch", "/_c/x/a"},
		{http.MethodDelete, "hx-delete", "/_c/x/a"},
	}
	for _, tt := range tests {
		attrs := WireAttrs("/_c/x/a", tt.method, "SEALED")
		if got := attrs[tt.key]; got != tt.want {
			t.Errorf("WireAttrs(%q)[%s] = %v, want %q", tt.method, tt.key, got, tt.want)
		}
		_, hasVals := attrs["hx-vals"]
		if isGet := tt.key == "hx-get"; hasVals == isGet {
			t.Errorf("WireAttrs(%q) hx-vals present = %v", tt.method, hasVals)
		}
	}
	if got := WireAttrs("/_c/x/a", http.MethodPost, "SEALED")["hx-vals"]; got != `{"p":"SEALED"}` {
		t.Errorf("hx-vals = %v", got)
	}
}
