package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
)

// TestResult holds a rendered response for assertions.
type TestResult struct {
	HTML            string
	StatusCode      int
	Headers         http.Header
	TriggeredEvents []string
	Flashes         []Flash
	RedirectURL     string

	doc *goquery.Document
}

// TestRender hydrates props and renders comp without any HTTP handling.
//
//	result, err := storefront.TestRender(comp, props)
//	if result.Text("h1") != "2015 Honda CB500" { ... }
func TestRender[P any](comp View[P], props P) (*TestResult, error) {
	return TestRenderWithContext(context.Background(), comp, props)
}

// TestRenderWithContext is TestRender with a caller-supplied context, for
// components reading request-scoped values.
func TestRenderWithContext[P any](ctx context.Context, comp View[P], props P) (*TestResult, error) {
	if err := comp.Hydrate(ctx, &props); err != nil {
		return nil, err
	}
	return TestComponent(ctx, comp.Render(ctx, props))
}

// TestComponent renders a bare templ component.
func TestComponent(ctx context.Context, c templ.Component) (*TestResult, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	return newTestResult(buf.String(), http.StatusOK, make(http.Header)), nil
}

// TestRequestBuilder builds a request against a component or registry
// handler. HX-Request is set by default.
//
//	result := storefront.NewTestRequest(http.MethodPost, comp.URL("save", props)).
//	    WithFormData("make", "Honda").
//	    WithContext(ctx).
//	    Execute(comp)
type TestRequestBuilder struct {
	method   string
	url      string
	formData url.Values
	headers  map[string]string
	ctx      context.Context
}

// NewTestRequest creates a request builder.
func NewTestRequest(method, url string) *TestRequestBuilder {
	return &TestRequestBuilder{
		method:   method,
		url:      url,
		formData: make(map[string][]string),
		headers:  map[string]string{"HX-Request": "true"},
		ctx:      context.Background(),
	}
}

// WithFormData adds a form value.
func (b *TestRequestBuilder) WithFormData(key, value string) *TestRequestBuilder {
	b.formData.Add(key, value)
	return b
}

// WithFormValues adds several form values.
func (b *TestRequestBuilder) WithFormValues(data map[string]string) *TestRequestBuilder {
	for k, v := range data {
		b.formData.Set(k, v)
	}
	return b
}

// WithHeader sets a header. An empty value removes it.
func (b *TestRequestBuilder) WithHeader(key, value string) *TestRequestBuilder {
	if value == "" {
		delete(b.headers, key)
		return b
	}
	b.headers[key] = value
	return b
}

// WithContext sets the request context.
func (b *TestRequestBuilder) WithContext(ctx context.Context) *TestRequestBuilder {
	b.ctx = ctx
	return b
}

// Execute runs the request against h and records the response.
func (b *TestRequestBuilder) Execute(h http.Handler) *TestResult {
	var body io.Reader = http.NoBody
	if len(b.formData) > 0 {
		body = strings.NewReader(b.formData.Encode())
	}
	req := httptest.NewRequest(b.method, b.url, body).WithContext(b.ctx)
	if len(b.formData) > 0 {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range b.headers {
		req.Header.Set(k, v)
	}
	return TestServe(h, req)
}

// TestServe runs req against h and records the response.
func TestServe(h http.Handler, req *http.Request) *TestResult {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := newTestResult(rec.Body.String(), rec.Code, rec.Header())
	res.RedirectURL = rec.Header().Get("HX-Redirect")
	if res.RedirectURL == "" && rec.Code >= 300 && rec.Code < 400 {
		res.RedirectURL = rec.Header().Get("Location")
	}
	res.TriggeredEvents = parseTriggerHeader(rec.Header().Get("HX-Trigger"))
	return res
}

// TestGet sends an HTMX GET to h.
func TestGet(h http.Handler, url string) *TestResult {
	return NewTestRequest(http.MethodGet, url).Execute(h)
}

// TestPost sends an HTMX form POST to h.
func TestPost(h http.Handler, url string, formData map[string]string) *TestResult {
	return NewTestRequest(http.MethodPost, url).WithFormValues(formData).Execute(h)
}

// TestDelete sends an HTMX DELETE to h.
func TestDelete(h http.Handler, url string) *TestResult {
	return NewTestRequest(http.MethodDelete, url).Execute(h)
}

func newTestResult(html string, status int, headers http.Header) *TestResult {
	res := &TestResult{HTML: html, StatusCode: status, Headers: headers}
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		res.doc = doc
		res.Flashes = parseFlashes(doc)
	}
	return res
}

// Find returns the elements matching selector.
func (r *TestResult) Find(selector string) *goquery.Selection {
	if r.doc == nil {
		return &goquery.Selection{}
	}
	return r.doc.Find(selector)
}

// Has reports whether any element matches selector.
func (r *TestResult) Has(selector string) bool {
	return r.Find(selector).Length() > 0
}

// Text returns the trimmed text of the elements matching selector.
func (r *TestResult) Text(selector string) string {
	return strings.TrimSpace(r.Find(selector).Text())
}

// Attr returns an attribute of the first element matching selector.
func (r *TestResult) Attr(selector, name string) (string, bool) {
	return r.Find(selector).First().Attr(name)
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// HasEvent checks if an event was triggered.
func (r *TestResult) HasEvent(event string) bool {
	for _, e := range r.TriggeredEvents {
		if e == event {
			return true
		}
	}
	return false
}

// HasFlash checks if a flash with level and message was rendered.
func (r *TestResult) HasFlash(level, message string) bool {
	for _, f := range r.Flashes {
		if f.Level == level && f.Message == message {
			return true
		}
	}
	return false
}

// HasFlashLevel checks if any flash with level was rendered.
func (r *TestResult) HasFlashLevel(level string) bool {
	for _, f := range r.Flashes {
		if f.Level == level {
			return true
		}
	}
	return false
}

// WasRedirected checks if the response was a redirect.
func (r *TestResult) WasRedirected() bool {
	return r.RedirectURL != ""
}

// RedirectedTo checks if the response redirected to url.
func (r *TestResult) RedirectedTo(url string) bool {
	return r.RedirectURL == url
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// GetHeader returns the value of a header.
func (r *TestResult) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// parseTriggerHeader returns the event names in an HX-Trigger value, which is
// either a comma-separated list or a JSON object keyed by event.
func parseTriggerHeader(trigger string) []string {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil
	}
	if strings.HasPrefix(trigger, "{") {
		var m map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trigger), &m); err != nil {
			return nil
		}
		events := make([]string, 0, len(m))
		for k := range m {
			events = append(events, k)
		}
		sort.Strings(events)
		return events
	}
	var events []string
	for _, p := range strings.Split(trigger, ",") {
		if p = strings.TrimSpace(p); p != "" {
			events = append(events, p)
		}
	}
	return events
}

func parseFlashes(doc *goquery.Document) []Flash {
	var flashes []Flash
	doc.Find(".toast").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		for _, c := range strings.Fields(class) {
			if level, ok := strings.CutPrefix(c, "toast-"); ok {
				flashes = append(flashes, Flash{Level: level, Message: strings.TrimSpace(s.Text())})
				return
			}
		}
	})
	return flashes
}

// MockHydrater wraps a component with a custom hydration function.
type MockHydrater[P any] struct {
	Component    View[P]
	HydrateFunc  func(ctx context.Context, props *P) error
	hydrateProps *P
}

// NewMockHydrater creates a MockHydrater that wraps comp.
func NewMockHydrater[P any](comp View[P], hydrateFn func(ctx context.Context, props *P) error) *MockHydrater[P] {
	return &MockHydrater[P]{Component: comp, HydrateFunc: hydrateFn}
}

// Hydrate calls the custom hydrate function.
func (m *MockHydrater[P]) Hydrate(ctx context.Context, props *P) error {
	m.hydrateProps = props
	return m.HydrateFunc(ctx, props)
}

// Render delegates to the wrapped component.
func (m *MockHydrater[P]) Render(ctx context.Context, props P) templ.Component {
	return m.Component.Render(ctx, props)
}

// LastHydratedProps returns the props from the last Hydrate call.
func (m *MockHydrater[P]) LastHydratedProps() *P {
	return m.hydrateProps
}
