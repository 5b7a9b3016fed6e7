// Package client talks to the catalog backend.
//
// Requests are built from an injected endpoint.Table. Failures are classified
// into the storefront error taxonomy: transport problems wrap ErrNetwork,
// non-2xx responses are *storefront.HTTPError, and bodies that do not decode
// into the expected shape wrap ErrMalformedResponse. The client never retries
// or caches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/catalog"
	"github.com/motoshop/storefront/lib/endpoint"
)

// RequestIDHeader carries a per-request id to the backend.
const RequestIDHeader = "X-Request-ID"

// Token is the session issued by the login endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// UploadedImage holds the stored image and thumbnail URLs.
type UploadedImage struct {
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
}

// Client is the catalog backend client.
type Client struct {
	baseURL    string
	endpoints  endpoint.Table
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, endpoints endpoint.Table, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend host the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoints returns the endpoint table in use.
func (c *Client) Endpoints() endpoint.Table {
	return c.endpoints
}

type tokenKey struct{}

// WithToken returns a context whose requests carry the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored by WithToken.
func TokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}

// request describes one backend call.
type request struct {
	method      string
	op          endpoint.Operation
	params      endpoint.Params
	query       url.Values
	body        io.Reader
	contentType string
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	path, err := c.endpoints.Resolve(req.op, req.params)
	if err != nil {
		return nil, err
	}
	if len(req.query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + req.query.Encode()
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+path, req.body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	reqID := uuid.NewString()
	hr.Header.Set(RequestIDHeader, reqID)
	hr.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		hr.Header.Set("Content-Type", req.contentType)
	}
	if tok, ok := TokenFrom(ctx); ok {
		hr.Header.Set("Authorization", "Bearer "+tok)
	}

	log := c.logger.With(
		zap.String("op", string(req.op)),
		zap.String("method", req.method),
		zap.String("path", path),
		zap.String("request_id", reqID),
	)
	start := time.Now()
	resp, err := c.httpClient.Do(hr)
	if err != nil {
		log.Debug("backend request failed", zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w: %w", req.method, path, storefront.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w: %w", req.method, path, storefront.ErrNetwork, err)
	}
	log.Debug("backend request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &storefront.HTTPError{
			Method: req.method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   truncate(string(body), 200),
		}
	}
	return body, nil
}

// Fetch resolves op with params, GETs it and decodes the JSON body into dest.
func (c *Client) Fetch(ctx context.Context, op endpoint.Operation, params endpoint.Params, dest any) error {
	body, err := c.do(ctx, request{method: http.MethodGet, op: op, params: params})
	if err != nil {
		return err
	}
	return decode(op, body, dest)
}

// GetMotorcycle loads one listing.
func (c *Client) GetMotorcycle(ctx context.Context, id string) (*catalog.Motorcycle, error) {
	var m catalog.Motorcycle
	if err := c.Fetch(ctx, endpoint.GetMotorcycle, endpoint.Params{"id": id}, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: %s: listing has no id", storefront.ErrMalformedResponse, endpoint.GetMotorcycle)
	}
	return &m, nil
}

// ListMotorcycles loads one page of listings.
func (c *Client) ListMotorcycles(ctx context.Context, q catalog.ListQuery) (*catalog.List, error) {
	q = q.Normalize()
	body, err := c.do(ctx, request{
		method: http.MethodGet,
		op:     endpoint.ListMotorcycles,
		params: endpoint.Params{"show_sold": strconv.FormatBool(q.ShowSold)},
		query: url.Values{
			"show_status": {q.Status},
			"page":        {strconv.Itoa(q.Page)},
			"limit":       {strconv.Itoa(q.Limit)},
		},
	})
	if err != nil {
		return nil, err
	}
	var list catalog.List
	if err := decode(endpoint.ListMotorcycles, body, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateMotorcycle creates a listing and returns it as stored.
func (c *Client) CreateMotorcycle(ctx context.Context, d catalog.Draft) (*catalog.Motorcycle, error) {
	return c.send(ctx, http.MethodPost, endpoint.CreateMotorcycle, nil, d)
}

// UpdateMotorcycle replaces the editable fields of a listing.
func (c *Client) UpdateMotorcycle(ctx context.Context, id string, d catalog.Draft) (*catalog.Motorcycle, error) {
	return c.send(ctx, http.MethodPut, endpoint.UpdateMotorcycle, endpoint.Params{"id": id}, d)
}

// DeleteMotorcycle removes a listing.
func (c *Client) DeleteMotorcycle(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		op:     endpoint.DeleteMotorcycle,
		params: endpoint.Params{"id": id},
	})
	return err
}

func (c *Client) send(ctx context.Context, method string, op endpoint.Operation, params endpoint.Params, d catalog.Draft) (*catalog.Motorcycle, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling body: %w", err)
	}
	body, err := c.do(ctx, request{
		method:      method,
		op:          op,
		params:      params,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	var m catalog.Motorcycle
	if err := decode(op, body, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, fmt.Errorf("%w: %s: response has no id", storefront.ErrMalformedResponse, op)
	}
	return &m, nil
}

// Login exchanges credentials for a session token (OAuth2 password form).
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	form := url.Values{"username": {username}, "password": {password}}
	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		op:          endpoint.UserLogin,
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}
	var tok Token
	if err := decode(endpoint.UserLogin, body, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s: no access token", storefront.ErrMalformedResponse, endpoint.UserLogin)
	}
	return &tok, nil
}

// UploadImage stores a product photo. The file is renamed to a random UUID
// keeping its extension.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*UploadedImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		op:          endpoint.UploadImage,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	var img UploadedImage
	if err := decode(endpoint.UploadImage, body, &img); err != nil {
		return nil, err
	}
	if img.Image == "" {
		return nil, fmt.Errorf("%w: %s: no image url", storefront.ErrMalformedResponse, endpoint.UploadImage)
	}
	return &img, nil
}

func decode(op endpoint.Operation, body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", storefront.ErrMalformedResponse, op, err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
