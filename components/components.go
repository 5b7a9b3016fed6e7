// Package components holds the catalog views: the listing detail page, the
// list, the listing editor and the login form. Each is a storefront component
// mounted on a Registry; pages embed them with Defer.
package components

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/motoshop/storefront"
	"github.com/motoshop/storefront/catalog"
	"github.com/motoshop/storefront/lib/client"
)

// SessionCookie holds the backend access token.
const SessionCookie = "storefront_session"

// Client is the part of the backend client the views use.
type Client interface {
	GetMotorcycle(ctx context.Context, id string) (*catalog.Motorcycle, error)
	ListMotorcycles(ctx context.Context, q catalog.ListQuery) (*catalog.List, error)
	CreateMotorcycle(ctx context.Context, d catalog.Draft) (*catalog.Motorcycle, error)
	UpdateMotorcycle(ctx context.Context, id string, d catalog.Draft) (*catalog.Motorcycle, error)
	DeleteMotorcycle(ctx context.Context, id string) error
	Login(ctx context.Context, username, password string) (*client.Token, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (*client.UploadedImage, error)
}

var _ Client = (*client.Client)(nil)

type options struct {
	logger        *zap.Logger
	secureCookies bool
	sessionTTL    time.Duration
}

// Option configures the component set.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(o *options) { o.secureCookies = secure }
}

// WithSessionTTL sets the session cookie lifetime.
func WithSessionTTL(d time.Duration) Option {
	return func(o *options) { o.sessionTTL = d }
}

// Set is every component the site mounts.
type Set struct {
	Item   *ItemPage
	List   *ItemList
	Editor *ItemEditPage
	Login  *Login
}

// NewSet builds the components around c.
func NewSet(c Client, opts ...Option) *Set {
	o := options{logger: zap.NewNop(), sessionTTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(&o)
	}
	return &Set{
		Item:   NewItemPage(c, o.logger),
		List:   NewItemList(c, o.logger),
		Editor: NewItemEditPage(c, o.logger),
		Login:  NewLogin(c, o.logger, o.secureCookies, o.sessionTTL),
	}
}

// Register mounts the set on reg.
func (s *Set) Register(reg *storefront.Registry) {
	reg.Add(s.Item, s.List, s.Editor, s.Login)
}

// SignedIn reports whether the request context carries a session token.
func SignedIn(ctx context.Context) bool {
	_, ok := client.TokenFrom(ctx)
	return ok
}

// ClearSession returns a cookie that removes the session.
func ClearSession(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// logSettle returns an OnSettle hook logging the outcome of a fetch.
func logSettle[T any](logger *zap.Logger, view, key string) func(storefront.Snapshot[T]) {
	return func(s storefront.Snapshot[T]) {
		if s.State == storefront.Failed {
			logger.Info("view failed", zap.String("view", view), zap.String("key", key), zap.Error(s.Err))
			return
		}
		logger.Debug("view loaded", zap.String("view", view), zap.String("key", key))
	}
}
