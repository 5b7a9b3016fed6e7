package components

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/motoshop/storefront"
)

// LoginProps carries where to go after signing in.
type LoginProps struct {
	Next string `msgpack:"next"`

	Username string `msgpack:"-"`
}

// Login is the sign-in form. A successful login stores the access token in
// an HttpOnly cookie.
type Login struct {
	*storefront.Component[LoginProps]
	client Client
	logger *zap.Logger
	secure bool
	ttl    time.Duration
}

// NewLogin creates the sign-in form.
func NewLogin(c Client, logger *zap.Logger, secure bool, ttl time.Duration) *Login {
	l := &Login{client: c, logger: logger, secure: secure, ttl: ttl}
	l.Component = storefront.New[LoginProps]("login", l)
	l.Action("submit", l.submit)
	return l
}

// Hydrate drops redirect targets outside the site.
func (c *Login) Hydrate(ctx context.Context, props *LoginProps) error {
	props.Next = SafeNext(props.Next)
	return nil
}

// Render shows the form.
func (c *Login) Render(ctx context.Context, props LoginProps) templ.Component {
	return fragment(
		`<div class="login">`,
		`<h3>Log in</h3>`,
		`<form`, attrs(merge(c.Wire("submit", props), templ.Attributes{
			"class":     "login-form",
			"hx-target": "closest .login",
			"hx-swap":   "outerHTML",
		})), `>`,
		`<div class="field"><label for="username">Username</label><input`,
		attrs(templ.Attributes{"id": "username", "name": "username", "type": "text", "autocomplete": "username", "value": props.Username}), `></div>`,
		`<div class="field"><label for="password">Password</label>`,
		`<input id="password" name="password" type="password" autocomplete="current-password"></div>`,
		`<button type="submit" class="normal-btn">Log in</button>`,
		`</form></div>`,
	)
}

func (c *Login) submit(ctx context.Context, props LoginProps, r *http.Request) storefront.Result[LoginProps] {
	props.Username = strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if props.Username == "" || password == "" {
		return storefront.OK(props).Flash(storefront.FlashError, "Enter your username and password.")
	}

	tok, err := c.client.Login(ctx, props.Username, password)
	if err != nil {
		if rejectedCredentials(err) {
			return storefront.OK(props).Flash(storefront.FlashError, "Invalid username or password.")
		}
		c.logger.Warn("login failed", zap.Error(err))
		return storefront.OK(props).Flash(storefront.FlashError, "Logging in is unavailable right now.")
	}

	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    tok.AccessToken,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
	c.logger.Info("signed in", zap.String("user", props.Username))
	return storefront.Redirect[LoginProps](props.Next).Header("Set-Cookie", cookie.String())
}

// SafeNext returns next if it is a path on this site, "/" otherwise.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// rejectedCredentials reports whether the backend turned the login down. The
// token endpoint answers a wrong password with 400.
func rejectedCredentials(err error) bool {
	var he *storefront.HTTPError
	return storefront.IsUnauthorized(err) || (errors.As(err, &he) && he.Status == http.StatusBadRequest)
}
