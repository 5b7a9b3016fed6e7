package storefront

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for component and backend operations.
var (
	ErrNotFound         = errors.New("storefront: resource not found")
	ErrDecryptFailed    = errors.New("storefront: parameter decryption failed")
	ErrSignatureInvalid = errors.New("storefront: signature verification failed")
	ErrInvalidFormat    = errors.New("storefront: invalid parameter format")
	ErrHydrationFailed  = errors.New("storefront: hydration failed")

	// ErrNetwork means the request could not be sent or the response not received.
	ErrNetwork = errors.New("storefront: network failure")
	// ErrMalformedResponse means the body does not match the expected resource shape.
	ErrMalformedResponse = errors.New("storefront: malformed response")
	// ErrMissingField means a display field is absent on an otherwise loaded resource.
	ErrMissingField = errors.New("storefront: missing field")
	// ErrUnauthorized means the backend rejected the session (401/403).
	ErrUnauthorized = errors.New("storefront: unauthorized")
	// ErrNotMounted is returned by Wait on a controller that is not mounted
	// and will never settle.
	ErrNotMounted = errors.New("storefront: controller not mounted")
)

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Is lets 404 match ErrNotFound and 401/403 match ErrUnauthorized.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// MissingFieldError names the absent field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("storefront: missing field %q", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsMissingField checks if err reports an absent display field.
func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField)
}

// IsUnauthorized checks if the backend rejected the session.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusOf maps an error to the status code served to the browser.
func StatusOf(err error) int {
	var he *HTTPError
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsDecryptionError(err), errors.Is(err, ErrInvalidFormat):
		return http.StatusBadRequest
	case IsUnauthorized(err):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrMalformedResponse), errors.As(err, &he):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
