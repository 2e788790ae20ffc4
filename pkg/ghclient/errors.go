package ghclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v55/github"
)

// Sentinel error classes, per spec.md §4.2/§7. Gateway operations wrap the
// underlying go-github error with one of these via %w so callers can use
// errors.Is for classification.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrConflict     = errors.New("conflict")
	ErrTransient    = errors.New("transient failure")
	ErrFatal        = errors.New("fatal error")
)

// classify maps a go-github error into one of the sentinel classes,
// grounded on prow/github/client.go's handling of *github.ErrorResponse /
// *github.RateLimitError / *github.AbuseRateLimitError status codes.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var rateLimitErr *github.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		if respErr.Response.StatusCode >= 500 {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return fmt.Errorf("%w: %v", ErrFatal, err)
	}

	// Network-level errors (timeouts, connection resets) are treated as
	// transient so the retry loop has a chance to recover.
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// retriable reports whether err should be retried by the gateway's bounded
// backoff loop, per spec.md §4.2: only RateLimited and Transient are.
func retriable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
