package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/hostgate/pkg/hostgate"
)

// ErrDenied is returned by AdmissionTransport when the target host has no
// token available.
var ErrDenied = errors.New("fetch denied by host gate")

// Checker decides whether a fetch of key may proceed. *hostgate.Registry
// satisfies it.
type Checker interface {
	Decide(key string) hostgate.Decision
}

// DeniedError describes a request refused before reaching the network.
type DeniedError struct {
	Host       string
	RetryAfter time.Duration
}

func (e *DeniedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%v: %s (retry after %v)", ErrDenied, e.Host, e.RetryAfter)
	}
	return fmt.Sprintf("%v: %s", ErrDenied, e.Host)
}

// Unwrap makes errors.Is(err, ErrDenied) hold.
func (e *DeniedError) Unwrap() error {
	return ErrDenied
}

// AdmissionTransport is an http.RoundTripper that spends one token of the
// request's host before every outbound request.
//
// Example:
//
//	client := &http.Client{
//	    Transport: &middleware.AdmissionTransport{Registry: registry},
//	}
type AdmissionTransport struct {
	// Base performs the request. http.DefaultTransport is used when nil.
	Base http.RoundTripper

	// Registry makes the admission decision.
	Registry Checker
}

// RoundTrip implements http.RoundTripper.
func (t *AdmissionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := strings.ToLower(req.URL.Hostname())
	if host == "" {
		closeBody(req)
		return nil, fmt.Errorf("%w: request has no host", hostgate.ErrInvalidURL)
	}

	decision := t.Registry.Decide(host)
	if !decision.Allowed {
		closeBody(req)
		return nil, &DeniedError{Host: host, RetryAfter: decision.RetryAfter}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// closeBody honors the RoundTripper contract of closing the body on error.
func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
