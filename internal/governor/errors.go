package governor

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names the failure classes the governance layer discriminates.
// Handlers map these onto HTTP statuses; the core never substitutes an
// empty payload for any of them.
type Kind int

const (
	// KindUnknown covers errors that carry no classification.
	KindUnknown Kind = iota
	// KindRateLimited: admission denied and no cached fallback existed.
	KindRateLimited
	// KindNotFound: the upstream definitively reported absence. Never
	// rescued with stale data — a stale answer about a symbol that does
	// not exist is worse than the error.
	KindNotFound
	// KindTransport: a network-level failure survived all retries.
	KindTransport
	// KindMaxRetries: repeated upstream throttling (429) survived all
	// retries.
	KindMaxRetries
	// KindUnavailable: the fetch failed and no stale value existed to
	// fall back to.
	KindUnavailable
	// KindUpstream: the upstream answered with an unexpected non-2xx
	// status other than 404/429.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limit_exceeded"
	case KindNotFound:
		return "not_found"
	case KindTransport:
		return "transport_error"
	case KindMaxRetries:
		return "max_retries_exceeded"
	case KindUnavailable:
		return "service_unavailable"
	case KindUpstream:
		return "upstream_error"
	default:
		return "unknown"
	}
}

// Error is the classified failure returned by Resolve and by fetch
// functions. Status is the upstream HTTP status when one applies.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: upstream status %d", e.Kind, e.Status)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// RateLimited reports admission denial with no cached fallback.
func RateLimited() *Error { return &Error{Kind: KindRateLimited} }

// NotFound reports definitive upstream absence.
func NotFound() *Error { return &Error{Kind: KindNotFound, Status: http.StatusNotFound} }

// Transport wraps a network-level failure that exhausted its retries.
func Transport(err error) *Error { return &Error{Kind: KindTransport, Err: err} }

// MaxRetries reports retry exhaustion against a throttling upstream.
func MaxRetries() *Error { return &Error{Kind: KindMaxRetries, Status: http.StatusTooManyRequests} }

// Unavailable reports a failed fetch with no stale rescue, wrapping the
// fetch failure that triggered it.
func Unavailable(err error) *Error { return &Error{Kind: KindUnavailable, Err: err} }

// Upstream reports an unexpected upstream status.
func Upstream(status int) *Error { return &Error{Kind: KindUpstream, Status: status} }

// KindOf extracts the failure class from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}
