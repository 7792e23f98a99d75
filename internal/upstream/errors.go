package upstream

import (
	"net/http"

	"github.com/onnwee/ticker-proxy/internal/governor"
)

// ClassifyStatus maps a non-2xx upstream response onto the governance
// failure taxonomy. 429 never reaches here — the retry layer consumes it —
// so the cases left are definitive absence and everything else.
func ClassifyStatus(status int) *governor.Error {
	switch {
	case status == http.StatusNotFound, status == http.StatusGone:
		return governor.NotFound()
	default:
		return governor.Upstream(status)
	}
}

// isHealthFailure reports whether err says something about upstream health,
// for the circuit breaker. Definitive answers (not found) and caller-side
// cancellation do not.
func isHealthFailure(err error) bool {
	switch governor.KindOf(err) {
	case governor.KindTransport, governor.KindMaxRetries, governor.KindUpstream:
		return true
	default:
		return false
	}
}
