package apierr

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/logger"
)

// ErrorCode represents a structured error code
type ErrorCode string

// Error code constants organized by category
const (
	// SYMBOL_ - Symbol resolution errors
	ErrSymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	ErrSymbolInvalid  ErrorCode = "SYMBOL_INVALID"

	// QUOTA_ - Namespace quota errors
	ErrQuotaExhausted ErrorCode = "QUOTA_EXHAUSTED"

	// UPSTREAM_ - Vendor-side errors
	ErrUpstreamFailed      ErrorCode = "UPSTREAM_FAILED"
	ErrUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"

	// FORECAST_ - Prediction errors
	ErrForecastInsufficientData ErrorCode = "FORECAST_INSUFFICIENT_DATA"

	// SYSTEM_ - System and server errors
	ErrSystemInternal    ErrorCode = "SYSTEM_INTERNAL"
	ErrSystemUnavailable ErrorCode = "SYSTEM_UNAVAILABLE"

	// VALIDATION_ - Request validation errors
	ErrValidationInvalidValue ErrorCode = "VALIDATION_INVALID_VALUE"
	ErrValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"

	// RATE_LIMIT_ - Inbound rate limiting errors
	ErrRateLimitGlobal ErrorCode = "RATE_LIMIT_GLOBAL"
	ErrRateLimitIP     ErrorCode = "RATE_LIMIT_IP"
)

// Error represents a structured API error
type Error struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	status    int                    // HTTP status code (not serialized)
}

// ErrorResponse is the top-level error response wrapper
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// New creates a new API error
func New(code ErrorCode, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		status:  status,
	}
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// WithRequestID adds a request ID to the error
func (e *Error) WithRequestID(requestID string) *Error {
	e.RequestID = requestID
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status returns the HTTP status code
func (e *Error) Status() int {
	return e.status
}

// WriteError writes a structured error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status())
	json.NewEncoder(w).Encode(ErrorResponse{Error: err})
}

// Helper functions for common errors

// SymbolNotFound creates a symbol not found error
func SymbolNotFound(symbol string) *Error {
	return New(ErrSymbolNotFound, "Symbol not found: "+symbol, http.StatusNotFound).
		WithDetails(map[string]interface{}{"symbol": symbol})
}

// SymbolInvalid creates an invalid symbol error
func SymbolInvalid(message string) *Error {
	if message == "" {
		message = "Invalid ticker symbol"
	}
	return New(ErrSymbolInvalid, message, http.StatusBadRequest)
}

// QuotaExhausted creates a namespace quota exhausted error
func QuotaExhausted(namespace string) *Error {
	return New(ErrQuotaExhausted, "Upstream quota exhausted - try again shortly", http.StatusTooManyRequests).
		WithDetails(map[string]interface{}{"namespace": namespace})
}

// UpstreamFailed creates an upstream failed error
func UpstreamFailed(message string) *Error {
	if message == "" {
		message = "Upstream request failed"
	}
	return New(ErrUpstreamFailed, message, http.StatusBadGateway)
}

// UpstreamUnavailable creates an upstream unavailable error
func UpstreamUnavailable(message string) *Error {
	if message == "" {
		message = "Upstream data source unavailable"
	}
	return New(ErrUpstreamUnavailable, message, http.StatusServiceUnavailable)
}

// ForecastInsufficientData creates a forecast insufficient data error
func ForecastInsufficientData(symbol string) *Error {
	return New(ErrForecastInsufficientData, "Not enough price history to forecast", http.StatusUnprocessableEntity).
		WithDetails(map[string]interface{}{"symbol": symbol})
}

// SystemInternal creates an internal server error
func SystemInternal(message string) *Error {
	if message == "" {
		message = "Internal server error"
	}
	return New(ErrSystemInternal, message, http.StatusInternalServerError)
}

// SystemUnavailable creates a service unavailable error
func SystemUnavailable(message string) *Error {
	if message == "" {
		message = "Service unavailable"
	}
	return New(ErrSystemUnavailable, message, http.StatusServiceUnavailable)
}

// ValidationInvalidValue creates an invalid value error
func ValidationInvalidValue(field string, message string) *Error {
	if message == "" {
		message = "Invalid value for field: " + field
	}
	return New(ErrValidationInvalidValue, message, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// ValidationMissingField creates a missing field error
func ValidationMissingField(field string) *Error {
	return New(ErrValidationMissingField, "Missing required field: "+field, http.StatusBadRequest).
		WithDetails(map[string]interface{}{"field": field})
}

// RateLimitGlobal creates a global rate limit error
func RateLimitGlobal() *Error {
	return New(ErrRateLimitGlobal, "Rate limit exceeded - too many requests globally", http.StatusTooManyRequests)
}

// RateLimitIP creates an IP rate limit error
func RateLimitIP() *Error {
	return New(ErrRateLimitIP, "Rate limit exceeded - too many requests from your IP", http.StatusTooManyRequests)
}

// FromResolve maps a resolution failure onto an API error. The mapping
// mirrors the failure taxonomy: quota denials and retry exhaustion are 429,
// definitive absence is 404, transport trouble and empty-cache fallbacks
// are 503, and vendor-side status codes pass through as 502.
func FromResolve(err error, namespace, symbol string) *Error {
	switch governor.KindOf(err) {
	case governor.KindRateLimited, governor.KindMaxRetries:
		return QuotaExhausted(namespace)
	case governor.KindNotFound:
		return SymbolNotFound(symbol)
	case governor.KindTransport, governor.KindUnavailable:
		return UpstreamUnavailable("")
	case governor.KindUpstream:
		return UpstreamFailed("")
	default:
		return SystemInternal("")
	}
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return reqID
	}
	return ""
}

// WriteErrorWithContext writes a structured error response with request ID from context
func WriteErrorWithContext(w http.ResponseWriter, r *http.Request, err *Error) {
	if reqID := GetRequestID(r.Context()); reqID != "" {
		err = err.WithRequestID(reqID)
	}
	WriteError(w, err)
}
