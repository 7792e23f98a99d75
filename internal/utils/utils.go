package utils

import "strings"

// SanitizeSymbol normalizes a ticker symbol from a URL path segment.
// Yahoo-style symbols are upper-case and may carry exchange suffixes
// (e.g. "RDSA.AS"), so only whitespace and case are touched.
func SanitizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

