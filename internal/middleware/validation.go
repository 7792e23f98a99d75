package middleware

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSymbolLength bounds ticker symbols. The longest real-world symbols
// (class shares, OTC suffixes) fit comfortably under this.
const MaxSymbolLength = 12

// MaxQueryLength bounds free-text search queries.
const MaxQueryLength = 100

// validPeriods are the chart ranges the history endpoint accepts.
var validPeriods = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "max": true,
}

// validIntervals are the bar sizes the history endpoint accepts.
var validIntervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true, "60m": true,
	"1d": true, "1wk": true, "1mo": true,
}

// SanitizeString trims, bounds, and UTF-8-cleans free-text input.
func SanitizeString(input string, maxLength int) string {
	input = strings.TrimSpace(input)

	if len(input) > maxLength {
		input = input[:maxLength]
	}

	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}

	return input
}

// ValidateSymbol checks a ticker symbol before it reaches the upstream
// path. Symbols are letters, digits, and the separators vendors use for
// class shares and foreign listings (BRK.B, BF-B, 7203.T).
func ValidateSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)

	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}

	if len(symbol) > MaxSymbolLength {
		return fmt.Errorf("symbol too long (max %d characters)", MaxSymbolLength)
	}

	for _, c := range symbol {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '^' || c == '=') {
			return fmt.Errorf("symbol contains invalid characters")
		}
	}

	return nil
}

// ValidatePeriod checks a history period name.
func ValidatePeriod(period string) error {
	if !validPeriods[period] {
		return fmt.Errorf("invalid period %q", period)
	}
	return nil
}

// ValidateInterval checks a history bar interval.
func ValidateInterval(interval string) error {
	if !validIntervals[interval] {
		return fmt.Errorf("invalid interval %q", interval)
	}
	return nil
}
