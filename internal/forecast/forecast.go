// Package forecast fits a least-squares trend line to recent closes and
// extrapolates it a few days forward with a confidence band. It is a toy
// model, kept because chart consumers render the band, not because the
// numbers mean anything.
package forecast

import (
	"math"
	"time"

	"github.com/onnwee/ticker-proxy/internal/upstream"
)

// Prediction is the forward-looking payload for a symbol.
type Prediction struct {
	Symbol         string    `json:"symbol"`
	Dates          []string  `json:"dates"`
	Predictions    []float64 `json:"predictions"`
	UpperBound     []float64 `json:"upper_bound"`
	LowerBound     []float64 `json:"lower_bound"`
	LastActual     float64   `json:"last_actual"`
	LastActualDate string    `json:"last_actual_date"`
}

// DefaultHorizon is how many days ahead Predict extrapolates when the
// caller doesn't say.
const DefaultHorizon = 30

// MaxHorizon caps the forecast length; extrapolating a daily trend line a
// year out is already generous.
const MaxHorizon = 365

// MinSamples is the smallest history Predict accepts. Fewer points make
// the residual estimate meaningless.
const MinSamples = 10

// Predict fits closes against their index, then projects days future
// points. The band is a 95% interval built from the fit residuals.
// Returns false when history is too short.
func Predict(symbol string, h *upstream.History, from time.Time, days int) (*Prediction, bool) {
	if days < 1 {
		days = DefaultHorizon
	}
	if days > MaxHorizon {
		days = MaxHorizon
	}
	n := len(h.Candles)
	if n < MinSamples {
		return nil, false
	}

	closes := make([]float64, n)
	for i, c := range h.Candles {
		closes[i] = c.Close
	}

	slope, intercept := fitLine(closes)

	// Residual spread around the fitted line.
	var ss float64
	for i, y := range closes {
		r := y - (slope*float64(i) + intercept)
		ss += r * r
	}
	stddev := math.Sqrt(ss / float64(n))
	band := 1.96 * stddev

	p := &Prediction{
		Symbol:         symbol,
		Dates:          make([]string, 0, days),
		Predictions:    make([]float64, 0, days),
		UpperBound:     make([]float64, 0, days),
		LowerBound:     make([]float64, 0, days),
		LastActual:     closes[n-1],
		LastActualDate: h.Candles[n-1].Date,
	}
	for d := 1; d <= days; d++ {
		y := slope*float64(n-1+d) + intercept
		p.Dates = append(p.Dates, from.AddDate(0, 0, d).Format("2006-01-02"))
		p.Predictions = append(p.Predictions, y)
		p.UpperBound = append(p.UpperBound, y+band)
		p.LowerBound = append(p.LowerBound, y-band)
	}
	return p, true
}

// fitLine returns the least-squares slope and intercept of ys against
// their indices 0..n-1.
func fitLine(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
