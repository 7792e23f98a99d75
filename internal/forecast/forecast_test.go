package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/onnwee/ticker-proxy/internal/upstream"
)

func linearHistory(n int, start, step float64) *upstream.History {
	h := &upstream.History{Candles: make([]upstream.Candle, n)}
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v := start + step*float64(i)
		h.Candles[i] = upstream.Candle{
			Date:  day.AddDate(0, 0, i).Format("2006-01-02"),
			Close: v,
			Price: v,
		}
	}
	return h
}

func TestPredictExtendsLinearTrend(t *testing.T) {
	h := linearHistory(30, 100, 2)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	p, ok := Predict("AAPL", h, from, 7)
	if !ok {
		t.Fatal("Predict refused sufficient history")
	}
	if len(p.Predictions) != 7 || len(p.Dates) != 7 {
		t.Fatalf("horizon mismatch: %d dates, %d points", len(p.Dates), len(p.Predictions))
	}

	// Perfectly linear input: day d ahead should be last + 2*d, band ~0.
	last := h.Candles[len(h.Candles)-1].Close
	for d := 0; d < 7; d++ {
		want := last + 2*float64(d+1)
		if math.Abs(p.Predictions[d]-want) > 1e-6 {
			t.Errorf("day %d: got %v, want %v", d+1, p.Predictions[d], want)
		}
		if math.Abs(p.UpperBound[d]-p.Predictions[d]) > 1e-6 {
			t.Errorf("day %d: band should collapse on exact fit, got %v", d+1, p.UpperBound[d]-p.Predictions[d])
		}
	}

	if p.LastActual != last {
		t.Errorf("LastActual = %v, want %v", p.LastActual, last)
	}
	if p.Dates[0] != "2026-02-02" {
		t.Errorf("first forecast date = %q", p.Dates[0])
	}
}

func TestPredictBandWidensWithNoise(t *testing.T) {
	h := linearHistory(30, 100, 1)
	// Perturb alternate closes so residuals are nonzero.
	for i := range h.Candles {
		if i%2 == 0 {
			h.Candles[i].Close += 5
		} else {
			h.Candles[i].Close -= 5
		}
	}

	p, ok := Predict("AAPL", h, time.Now(), 7)
	if !ok {
		t.Fatal("Predict refused history")
	}
	for d := 0; d < 7; d++ {
		if p.UpperBound[d] <= p.Predictions[d] || p.LowerBound[d] >= p.Predictions[d] {
			t.Errorf("day %d: band does not bracket prediction", d+1)
		}
	}
	// 1.96 * stddev of a ±5 square wave is roughly 9.8.
	width := p.UpperBound[0] - p.Predictions[0]
	if width < 9 || width > 11 {
		t.Errorf("band width = %v, want ~9.8", width)
	}
}

func TestPredictRejectsShortHistory(t *testing.T) {
	if _, ok := Predict("AAPL", linearHistory(MinSamples-1, 100, 1), time.Now(), 7); ok {
		t.Error("Predict accepted history below the sample floor")
	}
}

func TestPredictClampsHorizon(t *testing.T) {
	h := linearHistory(30, 100, 1)

	p, ok := Predict("AAPL", h, time.Now(), 0)
	if !ok || len(p.Predictions) != DefaultHorizon {
		t.Errorf("days=0 should fall back to the default horizon, got %d", len(p.Predictions))
	}

	p, ok = Predict("AAPL", h, time.Now(), 100000)
	if !ok || len(p.Predictions) != MaxHorizon {
		t.Errorf("oversized horizon should clamp to %d, got %d", MaxHorizon, len(p.Predictions))
	}
}

func TestFitLineFlatSeries(t *testing.T) {
	slope, intercept := fitLine([]float64{7, 7, 7, 7})
	if math.Abs(slope) > 1e-12 || math.Abs(intercept-7) > 1e-12 {
		t.Errorf("flat fit = (%v, %v)", slope, intercept)
	}
}
