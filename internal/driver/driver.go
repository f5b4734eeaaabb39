// Package driver orchestrates one probability-estimation run: build a
// surface snapshot, estimate the forward, fit every model, score
// confidence, and cross-check against the prediction-market cache.
package driver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/contactkeval/optionprob/internal/confidence"
	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/events"
	"github.com/contactkeval/optionprob/internal/logger"
	"github.com/contactkeval/optionprob/internal/models"
	"github.com/contactkeval/optionprob/internal/pricing"
	"github.com/contactkeval/optionprob/internal/store"
	"github.com/contactkeval/optionprob/internal/surface"
)

// Options configures a probability-estimation run. Zero values fall
// back to the same defaults their underlying packages use.
type Options struct {
	MaxSpread        float64
	TrimPct          float64
	Discount         float64 // D = exp(-rT); computed from RiskFreeRate if zero and RiskFreeRate != 0
	RiskFreeRate     float64
	SlopeWindow      int
	MaxRelSpread     float64
	SmileSmoothing   float64
}

// Result bundles one strike's predictions across every model, its
// confidence score, and the Polymarket cross-check when available.
type Result struct {
	Symbol          domain.Symbol
	ExpirationDate  time.Time
	TTEDays         int
	StrikePrice     float64
	Forward         float64
	Predictions     []domain.ModelPrediction
	Confidence      float64
	Diagnostics     domain.ConfidenceDiagnostics
	PolymarketProb  float64
	HasPolymarket   bool
}

// Driver ties the option store, prediction-market cache, and pricing
// packages together into a single entry point for running models.
type Driver struct {
	Store  store.Reader
	Events *events.EventStore
	Opts   Options
}

// New constructs a Driver reading from s and cross-checking against
// eventStore (which may be nil to disable the Polymarket cross-check).
func New(s store.Reader, eventStore *events.EventStore, opts Options) *Driver {
	return &Driver{Store: s, Events: eventStore, Opts: opts}
}

// ListExpiries returns the sorted, deduplicated set of expiration
// dates currently tracked for symbol.
func (d *Driver) ListExpiries(symbol domain.Symbol) []time.Time {
	states := d.Store.GetBySymbol(symbol)
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, s := range states {
		if !seen[s.ExpirationDate] {
			seen[s.ExpirationDate] = true
			out = append(out, s.ExpirationDate)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].After(out[j]); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// RunExpiry builds the surface snapshot for symbol+expirationDate and
// runs every model at strike. It cross-checks against the
// prediction-market cache when a Polymarket event covers this
// symbol/strike, refreshing the cache first if it's stale.
func (d *Driver) RunExpiry(ctx context.Context, symbol domain.Symbol, expirationDate time.Time, strike float64) (Result, error) {
	states := d.Store.GetBySymbol(symbol)
	snap := surface.Build(states, symbol, expirationDate, surface.BuildOptions{MaxSpread: d.Opts.MaxSpread})

	if len(snap.Calls) == 0 && len(snap.Puts) == 0 {
		return Result{}, fmt.Errorf("no option quotes tracked for %s expiring %s", symbol, expirationDate.Format("2006-01-02"))
	}

	tteDays := int(math.Ceil(time.Until(expirationDate).Hours() / 24.0))
	T := math.Max(time.Until(expirationDate).Hours()/24.0/365.0, 1.0/365.0/24.0)

	discount := d.Opts.Discount
	if discount == 0 {
		if d.Opts.RiskFreeRate != 0 {
			discount = math.Exp(-d.Opts.RiskFreeRate * T)
		} else {
			discount = 1.0
		}
	}

	fwdOpts := pricing.ForwardOptions{Discount: discount, MaxSpread: d.Opts.MaxSpread, TrimPct: d.Opts.TrimPct}
	fEst, fOK := pricing.EstimateForward(snap, fwdOpts)
	forward := 0.0
	if fOK {
		forward = fEst.Forward
	} else {
		logger.Debugf("forward estimate unavailable for %s %s", symbol, expirationDate.Format("2006-01-02"))
	}

	simple := models.BuildSimpleModel(snap, d.Opts.MaxSpread)
	slope := models.BuildSlopeModel(snap, d.Opts.SlopeWindow, discount, d.Opts.MaxSpread)

	var svi models.Model
	var spline models.Model
	sviNPoints, splineNPoints := 0, 0
	if fOK {
		if m, ok := models.BuildSVIModel(snap, T, discount, d.Opts.MaxSpread, d.Opts.TrimPct); ok {
			svi = m
			sviNPoints = m.Fit.NPoints
		}
		if m, ok := models.BuildSplineModel(snap, T, discount, d.Opts.MaxSpread, d.Opts.TrimPct, d.Opts.SmileSmoothing); ok {
			spline = m
			splineNPoints = m.Fit.NPoints
		}
	}

	simplePred := models.ToPrediction("simple", simple, strike, forward, 0)
	slopePred := models.ToPrediction("slope", slope, strike, forward, 0)
	sviPred := models.ToPrediction("svi", svi, strike, forward, sviNPoints)
	splinePred := models.ToPrediction("spline", spline, strike, forward, splineNPoints)

	predictions := []domain.ModelPrediction{simplePred, slopePred, sviPred, splinePred}

	simpleSP := (*domain.StrikeProbability)(nil)
	if !math.IsNaN(simplePred.ProbAbove) {
		simpleSP = &domain.StrikeProbability{StrikePrice: strike, ProbAbove: simplePred.ProbAbove}
	}
	slopeSP := (*domain.StrikeProbability)(nil)
	if !math.IsNaN(slopePred.ProbAbove) {
		slopeSP = &domain.StrikeProbability{StrikePrice: strike, ProbAbove: slopePred.ProbAbove}
	}

	confScore, diag := confidence.Compute(snap, strike, simpleSP, slopeSP, confidence.Options{MaxRelativeSpread: d.Opts.MaxRelSpread})

	result := Result{
		Symbol:         symbol,
		ExpirationDate: expirationDate,
		TTEDays:        tteDays,
		StrikePrice:    strike,
		Forward:        forward,
		Predictions:    predictions,
		Confidence:     confScore,
		Diagnostics:    diag,
	}

	if d.Events != nil {
		if _, err := d.Events.RefreshIfStale(ctx, 15*time.Minute); err != nil {
			logger.Warnf("prediction market refresh failed, serving cached data: %v", err)
		}

		expISO := expirationDate.UTC().Format("2006-01-02T15:04:05Z")
		var pmEndDate string
		for _, ev := range d.Events.GetBySymbol(symbol) {
			if ev.EndDate == expISO {
				pmEndDate = ev.EndDate
				break
			}
		}
		if pmEndDate != "" {
			if prob, ok := d.Events.GetPolymarketProb(symbol, pmEndDate, strike, events.DirectionAbove); ok {
				result.PolymarketProb = prob
				result.HasPolymarket = true
			}
		}
	}

	return result, nil
}

