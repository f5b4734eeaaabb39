package models

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/pricing"
)

// SVIParams are the raw-SVI total-variance parameters:
// w(k) = a + b*(rho*(k-m) + sqrt((k-m)^2 + sig^2)).
type SVIParams struct {
	A, B, Rho, M, Sig float64
}

func sviTotalVariance(k float64, p SVIParams) float64 {
	km := k - p.M
	return p.A + p.B*(p.Rho*km+math.Sqrt(km*km+p.Sig*p.Sig))
}

// SVIFitResult is the outcome of fitting SVI to one snapshot.
type SVIFitResult struct {
	Params  SVIParams
	Forward float64
	NPoints int
}

// SVIModel is the fitted raw-SVI smile, exposing ProbAbove via
// Black–Scholes-on-forward with the SVI-implied volatility at each
// strike.
type SVIModel struct {
	Fit      SVIFitResult
	T        float64
	Discount float64
}

// ImpliedVol returns the SVI-implied volatility at strike K.
func (m *SVIModel) ImpliedVol(K float64) float64 {
	k := math.Log(K / m.Fit.Forward)
	w := sviTotalVariance(k, m.Fit.Params)
	if w < 1e-12 {
		w = 1e-12
	}
	return math.Sqrt(w / m.T)
}

// ProbAbove implements Model.
func (m *SVIModel) ProbAbove(K float64) float64 {
	sigma := m.ImpliedVol(K)
	return bsProbAbove(m.Fit.Forward, K, m.T, sigma)
}

// BuildSVIModel fits a raw-SVI smile to the snapshot's OTM implied
// vols. Returns ok=false if the forward can't be estimated or fewer
// than minSmilePoints OTM quotes survive filtering.
func BuildSVIModel(snapshot domain.OptionSurfaceSnapshot, T, discount, maxSpread, trimPct float64) (*SVIModel, bool) {
	fEst, ok := pricing.EstimateForward(snapshot, pricing.ForwardOptions{Discount: discount, MaxSpread: maxSpread, TrimPct: trimPct})
	if !ok {
		return nil, false
	}
	F := fEst.Forward

	points, ok := extractOTMIVPoints(snapshot, F, T, discount, maxSpread)
	if !ok {
		return nil, false
	}

	params, ok := fitSVI(points)
	if !ok {
		return nil, false
	}

	return &SVIModel{
		Fit:      SVIFitResult{Params: params, Forward: F, NPoints: len(points)},
		T:        T,
		Discount: discount,
	}, true
}

// fitSVI runs a weighted least-squares fit of raw SVI against the
// observed (k, w) points, penalizing negative total variance and
// regularizing |m| and |sig|. The bounds b>=1e-10, rho in (-0.999,
// 0.999), sig>=1e-10, a>=0 are enforced by optimizing over a
// reparameterized, unconstrained vector rather than constraining
// gonum/optimize's LBFGS directly (it has no native box-constrained
// method).
func fitSVI(points []smilePoint) (SVIParams, bool) {
	n := len(points)
	ks := make([]float64, n)
	ws := make([]float64, n)
	weights := make([]float64, n)
	for i, p := range points {
		ks[i] = p.k
		ws[i] = p.w
		weights[i] = p.weight
	}

	meanW := stat.Mean(weights, nil)
	if meanW <= 0 {
		meanW = 1.0
	}
	normWeights := make([]float64, n)
	for i, w := range weights {
		normWeights[i] = w / meanW
	}

	minW := ws[0]
	for _, w := range ws {
		if w < minW {
			minW = w
		}
	}
	stdW := stat.StdDev(ws, nil)
	stdK := stat.StdDev(ks, nil)

	sortedK := append([]float64(nil), ks...)
	sort.Float64s(sortedK)
	medianK := stat.Quantile(0.5, stat.Empirical, sortedK, nil)

	a0 := math.Max(1e-8, minW*0.5)
	b0 := math.Max(1e-6, stdW+1e-3)
	sig0 := math.Max(1e-3, stdK+1e-3)

	x0 := []float64{
		invSoftplus(a0),
		invSoftplus(b0 - 1e-10),
		0.0, // rho reparam: rho = 0.999*tanh(x)
		medianK,
		invSoftplus(sig0 - 1e-10),
	}

	toParams := func(x []float64) SVIParams {
		return SVIParams{
			A:   softplus(x[0]),
			B:   softplus(x[1]) + 1e-10,
			Rho: 0.999 * math.Tanh(x[2]),
			M:   x[3],
			Sig: softplus(x[4]) + 1e-10,
		}
	}

	objective := func(x []float64) float64 {
		p := toParams(x)
		loss := 0.0
		for i, k := range ks {
			wHat := sviTotalVariance(k, p)
			resid := wHat - ws[i]
			loss += normWeights[i] * resid * resid
			if wHat < 0 {
				loss += 1e6 * wHat * wHat
			}
		}
		loss += 1e-3 * (p.M*p.M + p.Sig*p.Sig)
		return loss
	}

	gradient := func(grad, x []float64) {
		fd.Gradient(grad, objective, x, nil)
	}

	problem := optimize.Problem{Func: objective, Grad: gradient}

	result, err := optimize.Minimize(problem, x0, &optimize.Settings{MaxIterations: 500}, &optimize.LBFGS{})
	if err != nil || result == nil {
		return SVIParams{}, false
	}

	return toParams(result.X), true
}

func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

func invSoftplus(y float64) float64 {
	if y <= 0 {
		y = 1e-10
	}
	return math.Log(math.Expm1(y))
}

