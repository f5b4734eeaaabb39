package models

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/contactkeval/optionprob/internal/domain"
	"github.com/contactkeval/optionprob/internal/pricing"
)

// weightedSmoothingSpline is a natural cubic smoothing spline fit via
// the Reinsch/Green-Silverman formulation: it minimizes
//
//	sum_i weight_i*(y_i - f(x_i))^2 + lambda * integral f''(x)^2 dx
//
// over natural cubic splines f. No library in this module's ecosystem
// implements weighted smoothing splines (as opposed to exact
// interpolation), so the linear system is assembled by hand; gonum/mat
// solves it.
type weightedSmoothingSpline struct {
	x, g, gamma []float64 // knots, fitted values at knots, second derivatives at knots
}

// fitSmoothingSpline fits the spline given sorted, distinct x values,
// target y values, and positive weights (no two x may be equal).
func fitSmoothingSpline(x, y, weight []float64, lambda float64) *weightedSmoothingSpline {
	n := len(x)
	if n < 4 {
		return nil
	}

	h := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = x[i+1] - x[i]
	}

	m := n - 2 // interior points, size of the Q/R system

	Q := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		Q.Set(j, j, 1.0/h[j])
		Q.Set(j+1, j, -1.0/h[j]-1.0/h[j+1])
		Q.Set(j+2, j, 1.0/h[j+1])
	}

	R := mat.NewDense(m, m, nil)
	for j := 0; j < m; j++ {
		R.Set(j, j, (h[j]+h[j+1])/3.0)
		if j+1 < m {
			R.Set(j, j+1, h[j+1]/6.0)
			R.Set(j+1, j, h[j+1]/6.0)
		}
	}

	winv := mat.NewDiagDense(n, nil)
	for i := 0; i < n; i++ {
		w := weight[i]
		if w <= 0 {
			w = 1e-9
		}
		winv.SetDiag(i, 1.0/w)
	}

	var qtWinv mat.Dense
	qtWinv.Mul(Q.T(), winv)

	var qtWinvQ mat.Dense
	qtWinvQ.Mul(&qtWinv, Q)

	var lhs mat.Dense
	lhs.Scale(lambda, &qtWinvQ)
	lhs.Add(&lhs, R)

	yVec := mat.NewVecDense(n, y)
	var rhs mat.VecDense
	rhs.MulVec(Q.T(), yVec)

	var gammaInterior mat.VecDense
	if err := gammaInterior.SolveVec(&lhs, &rhs); err != nil {
		return nil
	}

	gamma := make([]float64, n)
	for j := 0; j < m; j++ {
		gamma[j+1] = gammaInterior.AtVec(j)
	}

	var qGamma mat.VecDense
	qGamma.MulVec(Q, &gammaInterior)

	g := make([]float64, n)
	for i := 0; i < n; i++ {
		w := weight[i]
		if w <= 0 {
			w = 1e-9
		}
		g[i] = y[i] - lambda*qGamma.AtVec(i)/w
	}

	return &weightedSmoothingSpline{x: x, g: g, gamma: gamma}
}

// Eval evaluates the fitted spline at k, clamped to the observed
// range (no extrapolation beyond the outermost knots).
func (s *weightedSmoothingSpline) Eval(k float64) float64 {
	n := len(s.x)
	if k <= s.x[0] {
		k = s.x[0]
	}
	if k >= s.x[n-1] {
		k = s.x[n-1]
	}

	i := 0
	for i < n-2 && s.x[i+1] < k {
		i++
	}

	h := s.x[i+1] - s.x[i]
	a := (s.x[i+1] - k) / h
	b := (k - s.x[i]) / h
	c := (a*a*a - a) * h * h / 6.0
	d := (b*b*b - b) * h * h / 6.0

	return a*s.g[i] + b*s.g[i+1] + c*s.gamma[i] + d*s.gamma[i+1]
}

// SplineFitResult is the outcome of fitting the smoothing spline to
// one snapshot.
type SplineFitResult struct {
	Forward float64
	NPoints int
}

// SplineModel is the fitted smoothing-spline smile over total
// variance w(k) = sigma(k)^2 * T.
type SplineModel struct {
	Fit      SplineFitResult
	spline   *weightedSmoothingSpline
	T        float64
	Discount float64
	KMin     float64
	KMax     float64
}

// TotalVariance returns the spline-fitted total variance at strike K.
func (m *SplineModel) TotalVariance(K float64) float64 {
	k := math.Log(K / m.Fit.Forward)
	if k < m.KMin {
		k = m.KMin
	}
	if k > m.KMax {
		k = m.KMax
	}
	w := m.spline.Eval(k)
	if w < 1e-12 {
		w = 1e-12
	}
	return w
}

// ImpliedVol returns the spline-implied volatility at strike K.
func (m *SplineModel) ImpliedVol(K float64) float64 {
	return math.Sqrt(m.TotalVariance(K) / m.T)
}

// ProbAbove implements Model.
func (m *SplineModel) ProbAbove(K float64) float64 {
	sigma := m.ImpliedVol(K)
	return bsProbAbove(m.Fit.Forward, K, m.T, sigma)
}

// BuildSplineModel fits a weighted cubic smoothing spline to the
// snapshot's OTM total variance curve. Returns ok=false if the
// forward can't be estimated or fewer than minSmilePoints OTM quotes
// survive filtering.
func BuildSplineModel(snapshot domain.OptionSurfaceSnapshot, T, discount, maxSpread, trimPct, smoothing float64) (*SplineModel, bool) {
	fEst, ok := pricing.EstimateForward(snapshot, pricing.ForwardOptions{Discount: discount, MaxSpread: maxSpread, TrimPct: trimPct})
	if !ok {
		return nil, false
	}
	F := fEst.Forward

	points, ok := extractOTMIVPoints(snapshot, F, T, discount, maxSpread)
	if !ok {
		return nil, false
	}

	n := len(points)
	ks := make([]float64, n)
	ws := make([]float64, n)
	weights := make([]float64, n)
	for i, p := range points {
		ks[i] = p.k
		ws[i] = p.w
		weights[i] = p.weight
	}

	if smoothing <= 0 {
		// Heuristic analogous to the scipy UnivariateSpline smoothing
		// factor this model was originally fit with: smooth more when
		// the total-variance curve is noisier or sparser.
		wStd := stat.StdDev(ws, nil)
		smoothing = math.Max(1e-8, 0.5*wStd*float64(n))
	}

	spline := fitSmoothingSpline(ks, ws, weights, smoothing)
	if spline == nil {
		return nil, false
	}

	return &SplineModel{
		Fit:      SplineFitResult{Forward: F, NPoints: n},
		spline:   spline,
		T:        T,
		Discount: discount,
		KMin:     ks[0],
		KMax:     ks[n-1],
	}, true
}
