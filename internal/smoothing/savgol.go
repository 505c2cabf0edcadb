package smoothing

import "gonum.org/v1/gonum/mat"

// savitzkyGolay fits a least-squares polynomial of the given degree to
// the window samples (oldest first, unit frame spacing) and evaluates
// it at the window centre. A singular or badly conditioned fit falls
// back to the plain mean.
func savitzkyGolay(vals []float64, degree int) float64 {
	n := len(vals)
	if degree >= n {
		degree = n - 1
	}
	if degree < 1 || n < 3 {
		return mean(vals)
	}

	// Vandermonde design matrix over x = 0..n-1.
	a := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		x := float64(i)
		pow := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, pow)
			pow *= x
		}
	}
	b := mat.NewVecDense(n, vals)

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return mean(vals)
	}

	// Evaluate the fitted polynomial at the centre sample.
	x := float64(n-1) / 2
	pow := 1.0
	var out float64
	for j := 0; j <= degree; j++ {
		out += coef.AtVec(j) * pow
		pow *= x
	}
	return out
}
