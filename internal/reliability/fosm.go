// Package reliability derives a Probability of Failure from the Factor of
// Safety using the First-Order Second-Moment (FOSM) method. FOSM needs only
// the already-computed FoS and one aggregate uncertainty knob, which is
// enough for an illustrative probability, not a certified risk figure.
package reliability

import "math"

// ComputePoF returns the FOSM Probability of Failure as a percentage in
// [0, 100]. cov is the coefficient of variation of the FoS. Indeterminate
// inputs (cov ≤ 0, FoS ≤ 0, non-finite index) fall back to the
// deterministic answer: 100 when FoS < 1, otherwise 0.
func ComputePoF(fos, cov float64) float64 {
	if cov <= 0 || fos <= 0 {
		return deterministic(fos)
	}

	// Reliability index: how many standard deviations FoS sits above 1.
	beta := (fos - 1) / (fos * cov)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return deterministic(fos)
	}

	pof := normalCDF(-beta) * 100
	if pof < 0 {
		return 0
	}
	if pof > 100 {
		return 100
	}
	return pof
}

func deterministic(fos float64) float64 {
	if fos < 1 {
		return 100
	}
	return 0
}

// normalCDF evaluates the standard normal CDF via the Abramowitz–Stegun
// 7.1.26 error-function series, accurate to about 1.5e-4.
func normalCDF(x float64) float64 {
	return 0.5 * (1 + erfAS(x/math.Sqrt2))
}

func erfAS(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}

	const (
		p  = 0.3275911
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
	)

	t := 1 / (1 + p*x)
	y := 1 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}
