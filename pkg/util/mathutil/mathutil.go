package mathutil

import "math"

func Approximately(exp, act float64) bool {
	return ApproximatelyPct(exp, act, 0.0001) // within 0.01%
}

func ApproximatelyPct(exp, act, pct float64) bool {
	delta := math.Abs(exp * pct)
	if delta < 0.00001 {
		delta = 0.00001
	}
	return math.Abs(exp-act) < delta
}

// CeilDiv returns ceil(n/d) for non-negative n and positive d. It returns 0 when d <= 0.
func CeilDiv(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// CeilFloat returns ceil(f) as an int, clamping negative and non-finite values to 0.
func CeilFloat(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return int(math.Ceil(f - 1e-9))
}

// SafeDiv returns n/d, or 0 when d is 0 or the result is not finite.
func SafeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	r := n / d
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// IsFinite returns false for NaN and +/-Inf.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
