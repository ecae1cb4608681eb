package strconvx

import "math"

var pow10 = [...]float64{1, 10, 100, 1000, 10000, 100000, 1000000}

func scale(prec int) float64 {
	if prec < 0 {
		return 1
	}
	if prec < len(pow10) {
		return pow10[prec]
	}
	return math.Pow(10, float64(prec))
}

// roundHalfAway rounds f to prec decimals. strconv rounds the binary value
// (2.675 -> "2.67"); sensor rows want the printed value to match the decimal
// reading the driver reported, so nudge by a few ULPs first.
func roundHalfAway(f float64, prec int) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	s := scale(prec)
	v := f * s
	if v > 1<<53 || v < -(1<<53) {
		return f
	}
	r := math.Round(v + math.Copysign(1e-9, v))
	if r == 0 {
		return 0
	}
	return r / s
}
