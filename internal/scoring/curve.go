package scoring

// CurvePoint is one breakpoint of the piecewise-linear score expansion
// curve. Points must be sorted by In and monotone in Out.
type CurvePoint struct {
	In  float64
	Out float64
}

// DefaultCurve stretches the crowded middle band so mid-quality results
// separate, while leaving the extremes nearly fixed.
var DefaultCurve = []CurvePoint{
	{In: 0.00, Out: 0.00},
	{In: 0.30, Out: 0.25},
	{In: 0.50, Out: 0.55},
	{In: 0.70, Out: 0.82},
	{In: 1.00, Out: 1.00},
}

// applyCurve maps v through the breakpoints by linear interpolation. Inputs
// outside [first.In, last.In] clamp to the endpoints.
func applyCurve(curve []CurvePoint, v float64) float64 {
	if len(curve) == 0 {
		return v
	}
	if v <= curve[0].In {
		return curve[0].Out
	}
	last := curve[len(curve)-1]
	if v >= last.In {
		return last.Out
	}
	for i := 1; i < len(curve); i++ {
		if v <= curve[i].In {
			lo, hi := curve[i-1], curve[i]
			span := hi.In - lo.In
			if span == 0 {
				return hi.Out
			}
			frac := (v - lo.In) / span
			return lo.Out + frac*(hi.Out-lo.Out)
		}
	}
	return last.Out
}
