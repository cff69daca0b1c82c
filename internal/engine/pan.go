package engine

import "math"

// PanStereo applies equal-power stereo panning to one stereo frame.
//
// For pan <= 0 the right channel is folded into the left with gain
// cos(x·π/2), x = pan+1, and attenuated by sin(x·π/2); pan > 0 mirrors
// this. pan = 0 returns the frame unchanged, pan = ±1 moves everything to
// one side.
func PanStereo(left, right, pan float64) (outL, outR float64) {
	if pan == 0 {
		return left, right
	}

	if pan < 0 {
		x := (pan + 1) * quarterTurn
		return left + right*math.Cos(x), right * math.Sin(x)
	}

	x := pan * quarterTurn
	return left * math.Cos(x), right + left*math.Sin(x)
}
