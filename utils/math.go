// SPDX-License-Identifier: EPL-2.0

// Package utils holds small numeric helpers shared by the audio and
// analysis packages.
package utils

import "math"

// CubicInterpolate evaluates a Catmull-Rom spline through four consecutive
// samples at fractional position x (0 <= x <= 1) between y1 and y2.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2

	return ((a0*x+a1)*x+a2)*x + y1
}

// Float32ToInt16 clamps x to [-1, 1] and scales it to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1.0 from overflowing
	return int16(x * math.MaxInt16)
}

// DecibelsToByte maps db linearly from [minDB, maxDB] onto [0, 255],
// clamping outside the range. -Inf and NaN map to 0.
func DecibelsToByte(db, minDB, maxDB float64) uint8 {
	if math.IsNaN(db) || maxDB <= minDB {
		return 0
	}

	scaled := 255 * (db - minDB) / (maxDB - minDB)
	switch {
	case scaled <= 0:
		return 0
	case scaled >= 255:
		return 255
	}

	return uint8(scaled)
}
