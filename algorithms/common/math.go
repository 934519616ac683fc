package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EnergyFloor keeps silent bands out of -Inf when converting to decibels.
const EnergyFloor = 1e-12

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// MeanSquare returns the mean of the squared samples (signal power).
func MeanSquare(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Dot(data, data) / float64(len(data))
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	return math.Sqrt(MeanSquare(data))
}

// PowerToDB converts a power value to decibels with the EnergyFloor applied.
func PowerToDB(power float64) float64 {
	return 10 * math.Log10(math.Max(power, EnergyFloor))
}

// AllFinite reports whether every value is neither NaN nor infinite.
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
