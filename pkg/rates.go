package converter

import "math"

// SamplingRate derives the effective rate in Hz from a stored sample
// period in seconds. Recomputed per call; modalities have independent
// periods.
func SamplingRate(period float64) (float64, error) {
	if period <= 0 || math.IsNaN(period) || math.IsInf(period, 0) {
		return 0, &InvalidRateError{Period: period}
	}
	return 1 / period, nil
}
