package compliance

// SmoothPowerStream applies a trailing rolling mean: sample i averages
// power[max(0, i-window+1) .. i]. A window of 1 or less returns power as-is.
func SmoothPowerStream(power []float64, windowSec int) []float64 {
	if windowSec <= 1 || len(power) == 0 {
		return power
	}

	out := make([]float64, len(power))
	sum := 0.0
	for i, p := range power {
		sum += p
		if i >= windowSec {
			sum -= power[i-windowSec]
		}
		n := i + 1
		if n > windowSec {
			n = windowSec
		}
		out[i] = sum / float64(n)
	}
	return out
}

// CreateZoneTimeline classifies every sample into a power zone.
func CreateZoneTimeline(power []float64, zones PowerZones) []int {
	timeline := make([]int, len(power))
	for i, p := range power {
		timeline[i] = ClassifyPowerToZone(p, zones)
	}
	return timeline
}

// AssessPowerDataQuality labels a stream missing, partial (<80% non-zero
// samples) or good.
func AssessPowerDataQuality(power []float64) string {
	if len(power) == 0 {
		return DataQualityMissing
	}
	positive := 0
	for _, p := range power {
		if p > 0 {
			positive++
		}
	}
	if float64(positive) < 0.8*float64(len(power)) {
		return DataQualityPartial
	}
	return DataQualityGood
}

// sanitizePower replaces non-finite and negative samples with zero.
func sanitizePower(power []float64) []float64 {
	out := make([]float64, len(power))
	for i, p := range power {
		out[i] = safePositive(p)
	}
	return out
}
