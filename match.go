package compliance

import "math"

// Default matcher tuning.
const (
	DefaultMatchThreshold = 50.0
	DefaultMatchLookahead = 3
)

// MatchSegments aligns planned segments to detected blocks in order. Each
// planned segment considers only the next lookahead blocks after the last
// match and takes the best one scoring at least threshold; otherwise it is
// skipped without consuming a block. Assignments never move backwards.
func MatchSegments(planned []PlannedSegment, detected []DetectedBlock, threshold float64, lookahead int) []SegmentMatch {
	if lookahead < 1 {
		lookahead = DefaultMatchLookahead
	}

	matches := make([]SegmentMatch, 0, len(planned))
	cursor := 0
	for _, p := range planned {
		match := SegmentMatch{PlannedIndex: p.Index, Skipped: true}

		best := -1
		bestScore := 0.0
		end := cursor + lookahead
		if end > len(detected) {
			end = len(detected)
		}
		for j := cursor; j < end; j++ {
			score := CalculateMatchSimilarity(p, detected[j])
			if score >= threshold && (best < 0 || score > bestScore) {
				best = j
				bestScore = score
			}
		}

		if best >= 0 {
			idx := best
			match.DetectedIndex = &idx
			match.SimilarityScore = bestScore
			match.Skipped = false
			cursor = best + 1
		}
		matches = append(matches, match)
	}
	return matches
}

// CalculateMatchSimilarity scores how plausible it is that a detected block
// is the execution of a planned segment (0-100).
func CalculateMatchSimilarity(p PlannedSegment, d DetectedBlock) float64 {
	return 0.4*zoneSimilarity(p.TargetZone, d.DominantZone) +
		0.3*durationSimilarity(float64(d.DurationSec), float64(p.DurationSec)) +
		0.3*powerSimilarity(d.AvgPower, p.PowerLow, p.PowerHigh)
}

func zoneSimilarity(planned, detected int) float64 {
	switch diff := absInt(planned - detected); {
	case diff == 0:
		return 100
	case diff == 1:
		return 70
	case diff == 2:
		return 40
	default:
		return 10
	}
}

func durationSimilarity(actual, planned float64) float64 {
	if planned <= 0 {
		return 0
	}
	dev := ratioDeviation(actual / planned)
	switch {
	case dev <= 0.10:
		return 100
	case dev <= 0.20:
		return 85
	case dev <= 0.30:
		return 70
	case dev <= 0.50:
		return 50
	default:
		return 25
	}
}

// powerSimilarity degrades by two points per percent the average sits
// outside the range, measured from the nearer edge relative to the midpoint.
func powerSimilarity(avg, low, high float64) float64 {
	if avg >= low && avg <= high {
		return 100
	}
	mid := (low + high) / 2
	if mid <= 0 {
		return 0
	}
	gap := low - avg
	if avg > high {
		gap = avg - high
	}
	return math.Max(0, 100-2*(gap/mid*100))
}

// ratioDeviation is |1-ratio| with float noise trimmed so band edges like
// 1.05 land exactly on 0.05.
func ratioDeviation(ratio float64) float64 {
	return math.Round(math.Abs(1-ratio)*1e9) / 1e9
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
