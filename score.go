package compliance

import (
	"fmt"
	"math"
)

// skipPenalty is subtracted from the workout score per skipped segment.
const skipPenalty = 5.0

// SegmentWeights mixes the three sub-scores into a segment score.
type SegmentWeights struct {
	Power    float64 `json:"power"`
	Zone     float64 `json:"zone"`
	Duration float64 `json:"duration"`
}

var defaultSegmentWeights = SegmentWeights{Power: 0.35, Zone: 0.35, Duration: 0.30}

// segmentWeights is read-only; use WeightsFor.
var segmentWeights = map[SegmentType]SegmentWeights{
	SegmentWarmup:   {Power: 0.25, Zone: 0.35, Duration: 0.40},
	SegmentCooldown: {Power: 0.25, Zone: 0.35, Duration: 0.40},
	SegmentWork:     {Power: 0.45, Zone: 0.40, Duration: 0.15},
	SegmentInterval: {Power: 0.45, Zone: 0.40, Duration: 0.15},
	SegmentRecovery: {Power: 0.20, Zone: 0.30, Duration: 0.50},
	SegmentSteady:   {Power: 0.40, Zone: 0.40, Duration: 0.20},
	SegmentTempo:    {Power: 0.40, Zone: 0.40, Duration: 0.20},
}

// WeightsFor returns the sub-score weights of a segment type.
func WeightsFor(t SegmentType) SegmentWeights {
	if w, ok := segmentWeights[t]; ok {
		return w
	}
	return defaultSegmentWeights
}

// PowerCompliance scores average power against a target range. Falling short
// costs two points per percent of the midpoint, overshooting costs one.
func PowerCompliance(avg, low, high float64) float64 {
	if avg >= low && avg <= high {
		return 100
	}
	mid := (low + high) / 2
	if mid <= 0 {
		return 0
	}
	if avg < low {
		deficitPct := (low - avg) / mid * 100
		return math.Max(0, 100-2*deficitPct)
	}
	excessPct := (avg - high) / mid * 100
	return math.Max(0, 100-excessPct)
}

// ZoneCompliance is the percentage of block samples inside the target zone.
func ZoneCompliance(block DetectedBlock, targetZone int) float64 {
	if targetZone < 1 || targetZone > 5 {
		return 0
	}
	return block.ZoneDistribution[targetZone-1] * 100
}

// DurationCompliance scores the actual/planned duration ratio. Beyond the
// 40% band the score falls 1.5 points per percent, reaching 25 at 1.5x.
func DurationCompliance(actualSec, plannedSec float64) float64 {
	if plannedSec <= 0 {
		return 0
	}
	dev := ratioDeviation(actualSec / plannedSec)
	switch {
	case dev < 0.05:
		return 100
	case dev <= 0.10:
		return 95
	case dev <= 0.20:
		return 85
	case dev <= 0.40:
		return 70
	default:
		return math.Max(0, 100-dev*150)
	}
}

// MatchQuality labels a segment score.
func MatchQuality(score float64) string {
	switch {
	case score >= 90:
		return QualityExcellent
	case score >= 75:
		return QualityGood
	case score >= 60:
		return QualityFair
	default:
		return QualityPoor
	}
}

// Grade maps a workout score to a letter.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// ScoreSegment builds the analysis of one planned segment. A nil block
// marks the segment skipped.
func ScoreSegment(p PlannedSegment, block *DetectedBlock, similarity float64) SegmentAnalysis {
	sa := SegmentAnalysis{
		PlannedIndex:       p.Index,
		PlannedName:        p.Name,
		PlannedType:        p.Type,
		PlannedDurationSec: p.DurationSec,
		PlannedPowerLow:    round1(p.PowerLow),
		PlannedPowerHigh:   round1(p.PowerHigh),
		PlannedZone:        p.TargetZone,
	}
	if block == nil {
		sa.MatchQuality = QualitySkipped
		sa.Assessment = assessSegment(sa)
		return sa
	}

	w := WeightsFor(p.Type)
	scores := ComplianceScores{
		PowerCompliance:    PowerCompliance(block.AvgPower, p.PowerLow, p.PowerHigh),
		ZoneCompliance:     ZoneCompliance(*block, p.TargetZone),
		DurationCompliance: DurationCompliance(float64(block.DurationSec), float64(p.DurationSec)),
	}
	scores.Overall = w.Power*scores.PowerCompliance + w.Zone*scores.ZoneCompliance + w.Duration*scores.DurationCompliance

	sa.Scores = ComplianceScores{
		PowerCompliance:    round1(scores.PowerCompliance),
		ZoneCompliance:     round1(scores.ZoneCompliance),
		DurationCompliance: round1(scores.DurationCompliance),
		Overall:            round1(scores.Overall),
	}
	sa.SimilarityScore = round1(similarity)
	sa.MatchQuality = MatchQuality(sa.Scores.Overall)

	sa.DetectedIndex = intPtr(block.Index)
	sa.ActualStartSec = intPtr(block.StartSec)
	sa.ActualEndSec = intPtr(block.EndSec)
	sa.ActualDurationSec = intPtr(block.DurationSec)
	sa.ActualAvgPower = floatPtr(round1(block.AvgPower))
	sa.ActualMaxPower = floatPtr(round1(block.MaxPower))
	sa.ActualMinPower = floatPtr(round1(block.MinPower))
	sa.ActualDominantZone = intPtr(block.DominantZone)
	sa.Assessment = assessSegment(sa)
	return sa
}

// CalculateOverallCompliance combines segment scores into the workout
// result: a planned-duration weighted mean of matched segments, minus five
// points per skipped segment, floored at zero.
func CalculateOverallCompliance(segments []SegmentAnalysis) OverallComplianceResult {
	result := OverallComplianceResult{SegmentsTotal: len(segments)}

	weighted := 0.0
	totalDuration := 0.0
	for _, s := range segments {
		if s.Skipped() {
			result.SegmentsSkipped++
			continue
		}
		result.SegmentsCompleted++
		weighted += s.Scores.Overall * float64(s.PlannedDurationSec)
		totalDuration += float64(s.PlannedDurationSec)
	}

	if result.SegmentsCompleted == 0 {
		result.Score = 0
		result.Grade = "F"
		result.Summary = "Workout not completed"
		return result
	}

	score := 0.0
	if totalDuration > 0 {
		score = weighted / totalDuration
	} else {
		// Zero-length plans fall back to an unweighted mean.
		for _, s := range segments {
			if !s.Skipped() {
				score += s.Scores.Overall
			}
		}
		score /= float64(result.SegmentsCompleted)
	}
	score -= skipPenalty * float64(result.SegmentsSkipped)
	score = math.Min(100, math.Max(0, score))

	result.Score = round1(score)
	result.Grade = Grade(result.Score)
	result.Summary = overallSummary(result)
	return result
}

func overallSummary(r OverallComplianceResult) string {
	var lead string
	switch r.Grade {
	case "A":
		lead = "Excellent execution"
	case "B":
		lead = "Good execution"
	case "C":
		lead = "Fair execution"
	case "D":
		lead = "Poor execution"
	default:
		lead = "Workout largely deviated from the plan"
	}
	summary := fmt.Sprintf("%s: %d of %d segments completed", lead, r.SegmentsCompleted, r.SegmentsTotal)
	if r.SegmentsSkipped > 0 {
		summary += fmt.Sprintf(", %d skipped", r.SegmentsSkipped)
	}
	return summary
}
