package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationCompliance(t *testing.T) {
	tests := []struct {
		name           string
		actual, target float64
		want           float64
	}{
		{"exact", 600, 600, 100},
		{"within 5%", 620, 600, 100},
		{"ratio 1.05", 105, 100, 95},
		{"ratio 0.92", 92, 100, 95},
		{"ratio 1.2", 120, 100, 85},
		{"ratio 0.65", 65, 100, 70},
		{"ratio 1.5", 150, 100, 25},
		{"ratio 0.5", 50, 100, 25},
		{"ratio 0.2", 20, 100, 0},
		{"ratio 2", 200, 100, 0},
		{"no plan", 100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DurationCompliance(tt.actual, tt.target), 1e-9)
		})
	}
}

func TestPowerCompliance(t *testing.T) {
	// Range 180-220, midpoint 200.
	assert.Equal(t, 100.0, PowerCompliance(200, 180, 220))
	assert.Equal(t, 100.0, PowerCompliance(180, 180, 220))
	assert.InDelta(t, 80.0, PowerCompliance(160, 180, 220), 1e-9)
	assert.InDelta(t, 90.0, PowerCompliance(240, 180, 220), 1e-9)
	assert.Equal(t, 0.0, PowerCompliance(0, 180, 220))
	assert.Equal(t, 0.0, PowerCompliance(50, 0, 0))
}

func TestWeightsFor(t *testing.T) {
	assert.Equal(t, SegmentWeights{0.45, 0.40, 0.15}, WeightsFor(SegmentInterval))
	assert.Equal(t, SegmentWeights{0.20, 0.30, 0.50}, WeightsFor(SegmentRecovery))
	assert.Equal(t, SegmentWeights{0.35, 0.35, 0.30}, WeightsFor(SegmentType("sweetspot")))

	for segType, w := range segmentWeights {
		assert.InDelta(t, 1.0, w.Power+w.Zone+w.Duration, 1e-9, string(segType))
	}
}

func TestMatchQualityAndGrade(t *testing.T) {
	assert.Equal(t, QualityExcellent, MatchQuality(90))
	assert.Equal(t, QualityGood, MatchQuality(89.9))
	assert.Equal(t, QualityFair, MatchQuality(60))
	assert.Equal(t, QualityPoor, MatchQuality(59.9))

	assert.Equal(t, "A", Grade(90))
	assert.Equal(t, "B", Grade(80))
	assert.Equal(t, "C", Grade(79.9))
	assert.Equal(t, "D", Grade(60))
	assert.Equal(t, "F", Grade(59.9))
}

func TestScoreSegment(t *testing.T) {
	p := PlannedSegment{Index: 2, Name: "Threshold", Type: SegmentWork, DurationSec: 600, PowerLow: 190, PowerHigh: 210, TargetZone: 4}
	block := DetectedBlock{
		Index:            5,
		StartSec:         900,
		EndSec:           1500,
		DurationSec:      600,
		DominantZone:     4,
		AvgPower:         200,
		MaxPower:         260,
		MinPower:         150,
		ZoneDistribution: [5]float64{0, 0, 0.2, 0.8, 0},
	}

	sa := ScoreSegment(p, &block, 93.25)
	assert.Equal(t, 100.0, sa.Scores.PowerCompliance)
	assert.Equal(t, 80.0, sa.Scores.ZoneCompliance)
	assert.Equal(t, 100.0, sa.Scores.DurationCompliance)
	assert.Equal(t, 92.0, sa.Scores.Overall)
	assert.Equal(t, QualityExcellent, sa.MatchQuality)
	assert.Equal(t, 93.3, sa.SimilarityScore)
	require.NotNil(t, sa.DetectedIndex)
	assert.Equal(t, 5, *sa.DetectedIndex)
	assert.Equal(t, 900, *sa.ActualStartSec)
	assert.Equal(t, 260.0, *sa.ActualMaxPower)
	assert.False(t, sa.Skipped())
	assert.NotEmpty(t, sa.Assessment)
}

func TestScoreSegment_Skipped(t *testing.T) {
	p := PlannedSegment{Index: 0, Name: "VO2", Type: SegmentInterval, DurationSec: 180, PowerLow: 240, PowerHigh: 260, TargetZone: 5}

	sa := ScoreSegment(p, nil, 0)
	assert.True(t, sa.Skipped())
	assert.Equal(t, QualitySkipped, sa.MatchQuality)
	assert.Zero(t, sa.Scores)
	assert.Nil(t, sa.DetectedIndex)
	assert.Nil(t, sa.ActualAvgPower)
	assert.Equal(t, "No matching effort found in the ride.", sa.Assessment)
}

func TestCalculateOverallCompliance_NotCompleted(t *testing.T) {
	want := OverallComplianceResult{Score: 0, Grade: "F", Summary: "Workout not completed"}
	assert.Equal(t, want, CalculateOverallCompliance(nil))

	skipped := []SegmentAnalysis{
		{PlannedDurationSec: 600, MatchQuality: QualitySkipped},
		{PlannedDurationSec: 300, MatchQuality: QualitySkipped},
	}
	got := CalculateOverallCompliance(skipped)
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, "F", got.Grade)
	assert.Equal(t, "Workout not completed", got.Summary)
	assert.Equal(t, 2, got.SegmentsSkipped)
	assert.Equal(t, 2, got.SegmentsTotal)
}

func TestCalculateOverallCompliance_Weighted(t *testing.T) {
	segments := []SegmentAnalysis{
		{PlannedDurationSec: 600, MatchQuality: QualityExcellent, Scores: ComplianceScores{Overall: 100}},
		{PlannedDurationSec: 1200, MatchQuality: QualityGood, Scores: ComplianceScores{Overall: 85}},
		{PlannedDurationSec: 300, MatchQuality: QualitySkipped},
	}

	got := CalculateOverallCompliance(segments)
	// (100*600 + 85*1200) / 1800 = 90, minus 5 for the skip.
	assert.Equal(t, 85.0, got.Score)
	assert.Equal(t, "B", got.Grade)
	assert.Equal(t, 2, got.SegmentsCompleted)
	assert.Equal(t, 1, got.SegmentsSkipped)
	assert.Equal(t, 3, got.SegmentsTotal)
	assert.Contains(t, got.Summary, "2 of 3 segments completed")
}

func TestCalculateOverallCompliance_FloorsAtZero(t *testing.T) {
	segments := []SegmentAnalysis{{PlannedDurationSec: 60, MatchQuality: QualityPoor, Scores: ComplianceScores{Overall: 12}}}
	for i := 0; i < 5; i++ {
		segments = append(segments, SegmentAnalysis{PlannedDurationSec: 60, MatchQuality: QualitySkipped})
	}

	got := CalculateOverallCompliance(segments)
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, "F", got.Grade)
}
