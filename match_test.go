package compliance

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannedFixture() []PlannedSegment {
	return []PlannedSegment{
		{Index: 0, Name: "Warmup", Type: SegmentWarmup, DurationSec: 600, PowerLow: 100, PowerHigh: 120, TargetZone: 2},
		{Index: 1, Name: "Threshold", Type: SegmentWork, DurationSec: 1200, PowerLow: 190, PowerHigh: 205, TargetZone: 4},
		{Index: 2, Name: "Cooldown", Type: SegmentCooldown, DurationSec: 600, PowerLow: 100, PowerHigh: 120, TargetZone: 2},
	}
}

func TestCalculateMatchSimilarity(t *testing.T) {
	p := plannedFixture()[1]

	exact := DetectedBlock{DurationSec: 1200, DominantZone: 4, AvgPower: 198}
	assert.InDelta(t, 100.0, CalculateMatchSimilarity(p, exact), 1e-9)

	// One zone off, 25% short, 10% of the midpoint under the range.
	off := DetectedBlock{DurationSec: 900, DominantZone: 3, AvgPower: 190 - 19.75}
	assert.InDelta(t, 0.4*70+0.3*70+0.3*80, CalculateMatchSimilarity(p, off), 1e-6)
}

func TestMatchSegments_InOrder(t *testing.T) {
	detected := []DetectedBlock{
		{Index: 0, DurationSec: 610, DominantZone: 2, AvgPower: 112},
		{Index: 1, DurationSec: 1190, DominantZone: 4, AvgPower: 198},
		{Index: 2, DurationSec: 590, DominantZone: 2, AvgPower: 108},
	}

	matches := MatchSegments(plannedFixture(), detected, DefaultMatchThreshold, DefaultMatchLookahead)
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.False(t, m.Skipped)
		require.NotNil(t, m.DetectedIndex)
		assert.Equal(t, i, *m.DetectedIndex)
		assert.Equal(t, i, m.PlannedIndex)
		assert.GreaterOrEqual(t, m.SimilarityScore, DefaultMatchThreshold)
	}
}

func TestMatchSegments_SkipKeepsCursor(t *testing.T) {
	// The threshold block was never ridden, so the cooldown must still find
	// the second easy block.
	detected := []DetectedBlock{
		{Index: 0, DurationSec: 600, DominantZone: 2, AvgPower: 110},
		{Index: 1, DurationSec: 600, DominantZone: 2, AvgPower: 110},
	}

	matches := MatchSegments(plannedFixture(), detected, DefaultMatchThreshold, DefaultMatchLookahead)
	require.Len(t, matches, 3)
	assert.Equal(t, 0, *matches[0].DetectedIndex)
	assert.True(t, matches[1].Skipped)
	assert.Nil(t, matches[1].DetectedIndex)
	assert.Zero(t, matches[1].SimilarityScore)
	require.NotNil(t, matches[2].DetectedIndex)
	assert.Equal(t, 1, *matches[2].DetectedIndex)
}

func TestMatchSegments_LookaheadLimit(t *testing.T) {
	planned := []PlannedSegment{plannedFixture()[1]}
	detected := []DetectedBlock{
		{Index: 0, DurationSec: 30, DominantZone: 1, AvgPower: 50},
		{Index: 1, DurationSec: 30, DominantZone: 1, AvgPower: 50},
		{Index: 2, DurationSec: 1200, DominantZone: 4, AvgPower: 198},
	}

	matches := MatchSegments(planned, detected, DefaultMatchThreshold, 2)
	assert.True(t, matches[0].Skipped)

	matches = MatchSegments(planned, detected, DefaultMatchThreshold, 3)
	require.NotNil(t, matches[0].DetectedIndex)
	assert.Equal(t, 2, *matches[0].DetectedIndex)
}

func TestMatchSegments_NoBlocks(t *testing.T) {
	matches := MatchSegments(plannedFixture(), nil, DefaultMatchThreshold, DefaultMatchLookahead)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.True(t, m.Skipped)
	}
}

func randomPlan(r *rand.Rand) ([]PlannedSegment, []DetectedBlock) {
	planned := make([]PlannedSegment, r.Intn(12))
	for i := range planned {
		low := 50 + r.Float64()*250
		planned[i] = PlannedSegment{
			Index:       i,
			DurationSec: 10 + r.Intn(1200),
			PowerLow:    low,
			PowerHigh:   low + r.Float64()*40,
			TargetZone:  1 + r.Intn(5),
		}
	}
	detected := make([]DetectedBlock, r.Intn(12))
	for i := range detected {
		detected[i] = DetectedBlock{
			Index:        i,
			DurationSec:  10 + r.Intn(1200),
			DominantZone: 1 + r.Intn(5),
			AvgPower:     r.Float64() * 350,
		}
	}
	return planned, detected
}

func TestMatchSegments_Exclusive(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for n := 0; n < 500; n++ {
		planned, detected := randomPlan(r)
		threshold := r.Float64() * 100
		lookahead := 1 + r.Intn(5)

		matches := MatchSegments(planned, detected, threshold, lookahead)
		require.Len(t, matches, len(planned))

		last := -1
		for _, m := range matches {
			if m.Skipped {
				assert.Nil(t, m.DetectedIndex)
				continue
			}
			require.NotNil(t, m.DetectedIndex)
			require.Greater(t, *m.DetectedIndex, last, "detected blocks must be used once and in order")
			last = *m.DetectedIndex
		}
	}
}

func FuzzMatchSegments(f *testing.F) {
	f.Add(int64(1), 50.0, 3)
	f.Add(int64(7), 0.0, 1)
	f.Fuzz(func(t *testing.T, seed int64, threshold float64, lookahead int) {
		planned, detected := randomPlan(rand.New(rand.NewSource(seed)))
		seen := map[int]bool{}
		for _, m := range MatchSegments(planned, detected, threshold, lookahead) {
			if m.DetectedIndex == nil {
				continue
			}
			if seen[*m.DetectedIndex] {
				t.Fatalf("detected block %d matched twice", *m.DetectedIndex)
			}
			seen[*m.DetectedIndex] = true
		}
	})
}
