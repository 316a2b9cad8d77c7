package compliance

import "math"

// Options tunes the matcher. MatchThreshold is a similarity in [0, 100];
// nil selects DefaultMatchThreshold and 0 accepts the best block in the
// lookahead window. A MatchLookahead below 1 selects DefaultMatchLookahead.
type Options struct {
	MatchThreshold *float64 `json:"match_threshold,omitempty"`
	MatchLookahead int      `json:"match_lookahead"`
}

// DefaultOptions returns the standard matcher tuning.
func DefaultOptions() Options {
	return Options{
		MatchThreshold: floatPtr(DefaultMatchThreshold),
		MatchLookahead: DefaultMatchLookahead,
	}
}

// WithThreshold returns a copy of o using threshold.
func (o Options) WithThreshold(threshold float64) Options {
	o.MatchThreshold = floatPtr(threshold)
	return o
}

// Threshold resolves the effective match threshold, clamped to [0, 100].
func (o Options) Threshold() float64 {
	if o.MatchThreshold == nil || !isFinite(*o.MatchThreshold) {
		return DefaultMatchThreshold
	}
	return math.Min(100, math.Max(0, *o.MatchThreshold))
}

// WithDefaults fills unset fields so the result records the tuning in use.
func (o Options) WithDefaults() Options {
	o.MatchThreshold = floatPtr(o.Threshold())
	if o.MatchLookahead < 1 {
		o.MatchLookahead = DefaultMatchLookahead
	}
	return o
}

// Analyze scores a 1 Hz power stream against a planned workout.
// Callers are expected to have checked the inputs with ValidateInputs;
// Analyze itself never fails and degrades to an all-skipped result.
func Analyze(workout PlannedWorkout, power []float64, ftp float64, opts Options) WorkoutComplianceAnalysis {
	opts = opts.WithDefaults()

	samples := sanitizePower(power)
	planned := FlattenWorkout(workout, ftp)
	params := SelectAdaptiveParameters(planned)

	zones := CalculatePowerZones(ftp)
	smoothed := SmoothPowerStream(samples, params.SmoothingWindowSec)
	timeline := CreateZoneTimeline(smoothed, zones)
	blocks := DetectEffortBlocks(samples, timeline, params)

	matches := MatchSegments(planned, blocks, opts.Threshold(), opts.MatchLookahead)
	segments := make([]SegmentAnalysis, 0, len(planned))
	for i, p := range planned {
		m := matches[i]
		var block *DetectedBlock
		if !m.Skipped && m.DetectedIndex != nil {
			block = &blocks[*m.DetectedIndex]
		}
		segments = append(segments, ScoreSegment(p, block, m.SimilarityScore))
	}

	return WorkoutComplianceAnalysis{
		Overall:        CalculateOverallCompliance(segments),
		Segments:       segments,
		DetectedBlocks: blocks,
		Metadata: AnalysisMetadata{
			AlgorithmVersion:   AlgorithmVersion,
			PowerDataQuality:   AssessPowerDataQuality(samples),
			AdaptiveParameters: params,
			PlanFormat:         workout.Format(),
			FTPWatts:           ftp,
			StreamSeconds:      len(samples),
			DetectedBlockCount: len(blocks),
			MatchThreshold:     opts.Threshold(),
			MatchLookahead:     opts.MatchLookahead,
		},
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	best := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best
}

func minValue(values []float64) float64 {
	best := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v < best {
			best = v
			found = true
		}
	}
	return best
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
