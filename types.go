package compliance

// AlgorithmVersion is stamped into every analysis result.
const AlgorithmVersion = "workout_compliance_v1"

// SegmentType is the canonical planned-segment vocabulary.
type SegmentType string

const (
	SegmentWarmup   SegmentType = "warmup"
	SegmentWork     SegmentType = "work"
	SegmentInterval SegmentType = "interval"
	SegmentRecovery SegmentType = "recovery"
	SegmentCooldown SegmentType = "cooldown"
	SegmentSteady   SegmentType = "steady"
	SegmentTempo    SegmentType = "tempo"
)

// Match quality labels.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
	QualitySkipped   = "skipped"
)

// Power data quality labels.
const (
	DataQualityGood    = "good"
	DataQualityPartial = "partial"
	DataQualityMissing = "missing"
)

// PlannedSegment is one flattened target interval in absolute watts.
type PlannedSegment struct {
	Index       int         `json:"index"`
	Name        string      `json:"name"`
	Type        SegmentType `json:"type"`
	DurationSec int         `json:"duration_sec"`
	PowerLow    float64     `json:"power_low"`
	PowerHigh   float64     `json:"power_high"`
	TargetZone  int         `json:"target_zone"`
}

// MidPower is the centre of the target range.
func (p PlannedSegment) MidPower() float64 {
	return (p.PowerLow + p.PowerHigh) / 2
}

// AdaptiveParameters controls detection sensitivity.
type AdaptiveParameters struct {
	ShortestSegmentSec    int `json:"shortest_segment_sec"`
	SmoothingWindowSec    int `json:"smoothing_window_sec"`
	MinSegmentDurationSec int `json:"min_segment_duration_sec"`
	BoundaryStabilitySec  int `json:"boundary_stability_sec"`
}

// DetectedBlock is a contiguous effort region found in the power stream.
// EndSec is exclusive.
type DetectedBlock struct {
	Index            int        `json:"index"`
	StartSec         int        `json:"start_sec"`
	EndSec           int        `json:"end_sec"`
	DurationSec      int        `json:"duration_sec"`
	DominantZone     int        `json:"dominant_zone"`
	AvgPower         float64    `json:"avg_power"`
	MaxPower         float64    `json:"max_power"`
	MinPower         float64    `json:"min_power"`
	ZoneDistribution [5]float64 `json:"zone_distribution"`
}

// SegmentMatch pairs a planned segment with at most one detected block.
type SegmentMatch struct {
	PlannedIndex    int     `json:"planned_index"`
	DetectedIndex   *int    `json:"detected_index"`
	SimilarityScore float64 `json:"similarity_score"`
	Skipped         bool    `json:"skipped"`
}

// ComplianceScores are the 0-100 sub-scores of one segment.
type ComplianceScores struct {
	PowerCompliance    float64 `json:"power_compliance"`
	ZoneCompliance     float64 `json:"zone_compliance"`
	DurationCompliance float64 `json:"duration_compliance"`
	Overall            float64 `json:"overall"`
}

// SegmentAnalysis is a fully scored planned segment. Actual fields are nil
// when the segment was skipped.
type SegmentAnalysis struct {
	PlannedIndex       int         `json:"planned_index"`
	PlannedName        string      `json:"planned_name"`
	PlannedType        SegmentType `json:"planned_type"`
	PlannedDurationSec int         `json:"planned_duration_sec"`
	PlannedPowerLow    float64     `json:"planned_power_low"`
	PlannedPowerHigh   float64     `json:"planned_power_high"`
	PlannedZone        int         `json:"planned_zone"`

	DetectedIndex      *int     `json:"detected_index"`
	ActualStartSec     *int     `json:"actual_start_sec"`
	ActualEndSec       *int     `json:"actual_end_sec"`
	ActualDurationSec  *int     `json:"actual_duration_sec"`
	ActualAvgPower     *float64 `json:"actual_avg_power"`
	ActualMaxPower     *float64 `json:"actual_max_power"`
	ActualMinPower     *float64 `json:"actual_min_power"`
	ActualDominantZone *int     `json:"actual_dominant_zone"`

	Scores          ComplianceScores `json:"scores"`
	SimilarityScore float64          `json:"similarity_score"`
	MatchQuality    string           `json:"match_quality"`
	Assessment      string           `json:"assessment"`
}

// Skipped reports whether no detected block was paired with the segment.
func (s SegmentAnalysis) Skipped() bool {
	return s.MatchQuality == QualitySkipped
}

// OverallComplianceResult is the workout-level outcome.
type OverallComplianceResult struct {
	Score             float64 `json:"score"`
	Grade             string  `json:"grade"`
	Summary           string  `json:"summary"`
	SegmentsCompleted int     `json:"segments_completed"`
	SegmentsSkipped   int     `json:"segments_skipped"`
	SegmentsTotal     int     `json:"segments_total"`
}

// AnalysisMetadata describes how the analysis was produced.
type AnalysisMetadata struct {
	AlgorithmVersion   string             `json:"algorithm_version"`
	PowerDataQuality   string             `json:"power_data_quality"`
	AdaptiveParameters AdaptiveParameters `json:"adaptive_parameters"`
	PlanFormat         PlanFormat         `json:"plan_format"`
	FTPWatts           float64            `json:"ftp_watts"`
	StreamSeconds      int                `json:"stream_seconds"`
	DetectedBlockCount int                `json:"detected_block_count"`
	MatchThreshold     float64            `json:"match_threshold"`
	MatchLookahead     int                `json:"match_lookahead"`
}

// WorkoutComplianceAnalysis is the complete result of Analyze.
type WorkoutComplianceAnalysis struct {
	Overall        OverallComplianceResult `json:"overall"`
	Segments       []SegmentAnalysis       `json:"segments"`
	DetectedBlocks []DetectedBlock         `json:"detected_blocks,omitempty"`
	Metadata       AnalysisMetadata        `json:"metadata"`
}
