package pipeline

import (
	"log/slog"
	"time"

	compliance "github.com/lucasjlepore/fit-compliance"
)

// FormatVersion is stamped into every manifest.
const FormatVersion = "fit_compliance_bundle_v1"

// Options configures one compliance run.
type Options struct {
	PlanPath   string
	StreamPath string
	OutDir     string
	// FTPOverride wins over any FTP recorded in the activity file.
	FTPOverride float64
	Format      string // json|csv|parquet
	Overwrite   bool
	Match       compliance.Options
	Logger      *slog.Logger
}

// Result returns generated output paths alongside the analysis itself.
type Result struct {
	OutputDir    string                                `json:"output_dir"`
	RunID        string                                `json:"run_id"`
	ManifestPath string                                `json:"manifest_path"`
	AnalysisPath string                                `json:"analysis_path"`
	SegmentsPath string                                `json:"segments_path"`
	SummaryPath  string                                `json:"summary_path"`
	Warnings     []string                              `json:"warnings,omitempty"`
	Analysis     *compliance.WorkoutComplianceAnalysis `json:"-"`
}

// Manifest records what a run consumed and produced.
type Manifest struct {
	FormatVersion    string             `json:"format_version"`
	AlgorithmVersion string             `json:"algorithm_version"`
	RunID            string             `json:"run_id"`
	GeneratedAt      time.Time          `json:"generated_at"`
	Plan             SourceFile         `json:"plan"`
	Stream           SourceFile         `json:"stream"`
	PlanFormat       string             `json:"plan_format"`
	FTP              FTPChoice          `json:"ftp"`
	Options          compliance.Options `json:"options"`
	SegmentFormat    string             `json:"segment_format"`
	Outputs          []string           `json:"outputs"`
	Warnings         []string           `json:"warnings,omitempty"`
}

// SourceFile identifies one input file.
type SourceFile struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Kind      string `json:"kind"` // fit|json|yaml|csv
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
}

// FTPChoice records which FTP value the analysis used and where it came from.
type FTPChoice struct {
	Watts  float64 `json:"watts"`
	Source string  `json:"source"` // override|activity
}

// SegmentRow is the flat per-segment table written as json, csv or parquet.
type SegmentRow struct {
	PlannedIndex       int      `json:"planned_index"`
	PlannedName        string   `json:"planned_name"`
	PlannedType        string   `json:"planned_type"`
	PlannedDurationSec int      `json:"planned_duration_sec"`
	PlannedPowerLow    float64  `json:"planned_power_low"`
	PlannedPowerHigh   float64  `json:"planned_power_high"`
	PlannedZone        int      `json:"planned_zone"`
	Matched            bool     `json:"matched"`
	DetectedIndex      *int     `json:"detected_index"`
	ActualStartSec     *int     `json:"actual_start_sec"`
	ActualDurationSec  *int     `json:"actual_duration_sec"`
	ActualAvgPower     *float64 `json:"actual_avg_power"`
	ActualDominantZone *int     `json:"actual_dominant_zone"`
	PowerCompliance    float64  `json:"power_compliance"`
	ZoneCompliance     float64  `json:"zone_compliance"`
	DurationCompliance float64  `json:"duration_compliance"`
	OverallScore       float64  `json:"overall_score"`
	SimilarityScore    float64  `json:"similarity_score"`
	MatchQuality       string   `json:"match_quality"`
}

func segmentRows(segments []compliance.SegmentAnalysis) []SegmentRow {
	rows := make([]SegmentRow, 0, len(segments))
	for _, s := range segments {
		rows = append(rows, SegmentRow{
			PlannedIndex:       s.PlannedIndex,
			PlannedName:        s.PlannedName,
			PlannedType:        string(s.PlannedType),
			PlannedDurationSec: s.PlannedDurationSec,
			PlannedPowerLow:    s.PlannedPowerLow,
			PlannedPowerHigh:   s.PlannedPowerHigh,
			PlannedZone:        s.PlannedZone,
			Matched:            !s.Skipped(),
			DetectedIndex:      s.DetectedIndex,
			ActualStartSec:     s.ActualStartSec,
			ActualDurationSec:  s.ActualDurationSec,
			ActualAvgPower:     s.ActualAvgPower,
			ActualDominantZone: s.ActualDominantZone,
			PowerCompliance:    s.Scores.PowerCompliance,
			ZoneCompliance:     s.Scores.ZoneCompliance,
			DurationCompliance: s.Scores.DurationCompliance,
			OverallScore:       s.Scores.Overall,
			SimilarityScore:    s.SimilarityScore,
			MatchQuality:       s.MatchQuality,
		})
	}
	return rows
}
