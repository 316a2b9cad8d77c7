package pipeline

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	compliance "github.com/lucasjlepore/fit-compliance"
)

// Segment table formats.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Run loads the plan and power stream, scores the ride and writes the
// artifact bundle into opts.OutDir.
func Run(opts Options) (*Result, error) {
	if strings.TrimSpace(opts.PlanPath) == "" {
		return nil, fmt.Errorf("plan path is required")
	}
	if strings.TrimSpace(opts.StreamPath) == "" {
		return nil, fmt.Errorf("power stream path is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var warnings []string

	stream, err := LoadPowerStream(opts.StreamPath)
	switch {
	case errors.Is(err, compliance.ErrNoPowerData):
		logger.Warn("power stream has no samples; every segment will be skipped", "stream", opts.StreamPath)
		warnings = append(warnings, err.Error())
		if stream == nil {
			stream = &PowerStream{}
		}
	case err != nil:
		return nil, err
	}
	warnings = append(warnings, stream.Warnings...)

	ftp, err := chooseFTP(opts.FTPOverride, stream)
	if err != nil {
		return nil, err
	}

	workout, planWarnings, err := LoadPlan(opts.PlanPath, ftp.Watts)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	warnings = append(warnings, planWarnings...)
	if err := compliance.ValidateInputs(workout, ftp.Watts); err != nil {
		return nil, fmt.Errorf("validate plan: %w", err)
	}

	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	match := opts.Match.WithDefaults()
	analysis := compliance.Analyze(workout, stream.Samples, ftp.Watts, match)
	if analysis.Metadata.PowerDataQuality == compliance.DataQualityPartial {
		logger.Warn("power stream has many zero samples", "stream", opts.StreamPath, "seconds", analysis.Metadata.StreamSeconds)
	}
	logger.Info("workout scored",
		"plan", filepath.Base(opts.PlanPath),
		"score", analysis.Overall.Score,
		"grade", analysis.Overall.Grade,
		"segments_completed", analysis.Overall.SegmentsCompleted,
		"segments_total", analysis.Overall.SegmentsTotal,
		"detected_blocks", analysis.Metadata.DetectedBlockCount,
	)

	runID := uuid.NewString()
	analysisPath := filepath.Join(opts.OutDir, "compliance.json")
	if err := writeJSON(analysisPath, analysis); err != nil {
		return nil, fmt.Errorf("write compliance.json: %w", err)
	}

	rows := segmentRows(analysis.Segments)
	segmentsPath := filepath.Join(opts.OutDir, "segments."+format)
	switch format {
	case FormatCSV:
		err = writeSegmentsCSV(segmentsPath, rows)
	case FormatParquet:
		err = writeSegmentsParquet(segmentsPath, rows)
	default:
		err = writeJSON(segmentsPath, rows)
	}
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", filepath.Base(segmentsPath), err)
	}

	summaryPath := filepath.Join(opts.OutDir, "compliance_summary.md")
	if err := os.WriteFile(summaryPath, []byte(buildSummaryMarkdown(workout.Name, &analysis)), 0o644); err != nil {
		return nil, fmt.Errorf("write compliance_summary.md: %w", err)
	}

	planSource, err := describeSource(opts.PlanPath)
	if err != nil {
		return nil, err
	}
	streamSource, err := describeSource(opts.StreamPath)
	if err != nil {
		return nil, err
	}
	manifest := Manifest{
		FormatVersion:    FormatVersion,
		AlgorithmVersion: compliance.AlgorithmVersion,
		RunID:            runID,
		GeneratedAt:      time.Now().UTC(),
		Plan:             planSource,
		Stream:           streamSource,
		PlanFormat:       string(workout.Format()),
		FTP:              ftp,
		Options:          match,
		SegmentFormat:    format,
		Outputs: []string{
			filepath.Base(analysisPath),
			filepath.Base(segmentsPath),
			filepath.Base(summaryPath),
		},
		Warnings: warnings,
	}
	manifestPath := filepath.Join(opts.OutDir, "manifest.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}
	logger.Info("compliance bundle written", "run_id", runID, "dir", opts.OutDir, "format", format)

	return &Result{
		OutputDir:    opts.OutDir,
		RunID:        runID,
		ManifestPath: manifestPath,
		AnalysisPath: analysisPath,
		SegmentsPath: segmentsPath,
		SummaryPath:  summaryPath,
		Warnings:     warnings,
		Analysis:     &analysis,
	}, nil
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatParquet:
		return format, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected json|csv|parquet)", format)
	}
}

// chooseFTP prefers the explicit override over the session threshold power.
func chooseFTP(override float64, stream *PowerStream) (FTPChoice, error) {
	if override > 0 {
		return FTPChoice{Watts: override, Source: "override"}, nil
	}
	if stream != nil && stream.ThresholdPower > 0 {
		return FTPChoice{Watts: stream.ThresholdPower, Source: "activity"}, nil
	}
	return FTPChoice{}, fmt.Errorf("%w: pass --ftp, the activity records none", compliance.ErrInvalidFTP)
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func describeSource(path string) (SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return SourceFile{}, fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return SourceFile{}, fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return SourceFile{
		Path:      path,
		Name:      filepath.Base(path),
		Kind:      InputKind(path),
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
	}, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var segmentCSVHeader = []string{
	"planned_index", "planned_name", "planned_type", "planned_duration_sec", "planned_power_low", "planned_power_high", "planned_zone",
	"matched", "detected_index", "actual_start_sec", "actual_duration_sec", "actual_avg_power", "actual_dominant_zone",
	"power_compliance", "zone_compliance", "duration_compliance", "overall_score", "similarity_score", "match_quality",
}

func writeSegmentsCSV(path string, rows []SegmentRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(segmentCSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.PlannedIndex),
			r.PlannedName,
			r.PlannedType,
			strconv.Itoa(r.PlannedDurationSec),
			formatFloat(r.PlannedPowerLow),
			formatFloat(r.PlannedPowerHigh),
			strconv.Itoa(r.PlannedZone),
			strconv.FormatBool(r.Matched),
			formatIntPtr(r.DetectedIndex),
			formatIntPtr(r.ActualStartSec),
			formatIntPtr(r.ActualDurationSec),
			formatFloatPtr(r.ActualAvgPower),
			formatIntPtr(r.ActualDominantZone),
			formatFloat(r.PowerCompliance),
			formatFloat(r.ZoneCompliance),
			formatFloat(r.DurationCompliance),
			formatFloat(r.OverallScore),
			formatFloat(r.SimilarityScore),
			r.MatchQuality,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func buildSummaryMarkdown(name string, a *compliance.WorkoutComplianceAnalysis) string {
	var b strings.Builder
	title := strings.TrimSpace(name)
	if title == "" {
		title = "Planned workout"
	}
	fmt.Fprintf(&b, "# %s: grade %s (%.1f)\n\n", title, a.Overall.Grade, a.Overall.Score)
	fmt.Fprintf(&b, "%s.\n\n", a.Overall.Summary)

	b.WriteString("| # | Segment | Planned | Actual | Score | Quality |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, s := range a.Segments {
		actual := "-"
		if s.ActualAvgPower != nil && s.ActualDurationSec != nil {
			actual = fmt.Sprintf("%ds @ %.0f W", *s.ActualDurationSec, *s.ActualAvgPower)
		}
		fmt.Fprintf(
			&b,
			"| %d | %s | %ds @ %.0f-%.0f W | %s | %.1f | %s |\n",
			s.PlannedIndex+1,
			s.PlannedName,
			s.PlannedDurationSec,
			s.PlannedPowerLow,
			s.PlannedPowerHigh,
			actual,
			s.Scores.Overall,
			s.MatchQuality,
		)
	}

	b.WriteString("\n## Notes\n\n```\n")
	b.WriteString(compliance.BuildComplianceNotes(a))
	b.WriteString("\n```\n")
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
