package compliance

import (
	"fmt"
	"math"
	"strings"
)

// BuildComplianceNotes turns an analysis into a plain-text execution summary.
func BuildComplianceNotes(a *WorkoutComplianceAnalysis) string {
	if a == nil {
		return ""
	}

	var b strings.Builder

	fmt.Fprintf(
		&b,
		"Compliance %.1f / 100 (grade %s) | %s\n",
		a.Overall.Score,
		a.Overall.Grade,
		a.Overall.Summary,
	)
	fmt.Fprintf(
		&b,
		"FTP %.0f W | Ride %s | Power data %s | %d blocks detected\n",
		a.Metadata.FTPWatts,
		formatDuration(float64(a.Metadata.StreamSeconds)),
		a.Metadata.PowerDataQuality,
		a.Metadata.DetectedBlockCount,
	)
	p := a.Metadata.AdaptiveParameters
	fmt.Fprintf(
		&b,
		"Detection smoothing %ds | min block %ds | boundary window %ds (shortest planned segment %s)\n",
		p.SmoothingWindowSec,
		p.MinSegmentDurationSec,
		p.BoundaryStabilitySec,
		formatDuration(float64(p.ShortestSegmentSec)),
	)
	if a.Metadata.PowerDataQuality == DataQualityPartial {
		b.WriteString("Data note: fewer than 80% of samples carry power; dropouts count against matching.\n")
	}

	if len(a.Segments) > 0 {
		b.WriteString("\nSegments\n")
		for _, s := range a.Segments {
			if s.Skipped() {
				fmt.Fprintf(
					&b,
					"- #%d %s (%s @ %.0f-%.0f W): skipped\n",
					s.PlannedIndex+1,
					s.PlannedName,
					formatDuration(float64(s.PlannedDurationSec)),
					s.PlannedPowerLow,
					s.PlannedPowerHigh,
				)
				continue
			}
			fmt.Fprintf(
				&b,
				"- #%d %s (%s @ %.0f-%.0f W): %.1f %s, rode %s @ %.0f W in Z%d\n",
				s.PlannedIndex+1,
				s.PlannedName,
				formatDuration(float64(s.PlannedDurationSec)),
				s.PlannedPowerLow,
				s.PlannedPowerHigh,
				s.Scores.Overall,
				s.MatchQuality,
				formatDuration(float64(derefInt(s.ActualDurationSec))),
				derefFloat(s.ActualAvgPower),
				derefInt(s.ActualDominantZone),
			)
		}
	}

	b.WriteString("\nCoaching Notes\n")
	b.WriteString("- ")
	b.WriteString(workoutAssessment(a))
	b.WriteByte('\n')
	for _, s := range a.Segments {
		if s.Skipped() || s.MatchQuality == QualityPoor {
			fmt.Fprintf(&b, "- %s: %s\n", s.PlannedName, s.Assessment)
		}
	}

	return strings.TrimSpace(b.String())
}

func workoutAssessment(a *WorkoutComplianceAnalysis) string {
	switch {
	case a.Overall.SegmentsTotal == 0 || a.Overall.SegmentsCompleted == 0:
		return "No planned segment could be matched to the ride; check the plan, FTP and power source."
	case a.Overall.Grade == "A":
		return "Workout executed as prescribed; targets, zones and durations all lined up."
	case a.Overall.SegmentsSkipped > a.Overall.SegmentsTotal/2:
		return "Most of the plan was not ridden as written; the session looks like a different workout."
	case a.Overall.Grade == "B" || a.Overall.Grade == "C":
		return "Plan structure was followed with some drift in power or duration."
	default:
		return "Execution drifted well away from the prescription; review the segment notes below."
	}
}

// assessSegment explains the weakest aspect of a scored segment.
func assessSegment(s SegmentAnalysis) string {
	if s.Skipped() {
		return "No matching effort found in the ride."
	}

	avg := derefFloat(s.ActualAvgPower)
	var power string
	switch {
	case avg < s.PlannedPowerLow:
		power = fmt.Sprintf("%.0f W under target", s.PlannedPowerLow-avg)
	case avg > s.PlannedPowerHigh:
		power = fmt.Sprintf("%.0f W over target", avg-s.PlannedPowerHigh)
	default:
		power = "power on target"
	}

	var duration string
	planned := float64(s.PlannedDurationSec)
	actual := float64(derefInt(s.ActualDurationSec))
	if planned > 0 && math.Abs(actual-planned)/planned > 0.10 {
		if actual < planned {
			duration = fmt.Sprintf("%s short", formatDuration(planned-actual))
		} else {
			duration = fmt.Sprintf("%s long", formatDuration(actual-planned))
		}
	}

	switch s.MatchQuality {
	case QualityExcellent:
		return joinNonEmpty("Nailed it", power, duration)
	case QualityGood:
		return joinNonEmpty("Solid", power, duration)
	case QualityFair:
		return joinNonEmpty("Partially on plan", power, duration)
	default:
		return joinNonEmpty(fmt.Sprintf("Off plan, mostly Z%d instead of Z%d", derefInt(s.ActualDominantZone), s.PlannedZone), power, duration)
	}
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ") + "."
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
