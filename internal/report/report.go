// Package report renders compliance results as terminal tables.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	compliance "github.com/lucasjlepore/fit-compliance"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

const (
	defaultNameWidth = 28
	minNameWidth     = 12
)

// Renderer writes tables to w, coloring grades and match qualities when enabled.
type Renderer struct {
	w         io.Writer
	colored   bool
	nameWidth int

	good    *color.Color
	fair    *color.Color
	bad     *color.Color
	muted   *color.Color
	heading *color.Color
}

// New builds a renderer. mode is auto, yes or no; auto colors only when w
// is a terminal and NO_COLOR is unset.
func New(w io.Writer, mode string) *Renderer {
	r := &Renderer{
		w:         w,
		colored:   useColor(w, mode),
		nameWidth: nameWidth(w),
		good:      color.New(color.FgGreen),
		fair:      color.New(color.FgYellow),
		bad:       color.New(color.FgRed, color.Bold),
		muted:     color.New(color.FgHiBlack),
		heading:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{r.good, r.fair, r.bad, r.muted, r.heading} {
		if r.colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func useColor(w io.Writer, mode string) bool {
	switch mode {
	case "yes", "true", "1":
		return true
	case "no", "false", "0":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// nameWidth leaves a third of the terminal for segment names.
func nameWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultNameWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultNameWidth
	}
	return max(minNameWidth, width/3)
}

// Summary prints the workout-level headline.
func (r *Renderer) Summary(a *compliance.WorkoutComplianceAnalysis) error {
	_, err := fmt.Fprintf(
		r.w,
		"%s %s  %s\n%s\n",
		r.heading.Sprint("Compliance"),
		r.gradeColor(a.Overall.Grade).Sprintf("%.1f (%s)", a.Overall.Score, a.Overall.Grade),
		a.Overall.Summary,
		r.muted.Sprintf(
			"FTP %.0f W | %s of power data (%s) | %d blocks detected | smoothing %ds",
			a.Metadata.FTPWatts,
			formatSeconds(a.Metadata.StreamSeconds),
			a.Metadata.PowerDataQuality,
			a.Metadata.DetectedBlockCount,
			a.Metadata.AdaptiveParameters.SmoothingWindowSec,
		),
	)
	return err
}

// Segments prints one row per planned segment.
func (r *Renderer) Segments(a *compliance.WorkoutComplianceAnalysis) error {
	table := tablewriter.NewWriter(r.w)
	table.Header([]string{"#", "Segment", "Type", "Planned", "Target W", "Zone", "Actual", "Avg W", "Power", "Zone %", "Duration", "Score", "Quality"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range a.Segments {
		row := []string{
			strconv.Itoa(s.PlannedIndex + 1),
			truncate(s.PlannedName, r.nameWidth),
			string(s.PlannedType),
			formatSeconds(s.PlannedDurationSec),
			fmt.Sprintf("%.0f-%.0f", s.PlannedPowerLow, s.PlannedPowerHigh),
			fmt.Sprintf("Z%d", s.PlannedZone),
		}
		if s.Skipped() {
			row = append(row, "-", "-", "-", "-", "-", "-")
		} else {
			row = append(row,
				formatSeconds(derefInt(s.ActualDurationSec)),
				fmt.Sprintf("%.0f", derefFloat(s.ActualAvgPower)),
				fmt.Sprintf("%.1f", s.Scores.PowerCompliance),
				fmt.Sprintf("%.1f", s.Scores.ZoneCompliance),
				fmt.Sprintf("%.1f", s.Scores.DurationCompliance),
				fmt.Sprintf("%.1f", s.Scores.Overall),
			)
		}
		row = append(row, r.qualityColor(s.MatchQuality).Sprint(s.MatchQuality))
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Plan prints flattened planned segments and the detection parameters they imply.
func (r *Renderer) Plan(segments []compliance.PlannedSegment, params compliance.AdaptiveParameters) error {
	table := tablewriter.NewWriter(r.w)
	table.Header([]string{"#", "Segment", "Type", "Duration", "Low W", "High W", "Zone"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	total := 0
	var data [][]string
	for _, s := range segments {
		total += s.DurationSec
		data = append(data, []string{
			strconv.Itoa(s.Index + 1),
			truncate(s.Name, r.nameWidth),
			string(s.Type),
			formatSeconds(s.DurationSec),
			fmt.Sprintf("%.0f", s.PowerLow),
			fmt.Sprintf("%.0f", s.PowerHigh),
			fmt.Sprintf("Z%d", s.TargetZone),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(
		r.w,
		"%d segments, %s total | smoothing %ds, min block %ds, boundary window %ds\n",
		len(segments),
		formatSeconds(total),
		params.SmoothingWindowSec,
		params.MinSegmentDurationSec,
		params.BoundaryStabilitySec,
	)
	return err
}

// Zones prints the five power zones for an FTP.
func (r *Renderer) Zones(ftp float64, zones compliance.PowerZones) error {
	table := tablewriter.NewWriter(r.w)
	table.Header([]string{"Zone", "Min W", "Max W", "Min %FTP", "Max %FTP"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, z := range zones {
		maxW, maxPct := "open", "-"
		if !math.IsInf(z.Max, 1) {
			maxW = fmt.Sprintf("%.0f", z.Max)
			maxPct = fmt.Sprintf("%.0f", z.Max/ftp*100)
		}
		data = append(data, []string{
			fmt.Sprintf("Z%d", z.Zone),
			fmt.Sprintf("%.0f", z.Min),
			maxW,
			fmt.Sprintf("%.0f", z.Min/ftp*100),
			maxPct,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func (r *Renderer) gradeColor(grade string) *color.Color {
	switch grade {
	case "A", "B":
		return r.good
	case "C", "D":
		return r.fair
	default:
		return r.bad
	}
}

func (r *Renderer) qualityColor(quality string) *color.Color {
	switch quality {
	case compliance.QualityExcellent, compliance.QualityGood:
		return r.good
	case compliance.QualityFair:
		return r.fair
	case compliance.QualitySkipped:
		return r.muted
	default:
		return r.bad
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width < 4 || len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func formatSeconds(sec int) string {
	if sec <= 0 {
		return "0:00"
	}
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
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
