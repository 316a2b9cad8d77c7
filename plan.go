package compliance

import (
	"fmt"
	"math"
	"strings"
)

// PlanFormat names the source representation of a planned workout.
type PlanFormat string

const (
	PlanFormatNone       PlanFormat = "none"
	PlanFormatLegacy     PlanFormat = "legacy"
	PlanFormatStructured PlanFormat = "structured"
)

const (
	fallbackLowPct  = 50.0
	fallbackHighPct = 60.0
)

// PlannedWorkout carries one of the two planned-workout shapes. When both are
// present and non-empty the structured form wins.
type PlannedWorkout struct {
	Name      string            `json:"name,omitempty" yaml:"name,omitempty"`
	Segments  []LegacySegment   `json:"segments,omitempty" yaml:"segments,omitempty"`
	Structure []StructuredBlock `json:"structure,omitempty" yaml:"structure,omitempty"`
}

// Format resolves which representation the workout uses.
func (w PlannedWorkout) Format() PlanFormat {
	switch {
	case len(w.Structure) > 0:
		return PlanFormatStructured
	case len(w.Segments) > 0:
		return PlanFormatLegacy
	default:
		return PlanFormatNone
	}
}

// LegacySegment is either a simple segment or, when Sets and Work are set,
// an interval segment expanded into work/recovery pairs.
type LegacySegment struct {
	Type         string        `json:"type" yaml:"type"`
	DurationMin  float64       `json:"duration_min,omitempty" yaml:"duration_min,omitempty"`
	PowerLowPct  float64       `json:"power_low_pct,omitempty" yaml:"power_low_pct,omitempty"`
	PowerHighPct float64       `json:"power_high_pct,omitempty" yaml:"power_high_pct,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Sets         int           `json:"sets,omitempty" yaml:"sets,omitempty"`
	Work         *IntervalPart `json:"work,omitempty" yaml:"work,omitempty"`
	Recovery     *IntervalPart `json:"recovery,omitempty" yaml:"recovery,omitempty"`
}

// IsInterval reports whether the segment expands into repetitions.
func (s LegacySegment) IsInterval() bool {
	return s.Sets > 0 && s.Work != nil
}

// IntervalPart is the work or recovery half of one interval set.
type IntervalPart struct {
	DurationMin  float64 `json:"duration_min" yaml:"duration_min"`
	PowerLowPct  float64 `json:"power_low_pct" yaml:"power_low_pct"`
	PowerHighPct float64 `json:"power_high_pct" yaml:"power_high_pct"`
}

// StructuredBlock is a repeated group of steps.
type StructuredBlock struct {
	Repetitions int              `json:"repetitions" yaml:"repetitions"`
	Steps       []StructuredStep `json:"steps" yaml:"steps"`
}

// StructuredStep is one step of a structured block.
type StructuredStep struct {
	Name           string       `json:"name" yaml:"name"`
	IntensityClass string       `json:"intensity_class" yaml:"intensity_class"`
	Length         StepLength   `json:"length" yaml:"length"`
	Targets        []StepTarget `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// StepLength is a duration value with a unit (second, minute, hour).
type StepLength struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// Seconds converts the length to whole seconds. Unknown units are treated as seconds.
func (l StepLength) Seconds() int {
	mult := 1.0
	switch strings.ToLower(strings.TrimSpace(l.Unit)) {
	case "minute", "minutes", "min", "m":
		mult = 60
	case "hour", "hours", "hr", "h":
		mult = 3600
	}
	return int(math.Round(l.Value * mult))
}

// StepTarget is one target of a step; only Type "power" is used, in percent of FTP.
type StepTarget struct {
	Type     string  `json:"type" yaml:"type"`
	MinValue float64 `json:"min_value" yaml:"min_value"`
	MaxValue float64 `json:"max_value" yaml:"max_value"`
}

// FlattenWorkout normalizes either workout shape into ordered segments in
// seconds and absolute watts.
func FlattenWorkout(w PlannedWorkout, ftp float64) []PlannedSegment {
	f := flattener{ftp: ftp}
	switch w.Format() {
	case PlanFormatStructured:
		for _, block := range w.Structure {
			f.addStructuredBlock(block)
		}
	case PlanFormatLegacy:
		for _, seg := range w.Segments {
			f.addLegacySegment(seg)
		}
	}
	return f.out
}

type flattener struct {
	ftp float64
	out []PlannedSegment
}

func (f *flattener) emit(name string, segType SegmentType, durationSec int, lowPct, highPct float64) {
	f.out = append(f.out, PlannedSegment{
		Index:       len(f.out),
		Name:        name,
		Type:        segType,
		DurationSec: durationSec,
		PowerLow:    lowPct / 100 * f.ftp,
		PowerHigh:   highPct / 100 * f.ftp,
		TargetZone:  GetTargetZone(lowPct, highPct),
	})
}

func (f *flattener) addLegacySegment(seg LegacySegment) {
	if !seg.IsInterval() {
		segType := normalizeSegmentType(seg.Type)
		name := strings.TrimSpace(seg.Description)
		if name == "" {
			name = displayName(string(segType))
		}
		f.emit(name, segType, minutesToSeconds(seg.DurationMin), seg.PowerLowPct, seg.PowerHighPct)
		return
	}

	// A parent-level duration marks the set as self-contained, so the final
	// recovery is dropped.
	trailingRecovery := seg.DurationMin <= 0
	for set := 1; set <= seg.Sets; set++ {
		work := seg.Work
		f.emit(
			fmt.Sprintf("Interval %d/%d work", set, seg.Sets),
			SegmentInterval,
			minutesToSeconds(work.DurationMin),
			work.PowerLowPct,
			work.PowerHighPct,
		)
		if seg.Recovery == nil || (set == seg.Sets && !trailingRecovery) {
			continue
		}
		rec := seg.Recovery
		f.emit(
			fmt.Sprintf("Interval %d/%d recovery", set, seg.Sets),
			SegmentRecovery,
			minutesToSeconds(rec.DurationMin),
			rec.PowerLowPct,
			rec.PowerHighPct,
		)
	}
}

func (f *flattener) addStructuredBlock(block StructuredBlock) {
	reps := block.Repetitions
	if reps < 1 {
		reps = 1
	}
	for rep := 1; rep <= reps; rep++ {
		for _, step := range block.Steps {
			segType := intensityToSegmentType(step.IntensityClass)
			name := strings.TrimSpace(step.Name)
			if name == "" {
				name = displayName(string(segType))
			}
			if reps > 1 {
				name = fmt.Sprintf("%s (%d/%d)", name, rep, reps)
			}
			low, high := powerTargetPct(step.Targets)
			f.emit(name, segType, step.Length.Seconds(), low, high)
		}
	}
}

// powerTargetPct picks the power target from a step, defaulting to 50-60%.
func powerTargetPct(targets []StepTarget) (float64, float64) {
	for _, t := range targets {
		if !strings.EqualFold(strings.TrimSpace(t.Type), "power") {
			continue
		}
		low, high := t.MinValue, t.MaxValue
		if high <= 0 {
			high = low
		}
		if low <= 0 {
			low = high
		}
		if low > high {
			low, high = high, low
		}
		if high > 0 {
			return low, high
		}
	}
	return fallbackLowPct, fallbackHighPct
}

func intensityToSegmentType(class string) SegmentType {
	switch normalizeToken(class) {
	case "warmup":
		return SegmentWarmup
	case "active":
		return SegmentWork
	case "rest":
		return SegmentRecovery
	case "cooldown":
		return SegmentCooldown
	default:
		return SegmentSteady
	}
}

func normalizeSegmentType(raw string) SegmentType {
	switch t := normalizeToken(raw); t {
	case "":
		return SegmentSteady
	case "warmup":
		return SegmentWarmup
	case "cooldown":
		return SegmentCooldown
	default:
		return SegmentType(t)
	}
}

// normalizeToken lowercases and strips separators so "Warm-Up" and "warmUp" compare equal.
func normalizeToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

func displayName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func minutesToSeconds(minutes float64) int {
	return int(math.Round(minutes * 60))
}
