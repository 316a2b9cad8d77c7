package pipeline

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	compliance "github.com/lucasjlepore/fit-compliance"
	"github.com/tormoder/fit"
)

// maxFillGapSec is the longest recording gap bridged with the last power
// value. Longer gaps are zero-filled as dropouts.
const maxFillGapSec = 30

// FIT profile values used when reading workout_step messages.
const (
	wktDurationTime            = 0
	wktDurationRepeatSteps     = 6
	wktDurationRepetitionTime  = 28
	wktDurationTimeOnly        = 31
	wktTargetPower             = 4
	wktIntensityActive         = 0
	wktIntensityRest           = 1
	wktIntensityWarmup         = 2
	wktIntensityCooldown       = 3
	wktIntensityRecovery       = 4
	wktIntensityInterval       = 5
	wktPowerWattsOffset        = 1000
	invalidThresholdPower      = math.MaxUint16
	invalidRecordPower         = math.MaxUint16
	maxPlausibleThresholdPower = 600
)

// zoneTargetPct maps a FIT power-zone target (1-5) onto a percent-of-FTP range.
var zoneTargetPct = map[uint32][2]float64{
	1: {40, 55},
	2: {56, 75},
	3: {76, 90},
	4: {91, 105},
	5: {106, 120},
}

// PowerStream is a 1 Hz power series extracted from an activity.
type PowerStream struct {
	Samples []float64
	// ThresholdPower is the FTP recorded in the session message, 0 if absent.
	ThresholdPower float64
	StartTime      time.Time
	Warnings       []string
}

// DecodePowerStream reads an activity FIT file and resamples its record
// power to one value per second.
func DecodePowerStream(r io.Reader) (*PowerStream, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	stream := buildPowerStream(activity.Records)
	if len(activity.Sessions) > 0 {
		tp := activity.Sessions[0].ThresholdPower
		if tp != 0 && tp != invalidThresholdPower && tp <= maxPlausibleThresholdPower {
			stream.ThresholdPower = float64(tp)
		}
	}
	if len(stream.Samples) == 0 {
		return stream, compliance.ErrNoPowerData
	}
	return stream, nil
}

func buildPowerStream(records []*fit.RecordMsg) *PowerStream {
	type point struct {
		offset int
		power  float64
	}

	stream := &PowerStream{}
	var points []point
	var start time.Time
	invalid := 0
	for _, rec := range records {
		if rec == nil || rec.Timestamp.IsZero() {
			continue
		}
		if start.IsZero() {
			start = rec.Timestamp
		}
		offset := int(math.Round(rec.Timestamp.Sub(start).Seconds()))
		if offset < 0 {
			continue
		}
		power := 0.0
		if rec.Power == invalidRecordPower {
			invalid++
		} else {
			power = float64(rec.Power)
		}
		points = append(points, point{offset: offset, power: power})
	}
	if len(points) == 0 {
		return stream
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].offset < points[j].offset })

	stream.StartTime = start
	stream.Samples = make([]float64, points[len(points)-1].offset+1)
	filledGaps := 0
	for i, p := range points {
		stream.Samples[p.offset] = p.power
		if i == 0 {
			continue
		}
		prev := points[i-1]
		gap := p.offset - prev.offset
		if gap <= 1 {
			continue
		}
		if gap <= maxFillGapSec {
			for s := prev.offset + 1; s < p.offset; s++ {
				stream.Samples[s] = prev.power
			}
			continue
		}
		filledGaps++
	}

	if invalid > 0 {
		stream.Warnings = append(stream.Warnings, fmt.Sprintf("%d records carried no power value", invalid))
	}
	if filledGaps > 0 {
		stream.Warnings = append(stream.Warnings, fmt.Sprintf("%d recording gaps longer than %ds were zero-filled", filledGaps, maxFillGapSec))
	}
	return stream
}

// DecodeWorkout reads a FIT workout file into a structured planned workout.
// Watt targets are converted to percent of ftp; when ftp is not positive
// such steps fall back to the default target and a warning is returned.
func DecodeWorkout(r io.Reader, ftp float64) (compliance.PlannedWorkout, []string, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return compliance.PlannedWorkout{}, nil, fmt.Errorf("decode FIT file: %w", err)
	}
	wf, err := decoded.Workout()
	if err != nil {
		return compliance.PlannedWorkout{}, nil, fmt.Errorf("workout FIT expected: %w", err)
	}

	name := ""
	if wf.Workout != nil {
		name = wf.Workout.WktName
	}
	workout, warnings := workoutFromSteps(name, wf.WorkoutSteps, ftp)
	if workout.Format() == compliance.PlanFormatNone {
		return workout, warnings, compliance.ErrEmptyPlan
	}
	return workout, warnings, nil
}

type indexedStep struct {
	index int
	step  compliance.StructuredStep
}

// workoutFromSteps groups workout_step messages into structured blocks.
// A repeat step wraps every pending step from its target index onwards;
// steps before that index become a single-repetition block.
func workoutFromSteps(name string, steps []*fit.WorkoutStepMsg, ftp float64) (compliance.PlannedWorkout, []string) {
	workout := compliance.PlannedWorkout{Name: name}
	var (
		pending  []indexedStep
		warnings []string
	)
	flush := func(items []indexedStep, reps int) {
		if len(items) == 0 {
			return
		}
		block := compliance.StructuredBlock{Repetitions: reps}
		for _, it := range items {
			block.Steps = append(block.Steps, it.step)
		}
		workout.Structure = append(workout.Structure, block)
	}

	for i, msg := range steps {
		if msg == nil {
			continue
		}
		switch int(msg.DurationType) {
		case wktDurationRepeatSteps:
			from := int(validUint32(msg.DurationValue))
			reps := int(validUint32(msg.TargetValue))
			cut := sort.Search(len(pending), func(k int) bool { return pending[k].index >= from })
			if cut == len(pending) {
				warnings = append(warnings, fmt.Sprintf("step %d repeats from step %d which is already closed; ignored", i, from))
				continue
			}
			flush(pending[:cut], 1)
			flush(pending[cut:], reps)
			pending = nil
		case wktDurationTime, wktDurationRepetitionTime, wktDurationTimeOnly:
			step, warn := structuredStepFromFIT(msg, ftp)
			if warn != "" {
				warnings = append(warnings, fmt.Sprintf("step %d: %s", i, warn))
			}
			pending = append(pending, indexedStep{index: i, step: step})
		default:
			warnings = append(warnings, fmt.Sprintf("step %d has a non-time duration (type %d); skipped", i, int(msg.DurationType)))
		}
	}
	flush(pending, 1)
	return workout, warnings
}

func structuredStepFromFIT(msg *fit.WorkoutStepMsg, ftp float64) (compliance.StructuredStep, string) {
	step := compliance.StructuredStep{
		Name:           strings.TrimSpace(msg.WktStepName),
		IntensityClass: intensityClass(int(msg.Intensity)),
		Length:         compliance.StepLength{Value: float64(validUint32(msg.DurationValue)) / 1000.0, Unit: "second"},
	}
	if int(msg.TargetType) != wktTargetPower {
		return step, ""
	}

	low, high := float64(validUint32(msg.CustomTargetValueLow)), float64(validUint32(msg.CustomTargetValueHigh))
	if low <= 0 && high <= 0 {
		target := validUint32(msg.TargetValue)
		if pct, ok := zoneTargetPct[target]; ok {
			step.Targets = []compliance.StepTarget{{Type: "power", MinValue: pct[0], MaxValue: pct[1]}}
			return step, ""
		}
		low, high = float64(target), float64(target)
	}

	lowPct, okLow := workoutPowerPct(low, ftp)
	highPct, okHigh := workoutPowerPct(high, ftp)
	if !okLow || !okHigh {
		return step, "watt target needs an FTP to convert; using the default target"
	}
	if lowPct > 0 || highPct > 0 {
		step.Targets = []compliance.StepTarget{{Type: "power", MinValue: lowPct, MaxValue: highPct}}
	}
	return step, ""
}

// workoutPowerPct decodes a workout power value: values of 1000 and above are
// watts offset by 1000, smaller values are percent of FTP.
func workoutPowerPct(v, ftp float64) (float64, bool) {
	if v <= 0 {
		return 0, true
	}
	if v < wktPowerWattsOffset {
		return v, true
	}
	if ftp <= 0 {
		return 0, false
	}
	return (v - wktPowerWattsOffset) / ftp * 100, true
}

func intensityClass(intensity int) string {
	switch intensity {
	case wktIntensityWarmup:
		return "warmup"
	case wktIntensityCooldown:
		return "cooldown"
	case wktIntensityRest, wktIntensityRecovery:
		return "rest"
	case wktIntensityActive, wktIntensityInterval:
		return "active"
	default:
		return ""
	}
}

func validUint32(v uint32) uint32 {
	if v == math.MaxUint32 {
		return 0
	}
	return v
}
