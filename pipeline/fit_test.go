package pipeline

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	compliance "github.com/lucasjlepore/fit-compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"
)

var fixtureStart = time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)

func powerRecord(offsetSec int, watts uint16) *fit.RecordMsg {
	rec := fit.NewRecordMsg()
	rec.Timestamp = fixtureStart.Add(time.Duration(offsetSec) * time.Second)
	rec.Power = watts
	return rec
}

// gappyRecords has a 10 s gap that gets bridged and a 70 s gap that does not.
func gappyRecords() []*fit.RecordMsg {
	var records []*fit.RecordMsg
	for s := 0; s < 10; s++ {
		records = append(records, powerRecord(s, 200))
	}
	for s := 20; s < 30; s++ {
		records = append(records, powerRecord(s, 210))
	}
	records = append(records, powerRecord(100, 220))
	return records
}

func buildActivityFIT(t *testing.T, records []*fit.RecordMsg, thresholdPower uint16) []byte {
	t.Helper()

	file, err := fit.NewFile(fit.FileTypeActivity, fit.NewHeader(fit.V20, true))
	require.NoError(t, err)
	activity, err := file.Activity()
	require.NoError(t, err)

	session := fit.NewSessionMsg()
	session.Timestamp = fixtureStart.Add(time.Hour)
	session.StartTime = fixtureStart
	session.ThresholdPower = thresholdPower
	activity.Sessions = append(activity.Sessions, session)
	activity.Records = append(activity.Records, records...)

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))
	return buf.Bytes()
}

func TestBuildPowerStream_GapFill(t *testing.T) {
	stream := buildPowerStream(gappyRecords())

	require.Len(t, stream.Samples, 101)
	assert.Equal(t, fixtureStart, stream.StartTime)
	assert.Equal(t, 200.0, stream.Samples[0])
	assert.Equal(t, 200.0, stream.Samples[15], "short gap carries the last value")
	assert.Equal(t, 210.0, stream.Samples[20])
	assert.Equal(t, 0.0, stream.Samples[50], "long gap is a dropout")
	assert.Equal(t, 220.0, stream.Samples[100])
	require.Len(t, stream.Warnings, 1)
	assert.Contains(t, stream.Warnings[0], "zero-filled")
}

func TestBuildPowerStream_InvalidPower(t *testing.T) {
	records := []*fit.RecordMsg{powerRecord(0, 150), powerRecord(1, 0xFFFF), powerRecord(2, 160)}

	stream := buildPowerStream(records)
	assert.Equal(t, []float64{150, 0, 160}, stream.Samples)
	require.Len(t, stream.Warnings, 1)
	assert.Contains(t, stream.Warnings[0], "no power value")
}

func TestBuildPowerStream_Empty(t *testing.T) {
	stream := buildPowerStream(nil)
	assert.Empty(t, stream.Samples)
	assert.True(t, stream.StartTime.IsZero())
}

func TestDecodePowerStream(t *testing.T) {
	data := buildActivityFIT(t, gappyRecords(), 265)

	stream, err := DecodePowerStream(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, stream.Samples, 101)
	assert.Equal(t, 265.0, stream.ThresholdPower)
}

func TestDecodePowerStream_NoRecords(t *testing.T) {
	data := buildActivityFIT(t, nil, 0)

	stream, err := DecodePowerStream(bytes.NewReader(data))
	assert.ErrorIs(t, err, compliance.ErrNoPowerData)
	require.NotNil(t, stream)
	assert.Zero(t, stream.ThresholdPower)
}

func workoutStep(name string, intensity uint8, durationMs uint32) *fit.WorkoutStepMsg {
	step := fit.NewWorkoutStepMsg()
	step.WktStepName = name
	step.Intensity = fit.Intensity(intensity)
	step.DurationType = fit.WktStepDuration(wktDurationTime)
	step.DurationValue = durationMs
	return step
}

func powerTarget(step *fit.WorkoutStepMsg, low, high uint32) *fit.WorkoutStepMsg {
	step.TargetType = fit.WktStepTarget(wktTargetPower)
	step.TargetValue = 0
	step.CustomTargetValueLow = low
	step.CustomTargetValueHigh = high
	return step
}

func fixtureWorkoutSteps() []*fit.WorkoutStepMsg {
	zoneTwo := workoutStep("Float", wktIntensityRest, 180000)
	zoneTwo.TargetType = fit.WktStepTarget(wktTargetPower)
	zoneTwo.TargetValue = 2
	zoneTwo.CustomTargetValueLow = 0
	zoneTwo.CustomTargetValueHigh = 0

	repeat := fit.NewWorkoutStepMsg()
	repeat.DurationType = fit.WktStepDuration(wktDurationRepeatSteps)
	repeat.DurationValue = 1
	repeat.TargetValue = 4

	open := fit.NewWorkoutStepMsg()
	open.DurationType = fit.WktStepDuration(5)

	return []*fit.WorkoutStepMsg{
		powerTarget(workoutStep("Warm up", wktIntensityWarmup, 600000), 50, 65),
		powerTarget(workoutStep("Over", wktIntensityActive, 300000), 1300, 1350),
		zoneTwo,
		repeat,
		workoutStep("Cool down", wktIntensityCooldown, 600000),
		open,
	}
}

func TestWorkoutFromSteps(t *testing.T) {
	workout, warnings := workoutFromSteps("Overs", fixtureWorkoutSteps(), 250)

	assert.Equal(t, "Overs", workout.Name)
	require.Len(t, workout.Structure, 3)
	assert.Equal(t, 1, workout.Structure[0].Repetitions)
	assert.Equal(t, 4, workout.Structure[1].Repetitions)
	require.Len(t, workout.Structure[1].Steps, 2)
	assert.Equal(t, 1, workout.Structure[2].Repetitions)

	over := workout.Structure[1].Steps[0]
	assert.Equal(t, "active", over.IntensityClass)
	assert.Equal(t, 300, over.Length.Seconds())
	require.Len(t, over.Targets, 1)
	assert.InDelta(t, 120.0, over.Targets[0].MinValue, 1e-9)
	assert.InDelta(t, 140.0, over.Targets[0].MaxValue, 1e-9)

	rest := workout.Structure[1].Steps[1]
	assert.Equal(t, "rest", rest.IntensityClass)
	require.Len(t, rest.Targets, 1)
	assert.Equal(t, 56.0, rest.Targets[0].MinValue)
	assert.Equal(t, 75.0, rest.Targets[0].MaxValue)

	assert.Empty(t, workout.Structure[2].Steps[0].Targets)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "non-time duration")

	segs := compliance.FlattenWorkout(workout, 250)
	require.Len(t, segs, 10)
	assert.Equal(t, "Over (1/4)", segs[1].Name)
	assert.Equal(t, compliance.SegmentWork, segs[1].Type)
	assert.Equal(t, "Float (4/4)", segs[8].Name)
	assert.Equal(t, compliance.SegmentCooldown, segs[9].Type)
	assert.NoError(t, compliance.ValidateInputs(workout, 250))
}

func TestWorkoutFromSteps_WattTargetsNeedFTP(t *testing.T) {
	workout, warnings := workoutFromSteps("Overs", fixtureWorkoutSteps(), 0)

	require.Len(t, workout.Structure, 3)
	assert.Empty(t, workout.Structure[1].Steps[0].Targets)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "needs an FTP")
}
