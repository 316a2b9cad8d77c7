package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	compliance "github.com/lucasjlepore/fit-compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlPlan = `
name: Threshold 3x8
segments:
  - type: warmup
    duration_min: 10
    power_low_pct: 50
    power_high_pct: 65
  - type: intervals
    sets: 3
    work:
      duration_min: 8
      power_low_pct: 95
      power_high_pct: 105
    recovery:
      duration_min: 4
      power_low_pct: 50
      power_high_pct: 60
  - type: cooldown
    duration_min: 10
    power_low_pct: 40
    power_high_pct: 55
`

func TestInputKind(t *testing.T) {
	assert.Equal(t, KindFIT, InputKind("ride.FIT"))
	assert.Equal(t, KindJSON, InputKind("plan.json"))
	assert.Equal(t, KindYAML, InputKind("plan.yml"))
	assert.Equal(t, KindYAML, InputKind("plan.yaml"))
	assert.Equal(t, KindCSV, InputKind("canonical_samples.csv"))
	assert.Equal(t, "", InputKind("plan.txt"))
}

func TestLoadPlan_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plan.yaml", yamlPlan)

	workout, warnings, err := LoadPlan(path, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "Threshold 3x8", workout.Name)
	assert.Equal(t, compliance.PlanFormatLegacy, workout.Format())
	require.Len(t, workout.Segments, 3)
	require.NotNil(t, workout.Segments[1].Work)
	assert.Equal(t, 8.0, workout.Segments[1].Work.DurationMin)
	assert.Len(t, compliance.FlattenWorkout(workout, 250), 8)
}

func TestLoadPlan_JSONStructured(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plan.json", `{
		"structure": [{"repetitions": 5, "steps": [
			{"name": "On", "intensity_class": "active", "length": {"value": 30, "unit": "second"},
			 "targets": [{"type": "power", "min_value": 120, "max_value": 130}]},
			{"name": "Off", "intensity_class": "rest", "length": {"value": 30, "unit": "second"}}
		]}]
	}`)

	workout, _, err := LoadPlan(path, 0)
	require.NoError(t, err)
	assert.Equal(t, compliance.PlanFormatStructured, workout.Format())
	assert.Len(t, compliance.FlattenWorkout(workout, 250), 10)
}

func TestLoadPlan_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadPlan(writeFile(t, dir, "plan.txt", "warmup 10min"), 0)
	assert.ErrorIs(t, err, compliance.ErrUnsupportedPlanFormat)

	_, _, err = LoadPlan(writeFile(t, dir, "empty.json", `{"name": "nothing"}`), 0)
	assert.ErrorIs(t, err, compliance.ErrEmptyPlan)

	_, _, err = LoadPlan(writeFile(t, dir, "broken.json", `{"segments": [`), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse plan broken.json")

	_, _, err = LoadPlan(filepath.Join(dir, "missing.json"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPowerStream_JSON(t *testing.T) {
	dir := t.TempDir()

	stream, err := LoadPowerStream(writeFile(t, dir, "array.json", `[100, 110.5, 0, 120]`))
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 110.5, 0, 120}, stream.Samples)

	stream, err = LoadPowerStream(writeFile(t, dir, "object.json", `{"ftp": 240, "watts": [150, 155]}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{150, 155}, stream.Samples)
	assert.Equal(t, 240.0, stream.ThresholdPower)

	_, err = LoadPowerStream(writeFile(t, dir, "empty.json", `[]`))
	assert.ErrorIs(t, err, compliance.ErrNoPowerData)
}

func TestLoadPowerStream_CSV(t *testing.T) {
	dir := t.TempDir()

	stream, err := LoadPowerStream(writeFile(t, dir, "samples.csv", "elapsed_s,power_w,hr_bpm\n0,180,120\n1,,121\n2,185.5,122\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{180, 0, 185.5}, stream.Samples)
	require.Len(t, stream.Warnings, 1)

	stream, err = LoadPowerStream(writeFile(t, dir, "bare.csv", "200\n201\n202\n"))
	require.NoError(t, err)
	assert.Equal(t, []float64{200, 201, 202}, stream.Samples)

	_, err = LoadPowerStream(writeFile(t, dir, "nopower.csv", "elapsed_s,hr_bpm\n0,120\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "power_w")

	_, err = LoadPowerStream(writeFile(t, dir, "bad.csv", "power\n180\nabc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadPowerStream_FIT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ride.fit")
	require.NoError(t, os.WriteFile(path, buildActivityFIT(t, gappyRecords(), 250), 0o644))

	stream, err := LoadPowerStream(path)
	require.NoError(t, err)
	assert.Len(t, stream.Samples, 101)
	assert.Equal(t, 250.0, stream.ThresholdPower)
}
