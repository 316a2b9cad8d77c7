package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	compliance "github.com/lucasjlepore/fit-compliance"
	"gopkg.in/yaml.v3"
)

// Input kinds, derived from the file extension.
const (
	KindFIT  = "fit"
	KindJSON = "json"
	KindYAML = "yaml"
	KindCSV  = "csv"
)

// powerColumns are accepted CSV header names for the power column, in
// preference order. power_w matches the canonical_samples export.
var powerColumns = []string{"power_w", "power", "watts"}

// InputKind classifies a path by extension.
func InputKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fit":
		return KindFIT
	case ".json":
		return KindJSON
	case ".yaml", ".yml":
		return KindYAML
	case ".csv":
		return KindCSV
	default:
		return ""
	}
}

// LoadPlan reads a planned workout from JSON, YAML or a FIT workout file.
// ftp is only needed for FIT workouts with absolute watt targets.
func LoadPlan(path string, ftp float64) (compliance.PlannedWorkout, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return compliance.PlannedWorkout{}, nil, fmt.Errorf("read plan: %w", err)
	}

	var (
		workout  compliance.PlannedWorkout
		warnings []string
	)
	switch kind := InputKind(path); kind {
	case KindJSON:
		err = json.Unmarshal(data, &workout)
	case KindYAML:
		err = yaml.Unmarshal(data, &workout)
	case KindFIT:
		workout, warnings, err = DecodeWorkout(bytes.NewReader(data), ftp)
		if errors.Is(err, compliance.ErrEmptyPlan) {
			return workout, warnings, err
		}
	default:
		return workout, nil, fmt.Errorf("%w: %s", compliance.ErrUnsupportedPlanFormat, filepath.Base(path))
	}
	if err != nil {
		return workout, warnings, fmt.Errorf("parse plan %s: %w", filepath.Base(path), err)
	}
	if workout.Format() == compliance.PlanFormatNone {
		return workout, warnings, compliance.ErrEmptyPlan
	}
	return workout, warnings, nil
}

// LoadPowerStream reads a 1 Hz power stream from a FIT activity, a JSON
// array (or an object with a "power" array) or a CSV file.
func LoadPowerStream(path string) (*PowerStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open power stream: %w", err)
	}
	defer f.Close()

	var stream *PowerStream
	switch kind := InputKind(path); kind {
	case KindFIT:
		stream, err = DecodePowerStream(f)
	case KindJSON:
		stream, err = decodePowerJSON(f)
	case KindCSV:
		stream, err = decodePowerCSV(f)
	default:
		return nil, fmt.Errorf("unsupported power stream file %s (expected .fit, .json or .csv)", filepath.Base(path))
	}
	if err != nil {
		return stream, err
	}
	if len(stream.Samples) == 0 {
		return stream, compliance.ErrNoPowerData
	}
	return stream, nil
}

func decodePowerJSON(r io.Reader) (*PowerStream, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode power json: %w", err)
	}

	var samples []float64
	if err := json.Unmarshal(raw, &samples); err == nil {
		return &PowerStream{Samples: samples}, nil
	}
	var wrapped struct {
		Power          []float64 `json:"power"`
		Watts          []float64 `json:"watts"`
		ThresholdPower float64   `json:"ftp"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode power json: %w", err)
	}
	if len(wrapped.Power) == 0 {
		wrapped.Power = wrapped.Watts
	}
	return &PowerStream{Samples: wrapped.Power, ThresholdPower: wrapped.ThresholdPower}, nil
}

func decodePowerCSV(r io.Reader) (*PowerStream, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read power csv: %w", err)
	}
	if len(rows) == 0 {
		return &PowerStream{}, nil
	}

	col := 0
	if _, err := strconv.ParseFloat(strings.TrimSpace(firstCell(rows[0])), 64); err != nil {
		col = powerColumn(rows[0])
		if col < 0 {
			return nil, fmt.Errorf("power csv header has none of %s", strings.Join(powerColumns, ", "))
		}
		rows = rows[1:]
	}

	stream := &PowerStream{Samples: make([]float64, 0, len(rows))}
	blank := 0
	for i, row := range rows {
		cell := ""
		if col < len(row) {
			cell = strings.TrimSpace(row[col])
		}
		if cell == "" {
			blank++
			stream.Samples = append(stream.Samples, 0)
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("power csv row %d: %w", i+1, err)
		}
		stream.Samples = append(stream.Samples, v)
	}
	if blank > 0 {
		stream.Warnings = append(stream.Warnings, fmt.Sprintf("%d rows had no power value", blank))
	}
	return stream, nil
}

func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

func powerColumn(header []string) int {
	for _, want := range powerColumns {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}
