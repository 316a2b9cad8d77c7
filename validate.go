package compliance

import (
	"errors"
	"fmt"
)

// Input errors reported by ValidateInputs and the loaders built on it.
var (
	ErrInvalidFTP            = errors.New("ftp must be a positive number of watts")
	ErrEmptyPlan             = errors.New("planned workout has no segments")
	ErrUnsupportedPlanFormat = errors.New("unsupported plan format")
	ErrInvalidSegment        = errors.New("invalid planned segment")
	ErrNoPowerData           = errors.New("power stream is empty")
)

// ValidateInputs checks the caller contract of Analyze: a positive FTP and a
// plan whose flattened segments all have a positive duration and an ordered
// power range. An empty power stream is not an error here.
func ValidateInputs(workout PlannedWorkout, ftp float64) error {
	if !isFinite(ftp) || ftp <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidFTP, ftp)
	}
	if workout.Format() == PlanFormatNone {
		return ErrEmptyPlan
	}

	var errs []error
	for _, s := range FlattenWorkout(workout, ftp) {
		if s.DurationSec <= 0 {
			errs = append(errs, fmt.Errorf("%w: segment %d %q has duration %ds", ErrInvalidSegment, s.Index, s.Name, s.DurationSec))
		}
		if s.PowerLow < 0 || s.PowerLow > s.PowerHigh {
			errs = append(errs, fmt.Errorf("%w: segment %d %q has power range %.0f-%.0f W", ErrInvalidSegment, s.Index, s.Name, s.PowerLow, s.PowerHigh))
		}
	}
	return errors.Join(errs...)
}
