package main

import (
	"fmt"

	compliance "github.com/lucasjlepore/fit-compliance"
	"github.com/lucasjlepore/fit-compliance/pipeline"
	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <file>",
		Short: "Flatten a planned workout and show its detection parameters.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ftp := a.cfg.FTP
			if ftp <= 0 {
				return fmt.Errorf("%w: --ftp is required to resolve plan targets", compliance.ErrInvalidFTP)
			}
			workout, warnings, err := pipeline.LoadPlan(args[0], ftp)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				a.logger.Warn("plan warning", "warning", w)
			}
			if err := compliance.ValidateInputs(workout, ftp); err != nil {
				return err
			}
			segments := compliance.FlattenWorkout(workout, ftp)
			return a.renderer(cmd).Plan(segments, compliance.SelectAdaptiveParameters(segments))
		},
	}
}
