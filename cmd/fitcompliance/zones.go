package main

import (
	"fmt"

	compliance "github.com/lucasjlepore/fit-compliance"
	"github.com/spf13/cobra"
)

func newZonesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Print the five power zones for --ftp.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ftp := a.cfg.FTP
			if ftp <= 0 {
				return fmt.Errorf("%w: --ftp must be positive", compliance.ErrInvalidFTP)
			}
			return a.renderer(cmd).Zones(ftp, compliance.CalculatePowerZones(ftp))
		},
	}
}
