package main

import (
	"fmt"

	compliance "github.com/lucasjlepore/fit-compliance"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "fitcompliance %s\nCommit: %s\nBuilt: %s\nAlgorithm: %s\n",
				version, commit, date, compliance.AlgorithmVersion)
			return err
		},
	}
}
