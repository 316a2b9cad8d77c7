package main

import (
	"fmt"

	"github.com/lucasjlepore/fit-compliance/internal/config"
	"github.com/lucasjlepore/fit-compliance/pipeline"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <plan> <stream>",
		Short: "Analyze a ride against a plan and write a compliance bundle.",
		Long: `Analyze reads a planned workout (.json, .yaml or .fit) and a power stream
(.fit, .json or .csv), scores every planned segment and writes
compliance.json, a segment table, a markdown summary and a manifest.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := pipeline.Run(pipeline.Options{
				PlanPath:    args[0],
				StreamPath:  args[1],
				OutDir:      a.cfg.Out,
				FTPOverride: a.cfg.FTP,
				Format:      a.cfg.Format,
				Overwrite:   a.cfg.Overwrite,
				Match:       a.cfg.MatchOptions(),
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}

			r := a.renderer(cmd)
			if err := r.Summary(result.Analysis); err != nil {
				return err
			}
			if err := r.Segments(result.Analysis); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "Output dir: %s\nManifest:   %s\n", result.OutputDir, result.ManifestPath); err != nil {
				return err
			}
			for _, w := range result.Warnings {
				if _, err := fmt.Fprintf(out, "warning: %s\n", w); err != nil {
					return err
				}
			}
			return nil
		},
	}
	d := config.Default()
	cmd.Flags().StringP("out", "o", d.Out, "Output directory")
	cmd.Flags().String("format", d.Format, "Segment table format: json or csv or parquet")
	cmd.Flags().Bool("overwrite", d.Overwrite, "Allow writing into a non-empty output directory")
	return cmd
}
