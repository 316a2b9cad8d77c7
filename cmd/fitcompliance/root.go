package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/lucasjlepore/fit-compliance/internal/config"
	"github.com/lucasjlepore/fit-compliance/internal/logging"
	"github.com/lucasjlepore/fit-compliance/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries state shared by subcommands for one invocation.
type app struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:                "fitcompliance",
		Short:              "Score a recorded ride against its planned workout.",
		Long:               `fitcompliance detects effort blocks in a power stream, pairs them with planned segments and grades how closely the plan was followed.`,
		Version:            version,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	d := config.Default()
	flags := root.PersistentFlags()
	flags.String("config", "", "Path to config file")
	flags.Float64("ftp", d.FTP, "FTP in watts (overrides the activity file)")
	flags.Float64("match-threshold", d.MatchThreshold, "Minimum similarity (0-100) for a block to match a segment")
	flags.Int("match-lookahead", d.MatchLookahead, "Number of upcoming blocks considered per segment")
	flags.String("color", d.Color, "Colored output: auto or yes or no")
	flags.String("log-level", d.LogLevel, "Log level: debug or info or warn or error")
	flags.String("log-format", d.LogFormat, "Log format: text or json")
	flags.String("log-file", d.LogFile, "Write logs to this rotating file instead of stderr")
	flags.Int("log-max-size-mb", d.LogMaxSizeMB, "Rotate the log file after this many megabytes")
	flags.Int("log-max-backups", d.LogMaxBackups, "Rotated log files to keep")
	flags.Int("log-max-age-days", d.LogMaxAgeDays, "Days to keep rotated log files")
	flags.Bool("log-compress", d.LogCompression, "Gzip rotated log files")
	if err := a.v.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("fatal error binding flags: %w", err))
	}

	root.SetVersionTemplate(fmt.Sprintf("fitcompliance %s (commit %s, built %s)\n", version, commit, date))
	root.AddCommand(
		newAnalyzeCmd(a),
		newPlanCmd(a),
		newZonesCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup resolves configuration and logging before any subcommand runs.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	config.SetDefaults(a.v)
	if err := config.ReadFile(a.v, a.v.GetString("config")); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompression,
	}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.logger, a.closer = logger, closer
	a.logger.Debug("configuration loaded", "config_file", a.v.ConfigFileUsed())
	return nil
}

func (a *app) renderer(cmd *cobra.Command) *report.Renderer {
	return report.New(cmd.OutOrStdout(), a.cfg.Color)
}
