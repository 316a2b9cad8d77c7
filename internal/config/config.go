// Package config resolves fitcompliance settings from defaults, an optional
// .fitcompliance.yaml file, FITCOMPLIANCE_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	compliance "github.com/lucasjlepore/fit-compliance"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "FITCOMPLIANCE"

// ConfigName is the base name of the optional config file.
const ConfigName = ".fitcompliance"

// Color modes.
const (
	ColorAuto = "auto"
	ColorYes  = "yes"
	ColorNo   = "no"
)

// Config is the validated runtime configuration.
type Config struct {
	FTP            float64 `mapstructure:"ftp"`
	MatchThreshold float64 `mapstructure:"match-threshold"`
	MatchLookahead int     `mapstructure:"match-lookahead"`
	Format         string  `mapstructure:"format"`
	Out            string  `mapstructure:"out"`
	Overwrite      bool    `mapstructure:"overwrite"`
	Color          string  `mapstructure:"color"`

	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
	LogFile        string `mapstructure:"log-file"`
	LogMaxSizeMB   int    `mapstructure:"log-max-size-mb"`
	LogMaxBackups  int    `mapstructure:"log-max-backups"`
	LogMaxAgeDays  int    `mapstructure:"log-max-age-days"`
	LogCompression bool   `mapstructure:"log-compress"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		MatchThreshold: compliance.DefaultMatchThreshold,
		MatchLookahead: compliance.DefaultMatchLookahead,
		Format:         "json",
		Out:            "compliance_out",
		Color:          ColorAuto,
		LogLevel:       "info",
		LogFormat:      "text",
		LogMaxSizeMB:   10,
		LogMaxBackups:  3,
		LogMaxAgeDays:  28,
	}
}

// SetDefaults registers Default() on v and wires the env lookup.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("ftp", d.FTP)
	v.SetDefault("match-threshold", d.MatchThreshold)
	v.SetDefault("match-lookahead", d.MatchLookahead)
	v.SetDefault("format", d.Format)
	v.SetDefault("out", d.Out)
	v.SetDefault("overwrite", d.Overwrite)
	v.SetDefault("color", d.Color)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("log-max-size-mb", d.LogMaxSizeMB)
	v.SetDefault("log-max-backups", d.LogMaxBackups)
	v.SetDefault("log-max-age-days", d.LogMaxAgeDays)
	v.SetDefault("log-compress", d.LogCompression)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// ReadFile loads path, or .fitcompliance.yaml from the working or home
// directory when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Load unmarshals and validates the resolved settings in v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.Color = strings.ToLower(strings.TrimSpace(cfg.Color))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once. FTP may be zero here; it
// can still come from the activity file.
func (c Config) Validate() error {
	var errs []error
	if c.FTP < 0 {
		errs = append(errs, fmt.Errorf("%w: ftp %v", compliance.ErrInvalidFTP, c.FTP))
	}
	if c.MatchThreshold < 0 || c.MatchThreshold > 100 {
		errs = append(errs, fmt.Errorf("match-threshold must be in [0, 100], got %v", c.MatchThreshold))
	}
	if c.MatchLookahead < 1 {
		errs = append(errs, fmt.Errorf("match-lookahead must be at least 1, got %d", c.MatchLookahead))
	}
	switch c.Format {
	case "json", "csv", "parquet":
	default:
		errs = append(errs, fmt.Errorf("format must be json, csv or parquet, got %q", c.Format))
	}
	switch c.Color {
	case ColorAuto, ColorYes, ColorNo:
	default:
		errs = append(errs, fmt.Errorf("color must be auto, yes or no, got %q", c.Color))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log-level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log-format must be text or json, got %q", c.LogFormat))
	}
	if c.LogFile != "" && c.LogMaxSizeMB < 1 {
		errs = append(errs, fmt.Errorf("log-max-size-mb must be at least 1, got %d", c.LogMaxSizeMB))
	}
	return errors.Join(errs...)
}

// MatchOptions returns the matcher tuning for compliance.Analyze.
func (c Config) MatchOptions() compliance.Options {
	opts := compliance.Options{MatchLookahead: c.MatchLookahead}
	return opts.WithThreshold(c.MatchThreshold)
}
