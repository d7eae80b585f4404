// Package config loads the demo's runtime configuration: the EDF
// variant's worker periods and controller timing, and the RM-RCS
// variant's default file paths. Values come from built-in defaults
// overlaid by an optional config file read with viper; environment
// variables are not consulted, and the CLI commands apply their own
// flag overrides on top.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/go-foundations/rtsched/logging"
)

// EDFConfig holds the EDF variant's controller and worker knobs.
type EDFConfig struct {
	CheckPeriodMS int   `mapstructure:"check_period_ms"`
	BasePriority  int   `mapstructure:"base_priority"`
	PeriodsMS     []int `mapstructure:"periods_ms"`
}

// RMRCSConfig holds the RM-RCS variant's default file paths and
// numeric formatting mode.
type RMRCSConfig struct {
	TasksFile  string `mapstructure:"tasks_file"`
	ActualFile string `mapstructure:"actual_file"`
	OutFile    string `mapstructure:"out_file"`
	ActualTime bool   `mapstructure:"actual_time"`
}

// Config is the demo's full runtime configuration.
type Config struct {
	Logging logging.Config `mapstructure:"logging"`
	EDF     EDFConfig      `mapstructure:"edf"`
	RMRCS   RMRCSConfig    `mapstructure:"rmrcs"`
}

// Default returns the configuration used when no config file is
// present: worker periods {500, 750, 1000} ms, base priority 1, a
// 50ms check period, reading tasks.txt from the working directory.
func Default() Config {
	return Config{
		Logging: logging.Config{Level: "info", Format: "console", Development: true},
		EDF: EDFConfig{
			CheckPeriodMS: 50,
			BasePriority:  1,
			PeriodsMS:     []int{500, 750, 1000},
		},
		RMRCS: RMRCSConfig{
			TasksFile: "tasks.txt",
			OutFile:   "schedule.txt",
		},
	}
}

// Load reads configFile (any format viper supports: yaml, json,
// toml) and overlays it on Default(). An empty configFile returns
// Default() unchanged.
func Load(configFile string) (Config, error) {
	cfg := Default()
	if configFile == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return cfg, errors.Wrapf(err, "config: reading %s", configFile)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, errors.Wrap(err, "config: unmarshalling")
	}

	if err := validate(&cfg); err != nil {
		return cfg, errors.Wrap(err, "config: validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.EDF.CheckPeriodMS <= 0 {
		return fmt.Errorf("edf.check_period_ms must be positive, got %d", cfg.EDF.CheckPeriodMS)
	}
	if cfg.EDF.BasePriority <= 0 {
		return fmt.Errorf("edf.base_priority must be positive, got %d", cfg.EDF.BasePriority)
	}
	for i, p := range cfg.EDF.PeriodsMS {
		if p <= 0 {
			return fmt.Errorf("edf.periods_ms[%d] must be positive, got %d", i, p)
		}
	}
	if cfg.RMRCS.TasksFile == "" {
		return fmt.Errorf("rmrcs.tasks_file must not be empty")
	}
	return nil
}
