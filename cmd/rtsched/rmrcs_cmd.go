package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/go-foundations/rtsched/config"
	"github.com/go-foundations/rtsched/logging"
	"github.com/go-foundations/rtsched/rmrcs"
)

type rmrcsOptions struct {
	tasksFile  string
	actualFile string
	outFile    string
	actualTime bool
	failFast   bool
}

func newRMRCSCmd(configFile *string) *cobra.Command {
	var opts rmrcsOptions

	cmd := &cobra.Command{
		Use:   "rmrcs",
		Short: "Run the RM-RCS offline simulator and write a schedule report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				logger = logging.NewDefault()
			}
			defer logger.Sync()

			return runRMRCS(cmd, cfg, logger, opts)
		},
	}

	cmd.Flags().StringVar(&opts.tasksFile, "tasks", "", "path to tasks.txt (overrides config)")
	cmd.Flags().StringVar(&opts.actualFile, "actual", "", "path to actual.txt (optional)")
	cmd.Flags().StringVar(&opts.outFile, "out", "", "path to write the schedule report (overrides config)")
	cmd.Flags().BoolVar(&opts.actualTime, "actual-time", false, "use the actual-time variant instead of WCET-only")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "abort on the first deadline miss outside the oracle")

	return cmd
}

// runRMRCS reads tasks.txt (and optionally actual.txt), runs the
// RM-RCS event-driven simulation to completion, and writes the
// schedule report, exiting 1 on bad file I/O.
func runRMRCS(cmd *cobra.Command, cfg config.Config, logger logging.Logger, opts rmrcsOptions) error {
	runID := uuid.New()

	tasksFile := cfg.RMRCS.TasksFile
	if opts.tasksFile != "" {
		tasksFile = opts.tasksFile
	}
	outFile := cfg.RMRCS.OutFile
	if opts.outFile != "" {
		outFile = opts.outFile
	}
	actualTime := cfg.RMRCS.ActualTime || opts.actualTime
	actualFile := cfg.RMRCS.ActualFile
	if opts.actualFile != "" {
		actualFile = opts.actualFile
	}

	f, err := os.Open(tasksFile)
	if err != nil {
		logger.Errorf("rmrcs: run %s: opening tasks file %s: %v", runID, tasksFile, err)
		return fmt.Errorf("rtsched rmrcs: %w", err)
	}
	defer f.Close()

	tasks, err := rmrcs.ParseTasks(f)
	if err != nil {
		logger.Errorf("rmrcs: run %s: parsing tasks file: %v", runID, err)
		return fmt.Errorf("rtsched rmrcs: %w", err)
	}

	if actualTime && actualFile != "" {
		af, err := os.Open(actualFile)
		if err != nil {
			logger.Errorf("rmrcs: run %s: opening actual file %s: %v", runID, actualFile, err)
			return fmt.Errorf("rtsched rmrcs: %w", err)
		}
		defer af.Close()
		if err := rmrcs.ParseActual(af, tasks); err != nil {
			logger.Errorf("rmrcs: run %s: parsing actual file: %v", runID, err)
			return fmt.Errorf("rtsched rmrcs: %w", err)
		}
	}

	logger.Infof("rmrcs: run %s simulating %d tasks (actual-time=%v) from %s", runID, len(tasks), actualTime, tasksFile)

	out, err := os.Create(outFile)
	if err != nil {
		logger.Errorf("rmrcs: run %s: creating output file %s: %v", runID, outFile, err)
		return fmt.Errorf("rtsched rmrcs: %w", err)
	}
	defer out.Close()

	if actualTime {
		return runRMRCSVariant[float64](cmd, logger, runID.String(), tasks, rmrcs.ActualTime[float64], rmrcs.FormatDecimal1, opts.failFast, out)
	}
	return runRMRCSVariant[int](cmd, logger, runID.String(), tasks, rmrcs.WCETOnly[int], rmrcs.FormatInt, opts.failFast, out)
}

func runRMRCSVariant[T rmrcs.Number](cmd *cobra.Command, logger logging.Logger, runID string, tasks []rmrcs.Task, remainingOf rmrcs.RemainingFunc[T], format rmrcs.Format, failFast bool, out *os.File) error {
	sim := rmrcs.NewSimulator[T](tasks, remainingOf)
	sim.FailFast = failFast

	result, err := sim.Run()
	if err != nil {
		logger.Errorf("rmrcs: run %s: simulation aborted: %v", runID, err)
		return fmt.Errorf("rtsched rmrcs: %w", err)
	}

	if len(result.Misses) > 0 {
		logger.Warnf("rmrcs: run %s: task set is not RM-feasible, %d deadline miss(es) recorded", runID, len(result.Misses))
	}

	turnarounds, averages := rmrcs.Turnarounds(sim.Jobs(), result.Schedule)
	if err := rmrcs.WriteSchedule(out, result, format, turnarounds, averages); err != nil {
		logger.Errorf("rmrcs: run %s: writing schedule report: %v", runID, err)
		return fmt.Errorf("rtsched rmrcs: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "rmrcs: wrote schedule for %d tasks (hyperperiod %d, %d context switches, %d misses).\n",
		len(tasks), result.Hyperperiod, result.ContextSwitches, len(result.Misses))
	return nil
}
