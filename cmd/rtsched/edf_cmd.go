package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/go-foundations/rtsched/config"
	"github.com/go-foundations/rtsched/edf"
	"github.com/go-foundations/rtsched/kernel"
	"github.com/go-foundations/rtsched/logging"
	"github.com/go-foundations/rtsched/sensors"
)

type edfOptions struct {
	checkPeriodMS int
	basePriority  int
	periodsMS     []int
}

func newEDFCmd(configFile *string) *cobra.Command {
	var opts edfOptions
	var periodsFlag string

	cmd := &cobra.Command{
		Use:   "edf",
		Short: "Run the EDF priority-remapping controller demo",
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

			if periodsFlag != "" {
				opts.periodsMS = nil
				for _, tok := range strings.Split(periodsFlag, ",") {
					tok = strings.TrimSpace(tok)
					if tok == "" {
						continue
					}
					var ms int
					if _, err := fmt.Sscanf(tok, "%d", &ms); err != nil {
						return fmt.Errorf("rtsched: invalid --periods token %q: %w", tok, err)
					}
					opts.periodsMS = append(opts.periodsMS, ms)
				}
			}

			return runEDF(cmd, cfg, logger, opts)
		},
	}

	cmd.Flags().IntVar(&opts.checkPeriodMS, "check-period-ms", 0, "controller sampling interval in ms (overrides config)")
	cmd.Flags().IntVar(&opts.basePriority, "base-priority", 0, "lowest worker priority (overrides config)")
	cmd.Flags().StringVar(&periodsFlag, "periods", "", "comma-separated worker periods in ms, e.g. 500,1000,750 (overrides config)")

	return cmd
}

// runEDF wires a SimKernel, SharedTable, Controller and one Worker
// per configured period, runs them to completion, and prints a
// summary.
func runEDF(cmd *cobra.Command, cfg config.Config, logger logging.Logger, opts edfOptions) error {
	runID := uuid.New()

	checkPeriodMS := cfg.EDF.CheckPeriodMS
	if opts.checkPeriodMS > 0 {
		checkPeriodMS = opts.checkPeriodMS
	}
	basePriority := cfg.EDF.BasePriority
	if opts.basePriority > 0 {
		basePriority = opts.basePriority
	}
	periodsMS := cfg.EDF.PeriodsMS
	if len(opts.periodsMS) > 0 {
		periodsMS = opts.periodsMS
	}
	if len(periodsMS) == 0 {
		return fmt.Errorf("rtsched edf: no worker periods configured")
	}

	logger.Infof("edf: run %s starting with %d workers, check period %dms, base priority %d",
		runID, len(periodsMS), checkPeriodMS, basePriority)

	bodies := []func() int{sensors.Temperature, sensors.Height, sensors.Pressure}
	names := []string{"TempTask", "HeightTask", "PressureTask"}

	specs := make([]edf.WorkerSpec, len(periodsMS))
	hyperperiod := periodsMS[0]
	for i, p := range periodsMS {
		name := fmt.Sprintf("Worker%d", i+1)
		if i < len(names) {
			name = names[i]
		}
		body := bodies[i%len(bodies)]
		specs[i] = edf.WorkerSpec{Name: name, Period: kernel.Tick(p), Body: body}
		hyperperiod = lcmInt(hyperperiod, p)
	}

	k := kernel.New(time.Millisecond)
	tracer := edf.NewTracer(cmd.OutOrStdout())
	state := edf.NewSimState(kernel.Tick(hyperperiod))

	table := edf.NewSharedTable(k, specs)

	schedulerPriority := basePriority + len(specs)
	ctrl := edf.NewController(k, table, state, tracer, logger, len(specs), basePriority, kernel.Tick(checkPeriodMS))
	k.CreateTask("Scheduler", schedulerPriority, ctrl.Run)

	for i, spec := range specs {
		i, spec := i, spec
		w := edf.NewWorker(k, table, state, tracer, logger, i, spec)
		k.CreateTask(spec.Name, basePriority+i, w.Run)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := k.Run(ctx); err != nil {
		logger.Errorf("edf: run %s ended with error: %v", runID, err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nSimulation complete (hyperperiod %d ticks, %d workers).\n", hyperperiod, len(specs))
	return nil
}

func gcdInt(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcmInt(a, b int) int {
	return a / gcdInt(a, b) * b
}
