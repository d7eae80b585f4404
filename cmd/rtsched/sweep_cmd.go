package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/go-foundations/rtsched/batch"
	"github.com/go-foundations/rtsched/config"
	"github.com/go-foundations/rtsched/logging"
	"github.com/go-foundations/rtsched/rmrcs"
)

type sweepOptions struct {
	tasksGlob string
	workers   int
	strategy  string
	scales    string
}

func newSweepCmd(configFile *string) *cobra.Command {
	var opts sweepOptions

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run RM-RCS over every tasks.txt matching a glob and compare outcomes",
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

			return runSweep(cmd, logger, opts)
		},
	}

	cmd.Flags().StringVar(&opts.tasksGlob, "tasks-glob", "tasks*.txt", "glob pattern matching tasks.txt-style files to sweep")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "number of goroutines distributing sweep points")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "round-robin", "distribution strategy: round-robin|chunked|work-stealing|priority-based")
	cmd.Flags().StringVar(&opts.scales, "scale", "", "comma-separated WCET scale factors to additionally sweep per file, e.g. 1.5,2")

	return cmd
}

func parseStrategy(s string) (batch.DistributionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "round-robin", "roundrobin", "":
		return batch.RoundRobin, nil
	case "chunked":
		return batch.Chunked, nil
	case "work-stealing", "workstealing":
		return batch.WorkStealing, nil
	case "priority-based", "prioritybased":
		return batch.PriorityBased, nil
	default:
		return 0, fmt.Errorf("rtsched sweep: unknown strategy %q", s)
	}
}

// runSweep expands --tasks-glob (and optional --scale factors) into a
// set of batch.SweepPoint values, hands them to batch.RunSweep, and
// reports each point's RM-RCS outcome: the parameter-sweep counterpart
// to rtsched rmrcs's single-task-set run.
func runSweep(cmd *cobra.Command, logger logging.Logger, opts sweepOptions) error {
	runID := uuid.New()

	strategy, err := parseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	files, err := filepath.Glob(opts.tasksGlob)
	if err != nil {
		return fmt.Errorf("rtsched sweep: bad --tasks-glob %q: %w", opts.tasksGlob, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("rtsched sweep: no files matched %q", opts.tasksGlob)
	}
	sort.Strings(files)

	var scales []float64
	for _, tok := range strings.Split(opts.scales, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("rtsched sweep: invalid --scale token %q: %w", tok, err)
		}
		scales = append(scales, f)
	}

	var points []batch.SweepPoint
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			logger.Errorf("sweep: run %s: opening %s: %v", runID, file, err)
			return fmt.Errorf("rtsched sweep: %w", err)
		}
		tasks, err := rmrcs.ParseTasks(f)
		f.Close()
		if err != nil {
			logger.Errorf("sweep: run %s: parsing %s: %v", runID, file, err)
			return fmt.Errorf("rtsched sweep: %w", err)
		}

		label := filepath.Base(file)
		points = append(points, batch.SweepPoint{Label: label, Tasks: tasks})
		for _, factor := range scales {
			points = append(points, batch.SweepPoint{
				Label: fmt.Sprintf("%s@%gx", label, factor),
				Tasks: batch.ScaleWCET(tasks, factor),
			})
		}
	}

	logger.Infof("sweep: run %s evaluating %d points across %d workers (%s)", runID, len(points), opts.workers, opts.strategy)

	outcomes, err := batch.RunSweep(points, opts.workers, strategy)
	if err != nil {
		logger.Errorf("sweep: run %s: %v", runID, err)
		return fmt.Errorf("rtsched sweep: %w", err)
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Label < outcomes[j].Label })

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-28s %11s %10s %10s %7s %8s\n", "Label", "Hyperperiod", "CtxSwitch", "IdleTime", "Misses", "Feasible")
	for _, o := range outcomes {
		fmt.Fprintf(w, "%-28s %11d %10d %10.1f %7d %8t\n", o.Label, o.Hyperperiod, o.ContextSwitches, o.IdleTime, o.MissCount, o.Feasible)
	}

	return nil
}
