// Command rtsched is the real-time scheduling demonstrator: it runs
// either the EDF priority-remapping controller against a simulated
// preemptive kernel, or the RM-RCS offline Gantt-schedule simulator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-foundations/rtsched/config"
	"github.com/go-foundations/rtsched/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:   "rtsched",
		Short: "Real-time EDF and RM-RCS scheduling demonstrator",
		// With no subcommand, fall back to the interactive
		// single-character menu: "1" runs EDF, "2" runs RM-RCS.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, configFile)
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to rtsched.yaml config file")

	root.AddCommand(newEDFCmd(&configFile))
	root.AddCommand(newRMRCSCmd(&configFile))
	root.AddCommand(newSweepCmd(&configFile))

	return root
}

func runMenu(cmd *cobra.Command, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	fmt.Fprintln(cmd.OutOrStdout(), "Select a demo:")
	fmt.Fprintln(cmd.OutOrStdout(), "  1) EDF (priority-remapping controller)")
	fmt.Fprintln(cmd.OutOrStdout(), "  2) RM-RCS (offline Gantt simulator)")
	fmt.Fprint(cmd.OutOrStdout(), "> ")

	var choice string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &choice); err != nil {
		return fmt.Errorf("rtsched: reading menu choice: %w", err)
	}

	switch choice {
	case "1":
		return runEDF(cmd, cfg, logger, edfOptions{})
	case "2":
		return runRMRCS(cmd, cfg, logger, rmrcsOptions{})
	default:
		return fmt.Errorf("rtsched: unrecognized choice %q", choice)
	}
}
