// Command govctl is a thin cobra CLI over pkg/dvfs.ShellAPI, standing
// in for the RP2040 minishell's interactive REPL (spec.md §1 puts the
// shell parser itself out of scope; this is the one concrete consumer
// of the core-facing API it would have called into).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nighttraders/dvfsgov/pkg/dvfs"
)

func main() {
	sys := dvfs.New()

	root := &cobra.Command{
		Use:   "govctl",
		Short: "Control plane for the dual-core DVFS governor",
		Long: `govctl drives the simulated dual-core DVFS governor control plane:
select and tune governors, submit synthetic workload samples, inspect
persisted state, and query the PIO stability arbiter.`,
	}

	root.AddCommand(
		newSetCmd(sys),
		newGovCmd(sys),
		newMetricsCmd(sys),
		newPersistCmd(sys),
		newPIOCmd(sys),
		newBenchCmd(sys),
		newDmesgCmd(sys),
		newRunCmd(sys),
	)

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM, used by
// the long-running `run` subcommand.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
