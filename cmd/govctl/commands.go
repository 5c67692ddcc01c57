package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nighttraders/dvfsgov/internal/bench"
	"github.com/nighttraders/dvfsgov/pkg/dvfs"
)

func newSetCmd(sys *dvfs.System) *cobra.Command {
	return &cobra.Command{
		Use:   "set <mhz>",
		Short: "Set the target clock frequency directly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mhz, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid MHz value %q: %w", args[0], err)
			}
			if err := sys.SetTarget(uint32(mhz)); err != nil {
				return err
			}
			fmt.Printf("Target set to %d MHz\n", mhz)
			return nil
		},
	}
}

func newGovCmd(sys *dvfs.System) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gov",
		Short: "Governor controls (list/set/status/tune)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered governors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, _ := sys.GovernorCurrent()
			fmt.Println("Available governors:")
			for _, name := range sys.GovernorList() {
				marker := ""
				if name == cur {
					marker = " (current)"
				}
				fmt.Printf("  %s%s\n", name, marker)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current governor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, ok := sys.GovernorCurrent()
			if !ok {
				fmt.Println("No governor selected")
				return nil
			}
			fmt.Printf("Current governor: %s\n", cur)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name>",
		Short: "Select the current governor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sys.GovernorSet(args[0]); err != nil {
				return err
			}
			fmt.Printf("Governor set to %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(newTuneCmd(sys))
	return cmd
}

func newTuneCmd(sys *dvfs.System) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Show/get/set adaptive governor parameters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tunable parameter names",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := sys.TuneList()
			if names == nil {
				return fmt.Errorf("no tunable parameters for the current governor")
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <param>",
		Short: "Get one parameter's current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := sys.TuneGet(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s = %.3f\n", args[0], v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <param> <value>",
		Short: "Set one parameter, validated and persisted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			if err := sys.TuneSet(args[0], v); err != nil {
				return err
			}
			fmt.Printf("Set %s = %.3f\n", args[0], v)
			return nil
		},
	})

	return cmd
}

func newMetricsCmd(sys *dvfs.System) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Submit or inspect workload metrics",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "submit <workload> <intensity> <duration_ms>",
		Short: "Submit one workload sample",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			workload, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return err
			}
			intensity, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return err
			}
			durationMS, err := strconv.ParseUint(args[2], 10, 32)
			if err != nil {
				return err
			}
			sys.MetricsSubmit(uint32(workload), uint32(intensity), uint32(durationMS))
			return nil
		},
	})

	consume := false
	peekCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current metric aggregate",
		RunE: func(cmd *cobra.Command, args []string) error {
			var agg = sys.MetricsAggregatePeek()
			if consume {
				agg = sys.MetricsAggregateConsume()
			}
			fmt.Printf("count=%d avg_workload=%.2f avg_intensity=%.2f avg_duration_ms=%.2f\n",
				agg.Count, agg.AvgWorkload, agg.AvgIntensity, agg.AvgDurationMS)
			return nil
		},
	}
	peekCmd.Flags().BoolVar(&consume, "consume", false, "empty the ring buffer after reading")
	cmd.AddCommand(peekCmd)

	return cmd
}

func newPersistCmd(sys *dvfs.System) *cobra.Command {
	return &cobra.Command{
		Use:   "persist",
		Short: "Show persisted governor and tuning status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := sys.PersistShow()
			if status.GovernorPresent {
				fmt.Printf("Persisted governor: %s\n", status.GovernorName)
			} else {
				fmt.Println("No persisted governor found")
			}
			if status.TuningPresent {
				fmt.Println("adaptive parameters: present in flash")
			} else {
				fmt.Println("adaptive parameters: not found")
			}
			return nil
		},
	}
}

// Defaults mirror cmd_pio's rp2040_perf safety gate: idle_thresh=3%,
// jitter_thresh=3.0%, min_stable=4.
const (
	defaultIdleThresh   = 0.03
	defaultJitterThresh = 3.0
	defaultMinStable    = 4
)

func newPIOCmd(sys *dvfs.System) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pio",
		Short: "PIO idle/jitter stability arbiter commands",
		RunE:  pioStatsRunE(sys),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the full stability snapshot",
		RunE:  pioStatsRunE(sys),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "safe",
		Short: "Query the one-shot safety gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			safe := sys.PIOSafe(defaultIdleThresh, defaultJitterThresh, defaultMinStable)
			snap := sys.PIOStats()
			fmt.Println("PIO Safety Gate:")
			fmt.Printf("  idle_thresh    : %.0f %%  (%.1f %%)\n", defaultIdleThresh*100, snap.IdleFraction*100)
			fmt.Printf("  jitter_thresh  : %.1f %%  (%.2f %%)\n", defaultJitterThresh, snap.HBJitterPct)
			fmt.Printf("  min_stable     : %d     (%d seen)\n", defaultMinStable, snap.StableCount)
			if safe {
				fmt.Println("  safe_to_scale  : YES")
			} else {
				fmt.Println("  safe_to_scale  : NO")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the jitter window, as if a frequency change just occurred",
		RunE: func(cmd *cobra.Command, args []string) error {
			sys.PIOReset()
			fmt.Println("PIO jitter window reset")
			return nil
		},
	})

	return cmd
}

func pioStatsRunE(sys *dvfs.System) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		snap := sys.PIOStats()
		fmt.Println("PIO Idle Monitor:")
		fmt.Printf("  idle_fraction     : %.1f %%\n", snap.IdleFraction*100)
		fmt.Printf("  hb_period_ticks   : %d\n", snap.HBPeriodTicks)
		fmt.Printf("  hb_jitter_ticks   : %+d\n", snap.HBJitterTicks)
		fmt.Printf("  hb_jitter_pct     : %.2f %%\n", snap.HBJitterPct)
		fmt.Printf("  stable_count      : %d\n", snap.StableCount)
		if snap.SafeToScale {
			fmt.Println("  safe_to_scale     : YES")
		} else {
			fmt.Println("  safe_to_scale     : no")
		}
		return nil
	}
}

func newBenchCmd(sys *dvfs.System) *cobra.Command {
	return &cobra.Command{
		Use:   "bench <cpu> [ms]",
		Short: "Run a synthetic CPU benchmark against the current governor",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "cpu" {
				return fmt.Errorf("unknown benchmark target %q (only \"cpu\" is implemented)", args[0])
			}
			duration := 1000 * time.Millisecond
			if len(args) == 2 {
				v, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid duration %q: %w", args[1], err)
				}
				duration = time.Duration(v) * time.Millisecond
			}
			res := bench.RunCPU(duration, sys.Pipeline(), sys.Log())
			fmt.Printf("iterations=%d elapsed=%s rate=%.1f Miter/s\n",
				res.Iterations, res.Elapsed, res.IterPerSec/1e6)
			return nil
		},
	}
}

func newDmesgCmd(sys *dvfs.System) *cobra.Command {
	return &cobra.Command{
		Use:   "dmesg",
		Short: "Dump the dmesg ring buffer",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, line := range sys.Log().Dump() {
				fmt.Printf("[%s] %s\n", line.Severity, line.Text)
			}
			return nil
		},
	}
}

func newRunCmd(sys *dvfs.System) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the kernel tick loop and liveness monitor until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			sys.Start(ctx, func() {
				sys.Log().Criticalf("CRITICAL: governor loop watchdog timeout")
				fmt.Println("\nCRITICAL: governor loop watchdog timeout")
				os.Exit(1)
			})

			<-ctx.Done()
			return nil
		},
	}
}
