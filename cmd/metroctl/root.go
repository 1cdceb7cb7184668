package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"metroroute.org/internal/appconf"
	"metroroute.org/internal/clock"
	"metroroute.org/internal/logging"
	"metroroute.org/internal/metrics"
	"metroroute.org/internal/network"
	"metroroute.org/internal/transit"
)

// sourceFlags are shared by every subcommand that reads a network.
type sourceFlags struct {
	data        string
	coordinates string
	walking     string
	format      string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	flags := &sourceFlags{}

	rootCmd := &cobra.Command{
		Use:   "metroctl",
		Short: "Inspect metro networks and plan routes",
		Long: `metroctl loads a metro network from a station CSV, a line table or a GTFS zip
and answers questions about it.

Examples:
  metroctl info --data stations.csv
  metroctl stations --data stations.csv --line Red
  metroctl plan --data lines.csv --coordinates coords.csv --from 1 --to 5`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flags.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(logging.NewStructuredLogger(cmd.ErrOrStderr(), level))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.data, "data", "", "network file: station CSV, line table or GTFS zip (path or URL)")
	pf.StringVar(&flags.coordinates, "coordinates", "", "station coordinate CSV for line tables")
	pf.StringVar(&flags.walking, "walking", "", "walking link CSV for line tables")
	pf.StringVar(&flags.format, "format", "", "stations-csv, line-table or gtfs; detected when empty")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log loading details to stderr")

	rootCmd.AddCommand(newInfoCmd(flags))
	rootCmd.AddCommand(newStationsCmd(flags))
	rootCmd.AddCommand(newPlanCmd(flags))
	return rootCmd
}

// openNetwork loads the configured source into a throwaway in-memory manager.
func openNetwork(ctx context.Context, flags *sourceFlags) (*transit.Manager, error) {
	if flags.data == "" {
		return nil, fmt.Errorf("--data is required")
	}

	var format network.Format
	if flags.format != "" {
		f, err := network.ParseFormat(flags.format)
		if err != nil {
			return nil, err
		}
		format = f
	}

	cfg := transit.Config{
		DataPath:        flags.data,
		CoordinatesPath: flags.coordinates,
		WalkingPath:     flags.walking,
		Format:          format,
		DBPath:          ":memory:",
		Env:             appconf.Development,
		Verbose:         flags.verbose,
	}
	manager, err := transit.InitManager(ctx, cfg, metrics.New(), clock.RealClock{})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", flags.data, err)
	}
	return manager, nil
}

func withNetwork(cmd *cobra.Command, flags *sourceFlags, fn func(*transit.Manager) error) error {
	manager, err := openNetwork(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer manager.Shutdown()
	return fn(manager)
}

// exitCode is used by callers that want a distinct status for an unreachable destination.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if isNoRoute(err) {
		return 2
	}
	return 1
}
