package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/hrmwatch/internal/devicefactory"
	"github.com/srg/hrmwatch/internal/hrm"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find the first heart rate monitor in range",
		Long: `Scan until a device advertising the Heart Rate Service, or named like a
heart rate strap (HRM, Garmin, Dual), is found and print its address.`,
		Args: cobra.NoArgs,
		RunE: runScan,
	}
	cmd.Flags().DurationP("timeout", "t", 0, "Scan timeout (default scan.timeout setting)")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	timeout := cfg.Scan.Timeout
	if t, _ := cmd.Flags().GetDuration("timeout"); t > 0 {
		timeout = t
	}
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := devicefactory.GateFactory().Check(ctx); err != nil {
		return err
	}

	adapter := devicefactory.AdapterFactory(logger)
	defer func() { _ = adapter.Close() }()

	scanner := hrm.NewScanner(adapter, hrm.DefaultScanFilter(), logger)
	started := time.Now()
	handle, err := scanner.FindFirst(ctx, timeout)
	if err != nil {
		return err
	}

	name := handle.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %s at %s after %s\n", name, handle.Address, time.Since(started).Round(100*time.Millisecond))
	return nil
}
