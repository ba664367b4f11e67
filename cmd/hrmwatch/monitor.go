package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/srg/hrmwatch/internal/alarm"
	"github.com/srg/hrmwatch/internal/devicefactory"
	"github.com/srg/hrmwatch/internal/events"
	"github.com/srg/hrmwatch/internal/groutine"
	"github.com/srg/hrmwatch/internal/hrm"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream heart rate and alarm above the maximum",
		Long: `Scan for a heart rate strap, connect to the first one found, and print every
measurement. While the rate is above the maximum an alarm is shown.

The connection is re-established automatically when the strap goes out of
range. Press Ctrl+C to disconnect and exit.`,
		Example: `  hrmwatch monitor
  hrmwatch monitor --max-rate 150 --log-level info`,
		Args: cobra.NoArgs,
		RunE: runMonitor,
	}
	cmd.Flags().Int("max-rate", 0, "Alarm threshold in bpm (overrides the max_rate setting)")
	return cmd
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-rate") {
		maxRate, _ := cmd.Flags().GetInt("max-rate")
		if err := cfg.Set("max_rate", strconv.Itoa(maxRate)); err != nil {
			return err
		}
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter := devicefactory.AdapterFactory(logger)
	defer func() { _ = adapter.Close() }()

	mgr := hrm.New(adapter, devicefactory.GateFactory(), cfg.ManagerOptions(), logger)
	defer func() { _ = mgr.Close() }()

	out := newPrinter(cmd.OutOrStdout())
	monitor := alarm.NewMonitor(
		alarm.ThresholdFunc(func() int { return cfg.MaxRate }),
		&terminalAlarm{out: out},
		cfg.Alarm.Interval,
		logger,
	)
	monitor.Pulse = cfg.Vibration

	states := mgr.States().Subscribe()
	defer states.Cancel()
	samples := mgr.Events().Subscribe()
	defer samples.Cancel()

	alarmSub := mgr.Events().Subscribe()
	defer alarmSub.Cancel()
	alarmDone := make(chan error, 1)
	groutine.Go(ctx, "hrm-alarm", func(ctx context.Context) {
		alarmDone <- monitor.Run(ctx, alarmSub)
	})

	if err := mgr.StartScan(ctx); err != nil {
		return err
	}

	last := hrm.Idle
	for {
		select {
		case <-ctx.Done():
			mgr.Disconnect()
			return nil

		case err := <-alarmDone:
			mgr.Disconnect()
			if ctx.Err() != nil {
				return nil
			}
			return err

		case s := <-states.C():
			if s == last {
				continue
			}
			last = s
			dev, known := mgr.Device()
			out.State(s, dev, known)

		case ev := <-samples.C():
			if ev.Kind == events.KindDataUpdate {
				out.Sample(ev.Sample.Rate, ev.Sample.ReceivedAt)
			}
		}
	}
}
