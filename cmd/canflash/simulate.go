package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/canflash/internal/simulate"
	"pkt.systems/canflash/schema"
)

func newSimulateCmd() *cobra.Command {
	var interval time.Duration
	var maxFrames int
	var seed int64
	cmd := &cobra.Command{
		Use:    "simulate <port>",
		Short:  "Emit fake ESP32 CAN bus serial output",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := simulate.Stream(cmd.Context(), cmd.OutOrStdout(), schema.PortID(args[0]), simulate.Options{
				Seed:      seed,
				Interval:  interval,
				MaxFrames: maxFrames,
			})
			// Cancellation is the normal way a monitor stops.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "delay between lines")
	cmd.Flags().IntVar(&maxFrames, "max-frames", 0, "stop after N frames (0 = run until interrupted)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "fixed random seed (0 = time-based)")
	return cmd
}
