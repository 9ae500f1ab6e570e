package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

func newMonitorCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "monitor <port>",
		Short: "Stream serial output from a port until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, cleanup, err := newAppRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			port := schema.PortID(args[0])
			session, err := rt.monitors.Start(ctx, port)
			if err != nil {
				return err
			}
			pslog.Ctx(ctx).Info("monitoring, press ctrl-c to stop", "port", port, "session", session)

			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					// The command context is gone; stop with a fresh one
					// so the bounded wait still applies.
					return rt.monitors.Stop(context.Background(), port)
				case <-ticker.C:
					// Monitor process exited on its own.
					if !rt.monitors.IsMonitoring(port) {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
