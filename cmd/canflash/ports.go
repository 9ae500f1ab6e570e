package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/canflash/internal/ports"
	"pkt.systems/pslog"
)

func newPortsCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, port := range ports.Discover() {
				status := "unavailable"
				if ports.Available(port) {
					status = "available"
				}
				fmt.Fprintf(out, "%s\t%s\n", port, status)
			}
			if !watch {
				return nil
			}

			ctx := cmd.Context()
			watcher := ports.NewWatcher("", pslog.Ctx(ctx))
			done := make(chan error, 1)
			go func() { done <- watcher.Run(ctx) }()
			for {
				select {
				case event, ok := <-watcher.Events():
					if !ok {
						err := <-done
						if errors.Is(err, context.Canceled) {
							return nil
						}
						return err
					}
					verb := "removed"
					if event.Added {
						verb = "added"
					}
					fmt.Fprintf(out, "%s\t%s\n", event.Port, verb)
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and report hotplug events")
	return cmd
}
