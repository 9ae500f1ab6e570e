package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/canflash/schema"
)

func newFlashCmd() *cobra.Command {
	var cfgPath string
	var port string
	var fullClean bool
	cmd := &cobra.Command{
		Use:   "flash <library> <example>",
		Short: "Update sdkconfig, compile and flash the selected example",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := newAppRuntime(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}

			target := schema.PortID(port)
			if target == "" {
				candidates := svc.FindFlashPorts()
				if len(candidates) == 0 {
					return fmt.Errorf("no flash ports found")
				}
				target = candidates[0]
			}

			libID, exampleID, err := svc.ResolveSelection(args[0], args[1])
			if err != nil {
				return err
			}
			if fullClean {
				svc.FullClean = func(ctx context.Context) bool { return true }
			}
			if !svc.ConfigCompileFlash(cmd.Context(), target, libID, exampleID) {
				return fmt.Errorf("flash workflow failed for %s on %s", exampleID, target)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&port, "port", "p", "", "target port (default: first discovered)")
	cmd.Flags().BoolVar(&fullClean, "fullclean", false, "rebuild from scratch before flashing")
	return cmd
}
