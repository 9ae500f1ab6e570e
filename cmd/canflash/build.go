package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	var cfgPath string
	var fullClean bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the firmware without flashing",
		Args:  cobra.NoArgs,
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
			if fullClean {
				svc.FullClean = func(ctx context.Context) bool { return true }
			}
			if !svc.Compile(cmd.Context()) {
				return fmt.Errorf("build failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&fullClean, "fullclean", false, "rebuild from scratch")
	return cmd
}
