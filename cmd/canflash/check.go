package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "check <library> <example>",
		Short: "Check whether an example is compatible with a library",
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

			libID, exampleID, err := svc.ResolveSelection(args[0], args[1])
			if err != nil {
				return err
			}
			if !svc.CheckDependencies(libID, exampleID) {
				return fmt.Errorf("%s is not compatible with %s", exampleID, libID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s works with %s\n", exampleID, libID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
