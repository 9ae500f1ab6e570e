package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newOptionsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the library and example options from the project Kconfig",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, cleanup, err := newAppRuntime(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			defer cleanup()

			catalog, err := rt.catalog(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, menu := range []string{rt.svcCfg.LibraryMenu, rt.svcCfg.ExampleMenu} {
				fmt.Fprintf(out, "%s:\n", menu)
				for _, option := range catalog.Menu(menu) {
					if len(option.DependsOn) == 0 {
						fmt.Fprintf(out, "  %s\t%s\n", option.ID, option.DisplayName)
						continue
					}
					deps := make([]string, 0, len(option.DependsOn))
					for _, dep := range option.DependsOn {
						deps = append(deps, string(dep))
					}
					fmt.Fprintf(out, "  %s\t%s (requires %s)\n", option.ID, option.DisplayName, strings.Join(deps, " or "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
