package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprocket78/ai-battle-app/config"
)

func newValidateCmd(root *rootCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check both API keys with a minimal request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := root.newApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := root.validate(cmd.Context(), app); err != nil {
				return err
			}
			a, b := app.Controller().Backends()
			fmt.Fprintf(cmd.OutOrStdout(), "Credentials valid for %s and %s.\n", a.Name, b.Name)
			return nil
		},
	}
}

func newBackendsCmd(root *rootCommander) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the configured backends and their models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, side := range []struct {
				label string
				bc    config.BackendConfig
			}{
				{"A", root.cfg.Backends.A},
				{"B", root.cfg.Backends.B},
			} {
				bc := side.bc
				fmt.Fprintf(out, "%s: %s (%s)\n", side.label, bc.Name, bc.Provider)
				if bc.BaseURL != "" {
					fmt.Fprintf(out, "   url:    %s\n", bc.BaseURL)
				}
				models := make([]string, len(bc.Models))
				for i, m := range bc.Models {
					models[i] = m
					if m == bc.DefaultModel {
						models[i] = m + "*"
					}
				}
				fmt.Fprintf(out, "   models: %s\n", strings.Join(models, ", "))
				key := "missing"
				if bc.ResolveAPIKey() != "" {
					key = "set"
				}
				fmt.Fprintf(out, "   key:    %s\n", key)
			}
			return nil
		},
	}
}
