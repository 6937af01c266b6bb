package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newValidateCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every map in the atlas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.setup(cmd, false)
			if err != nil {
				return err
			}
			a, err := loadAtlas(cfg.Atlas.Path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			failed := 0
			for _, name := range a.Names() {
				m, _ := a.Map(name)
				if err := m.Validate(); err != nil {
					failed++
					color.New(color.FgRed).Fprintf(out, "✗ %s\n", name)
					for _, e := range unjoin(err) {
						fmt.Fprintf(out, "    %s\n", e)
					}
					continue
				}
				color.New(color.FgGreen).Fprintf(out, "✓ %s\n", name)
			}

			// Duplicate names only show up at atlas level.
			if err := a.Validate(); err != nil && failed == 0 {
				return withCode(exitFailure, err)
			}
			if failed > 0 {
				return withCode(exitFailure, fmt.Errorf("%d of %d maps are invalid", failed, len(a.Maps)))
			}
			fmt.Fprintf(out, "%d maps OK\n", len(a.Maps))
			return nil
		},
	}
}

// unjoin splits an errors.Join result into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
