package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newMapsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "maps [name]",
		Short: "List the atlas maps, or print one map",
		Args:  cobra.MaximumNArgs(1),
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

			if len(args) == 1 {
				m, err := a.Map(args[0])
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(m.Simplify())
			}

			if a.Description != "" {
				color.New(color.FgCyan, color.Bold).Fprintln(out, a.Description)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTABLE\tACTION\tFIELDS\tDESCRIPTION")
			for _, name := range a.Names() {
				m, _ := a.Map(name)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", m.Name, m.Table, m.Action, len(m.Fields), m.Description)
			}
			return tw.Flush()
		},
	}
}
