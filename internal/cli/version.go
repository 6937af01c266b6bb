package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCmd(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			title := color.New(color.FgCyan, color.Bold)
			label := color.New(color.FgGreen)

			title.Fprintf(out, "csvimp %s\n\n", orDefault(build.Version, "dev"))
			label.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, orDefault(build.GitCommit, "unknown"))
			label.Fprint(out, "Built:      ")
			fmt.Fprintln(out, orDefault(build.BuildDate, "unknown"))
			label.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
			label.Fprint(out, "OS/Arch:    ")
			fmt.Fprintf(out, "%s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
