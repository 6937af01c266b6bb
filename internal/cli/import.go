package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvimp/internal/atlas"
	"github.com/JonMunkholm/csvimp/internal/config"
	"github.com/JonMunkholm/csvimp/internal/core"
	"github.com/JonMunkholm/csvimp/internal/database"
	"github.com/JonMunkholm/csvimp/internal/dataset"
)

type importOptions struct {
	mapName       string
	header        bool
	delimiter     string
	sheet         string
	noTransaction bool
	jsonOutput    bool
	quiet         bool
}

func newImportCmd(g *globalOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV or Excel file using a map",
		Args:  cobra.ExactArgs(1),
		Example: `  csvimp import --map items items.csv
  csvimp import --map prices --header --delimiter ';' prices.csv
  csvimp import --map items --sheet Sheet2 items.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, g, opts, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.mapName, "map", "m", "", "name of the map to run (required)")
	f.BoolVar(&opts.header, "header", false, "treat the first row as column names (default: $IMPORT_FIRST_ROW_HEADER)")
	f.StringVarP(&opts.delimiter, "delimiter", "d", "", "CSV delimiter; a single character or 'tab' (default: map, then $IMPORT_DELIMITER)")
	f.StringVar(&opts.sheet, "sheet", "", "Excel sheet to read (default: first sheet)")
	f.BoolVar(&opts.noTransaction, "no-transaction", false, "commit each record on its own")
	f.BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "no progress output")
	_ = cmd.MarkFlagRequired("map")

	return cmd
}

func runImport(cmd *cobra.Command, g *globalOptions, opts importOptions, path string) error {
	cfg, err := g.setup(cmd, true)
	if err != nil {
		return err
	}

	a, err := loadAtlas(cfg.Atlas.Path)
	if err != nil {
		return err
	}
	m, err := a.Map(opts.mapName)
	if err != nil {
		return err
	}
	m = m.Simplify()
	if err := m.Validate(); err != nil {
		return withCode(exitFailure, fmt.Errorf("invalid map %s: %w", m.Name, err))
	}

	dsOpts, err := datasetOptions(cmd, cfg, opts, m)
	if err != nil {
		return err
	}
	src, err := dataset.LoadFile(path, dsOpts)
	if err != nil {
		return err
	}

	// Interrupting stops the run at the next record and rolls it back.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	errOut := cmd.ErrOrStderr()
	eng := core.NewEngine(db.Executor(), core.Options{
		UseTransaction:   cfg.Import.UseTransaction && !opts.noTransaction,
		ProgressInterval: cfg.Import.ProgressInterval,
		OnProgress: func(p core.Progress) {
			if !opts.quiet && !opts.jsonOutput {
				printProgress(errOut, p)
			}
		},
	})

	rep, runErr := eng.Run(ctx, &m, src)

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else {
		printReport(out, rep)
	}

	switch {
	case runErr != nil:
		return withCode(exitFailure, runErr)
	case rep.Canceled || rep.Outcome != core.OutcomeCommitted:
		return withCode(exitFailure, nil)
	case rep.Errors > 0:
		return withCode(exitRecordErrors, nil)
	}
	return nil
}

// datasetOptions resolves parsing options: flags first, then the map, then
// the environment.
func datasetOptions(cmd *cobra.Command, cfg *config.Config, opts importOptions, m atlas.Map) (dataset.Options, error) {
	dsOpts := dataset.Options{
		FirstRowHeader: cfg.Import.FirstRowHeader,
		Sheet:          opts.sheet,
		MaxSize:        cfg.Import.MaxFileSize,
	}
	if cmd.Flags().Changed("header") {
		dsOpts.FirstRowHeader = opts.header
	}

	delim := opts.delimiter
	if delim == "" {
		delim = m.Delimiter
	}
	if delim == "" {
		delim = cfg.Import.Delimiter
	}
	d, err := dataset.ParseDelimiter(delim)
	if err != nil {
		return dsOpts, fmt.Errorf("invalid csv option: %w", err)
	}
	dsOpts.Delimiter = d
	return dsOpts, nil
}

func printProgress(w io.Writer, p core.Progress) {
	fmt.Fprintf(w, "%s %d/%d records (%d processed, %d ignored, %d errors)\n",
		color.CyanString("progress"), p.Current, p.Total, p.Processed, p.Ignored, p.Errors)
}

func printReport(w io.Writer, rep *core.Report) {
	fmt.Fprint(w, rep.String())
	fmt.Fprintln(w)

	switch {
	case rep.Succeeded():
		color.New(color.FgGreen, color.Bold).Fprintln(w, "Import completed successfully")
	case rep.Outcome == core.OutcomeCommitted:
		color.New(color.FgYellow, color.Bold).Fprintf(w, "Import committed with %d failed record(s)\n", rep.Errors)
	case rep.Canceled:
		color.New(color.FgYellow, color.Bold).Fprintln(w, "Import canceled, nothing was kept")
	default:
		color.New(color.FgRed, color.Bold).Fprintf(w, "Import %s\n", rep.Outcome)
	}
}
