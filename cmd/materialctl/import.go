package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/materials/internal/core"
	"github.com/JonMunkholm/materials/internal/store/memory"
	"github.com/JonMunkholm/materials/internal/tabular"
)

var (
	importFields []string
	dryRun       bool
	noProgress   bool
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import materials from a CSV or XLSX file",
	Long: `Import runs every row of FILE through the import pipeline and waits for
the result, whatever the file size. Rejected rows are listed with their
reasons; they never stop the rest of the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ctx := cmd.Context()

		fields := importFields
		if len(fields) == 0 {
			fields = cfg.Import.Fields
		}
		spec, err := core.ParseImportSpec(fields)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc, err := tabular.Parse(filepath.Base(path), data)
		if err != nil {
			return &core.PipelineFatalError{FileName: path, Err: err}
		}

		var store core.Store
		if dryRun {
			fmt.Fprintln(cmd.ErrOrStderr(), "[dry run] rows are resolved against an empty in-memory catalogue")
			store = memory.New()
		} else {
			pg, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer pg.Close()
			store = pg
		}

		opts := []core.ImporterOption{core.WithConcurrency(cfg.Import.RowConcurrency)}
		var bar *uiprogress.Bar
		if !noProgress && len(doc.Rows) > 0 {
			uiprogress.Start()
			bar = uiprogress.AddBar(len(doc.Rows)).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return "Importing: "
			})
			opts = append(opts, core.WithProgress(func(done, total int) {
				_ = bar.Set(done)
			}))
		}

		summary := core.NewImporter(store, opts...).Run(ctx, doc.Rows, spec)

		if bar != nil {
			uiprogress.Stop()
		}

		printSummary(cmd.OutOrStdout(), path, summary)
		return nil
	},
}

func init() {
	importCmd.Flags().StringSliceVar(&importFields, "fields", nil, "columns to read (default: import.fields)")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and resolve without writing to the database")
	importCmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")
	rootCmd.AddCommand(importCmd)
}

// printSummary writes the outcome of an import in a human readable form.
func printSummary(w io.Writer, path string, s core.ImportSummary) {
	fmt.Fprintf(w, "\n%s\n", core.ImportMessage(s.Created))
	fmt.Fprintf(w, "File:     %s\n", path)
	fmt.Fprintf(w, "Rows:     %d\n", s.Total)
	fmt.Fprintf(w, "Created:  %d\n", s.Created)
	fmt.Fprintf(w, "Rejected: %d\n", s.Rejected)
	fmt.Fprintf(w, "Time:     %dms\n", s.DurationMS)

	if len(s.Rejections) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRejected rows:")
	for _, r := range s.Rejections {
		fmt.Fprintf(w, "  row %d (line %d) [%s] %s\n", r.Row, r.Line, r.Kind, r.Reason)
	}
}
