package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/materials/internal/core"
	"github.com/JonMunkholm/materials/internal/tabular"
)

var (
	exportOut    string
	exportFields []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all materials to a CSV or XLSX file",
	Long:  `Export writes every live material to --out. The format follows the file extension.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		fields := exportFields
		if len(fields) == 0 {
			fields = cfg.Export.Fields
		}
		spec, err := core.ParseExportSpec(fields)
		if err != nil {
			return err
		}
		format, err := tabular.DetectFormat(exportOut, nil)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, f.Close())
			if err != nil {
				_ = os.Remove(exportOut)
			}
		}()

		n, err := core.WriteExport(ctx, store, f, spec, format, core.ProjectOptions{
			Placeholder: cfg.Export.Placeholder,
			TimeFormat:  cfg.Export.TimeFormat,
		})
		if err != nil {
			return fmt.Errorf("export to %s: %w", exportOut, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d materials to %s\n", n, exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (.csv or .xlsx)")
	exportCmd.Flags().StringSliceVar(&exportFields, "fields", nil, "columns to write (default: export.fields)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
