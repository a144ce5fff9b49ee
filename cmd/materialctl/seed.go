package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/materials/internal/core"
	"github.com/JonMunkholm/materials/internal/tabular"
)

var (
	seedRows         int
	seedOut          string
	seedInvalidRatio float64
	seedValue        int64
	seedFields       []string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write a realistic materials import file",
	Long: `Seed generates an import file with fake materials. A share of rows can be
made invalid (blank required values, broken metadata) to exercise rejection
handling. The same --seed always produces the same file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedRows < 0 {
			return fmt.Errorf("--rows must not be negative")
		}
		if seedInvalidRatio < 0 || seedInvalidRatio > 1 {
			return fmt.Errorf("--invalid-ratio must be between 0 and 1")
		}

		fields := seedFields
		if len(fields) == 0 {
			fields = cfg.Import.Fields
		}
		spec, err := core.ParseImportSpec(fields)
		if err != nil {
			return err
		}
		format, err := tabular.DetectFormat(seedOut, nil)
		if err != nil {
			return err
		}

		table := generateSeed(spec, seedOptions{
			Rows:         seedRows,
			InvalidRatio: seedInvalidRatio,
			Seed:         seedValue,
		})

		f, err := os.Create(seedOut)
		if err != nil {
			return err
		}
		if err := tabular.Write(f, format, table); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", seedOut, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(table.Rows), seedOut)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVarP(&seedRows, "rows", "n", 100, "number of data rows")
	seedCmd.Flags().StringVarP(&seedOut, "out", "o", "", "output file (.csv or .xlsx)")
	seedCmd.Flags().Float64Var(&seedInvalidRatio, "invalid-ratio", 0, "share of rows to make invalid (0-1)")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (0 picks one)")
	seedCmd.Flags().StringSliceVar(&seedFields, "fields", nil, "columns to write (default: import.fields)")
	_ = seedCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(seedCmd)
}

type seedOptions struct {
	Rows         int
	InvalidRatio float64
	Seed         int64
}

var seedCategories = []string{"Metals", "Wood", "Plastics", "Glass", "Textiles", "Composites", "Ceramics"}

// generateSeed builds a table with the FieldSpec columns. Categories come
// from a small fixed list and suppliers from a pool, so many rows share
// the same references.
func generateSeed(spec core.FieldSpec, opts seedOptions) tabular.Table {
	f := gofakeit.New(opts.Seed)

	suppliers := make([]string, 8)
	for i := range suppliers {
		suppliers[i] = f.Company()
	}

	fields := spec.Fields()
	table := tabular.Table{
		Sheet:   "Materials",
		Headers: spec.Headers(),
		Rows:    make([][]string, 0, opts.Rows),
	}

	for i := 0; i < opts.Rows; i++ {
		category := f.RandomString(seedCategories)
		values := make(map[core.FieldID]string, len(fields))
		values[core.FieldName] = fmt.Sprintf("%s %s", capitalize(f.Adjective()), f.Noun())
		values[core.FieldCategory] = category
		values[core.FieldSupplier] = f.RandomString(suppliers)
		values[core.FieldDescription] = f.Sentence(8)
		values[core.FieldFilePath] = fmt.Sprintf("/materials/%s/%s.pdf", strings.ToLower(category), f.UUID())
		values[core.FieldMetadata] = seedMetadata(f)

		if opts.InvalidRatio > 0 && f.Float64Range(0, 1) < opts.InvalidRatio {
			corrupt(f, spec, values)
		}

		row := make([]string, len(fields))
		for j, id := range fields {
			row[j] = values[id]
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func seedMetadata(f *gofakeit.Faker) string {
	data, _ := json.Marshal(map[string]interface{}{
		"color":     f.SafeColor(),
		"grade":     f.Number(1, 10),
		"thickness": f.Float64Range(0.5, 50),
	})
	return string(data)
}

// corrupt makes one value of the row invalid.
func corrupt(f *gofakeit.Faker, spec core.FieldSpec, values map[core.FieldID]string) {
	targets := []core.FieldID{core.FieldName, core.FieldCategory, core.FieldSupplier}
	if spec.Has(core.FieldMetadata) && f.Bool() {
		values[core.FieldMetadata] = `{"grade":`
		return
	}
	values[targets[f.Number(0, len(targets)-1)]] = "  "
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
