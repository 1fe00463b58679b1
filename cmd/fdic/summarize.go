package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	fdicdata "github.com/mplosser/data-fdic"
	"github.com/mplosser/data-fdic/reader"
	"github.com/mplosser/data-fdic/summary"
)

var fieldsDataset string

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize processed data files",
	Long: `Prints an overview of the latest processed file per dataset:
record counts, field counts, metadata coverage, date ranges, and top
value tables. With --fields, lists every field of one dataset instead.`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&fieldsDataset, "fields", "", "List all fields for a dataset (institutions or failures).")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if fieldsDataset != "" {
		return listFields(ctx, fieldsDataset)
	}

	for _, ds := range fdicdata.Datasets {
		if err := summarizeDataset(ctx, ds); err != nil {
			return err
		}
	}

	return nil
}

func latestProcessed(name string) (string, error) {
	path, err := reader.LatestFile(processedDir(), name+"_*.parquet")
	if err != nil {
		return "", err
	}
	return path, nil
}

func summarizeDataset(ctx context.Context, ds fdicdata.Dataset) error {
	fmt.Printf("\n%s\n", ds.Name)

	path, err := latestProcessed(ds.Name)
	if err != nil {
		return err
	}
	if path == "" {
		fmt.Printf("  no processed data found in %s\n", processedDir())
		return nil
	}

	rep, err := summary.Read(ctx, path)
	if err != nil {
		return err
	}
	defer rep.Close()

	titles, descs := rep.MetadataCoverage()
	_, generatedAt := rep.Provenance()

	fmt.Printf("  file: %s (%s)\n", rep.Path, fdicdata.FormatSize(rep.Size))
	if generatedAt != "" {
		fmt.Printf("  generated: %s\n", generatedAt)
	}
	fmt.Printf("  records: %d\n", rep.Records())
	fmt.Printf("  fields: %d (with title: %d, with description: %d)\n", rep.NumFields(), titles, descs)

	if ds.DateColumn != "" {
		if min, max, ok := rep.DateRange(ds.DateColumn); ok {
			fmt.Printf("  %s range: %s to %s\n", ds.DateColumn,
				min.Format("2006-01-02"), max.Format("2006-01-02"))
		}
	}

	if ds.YearColumn != "" {
		if min, max, ok := rep.YearRange(ds.YearColumn); ok {
			fmt.Printf("  %s range: %d - %d\n", ds.YearColumn, min, max)
		}
	}

	for _, col := range ds.TopColumns {
		top := rep.TopValues(col, 5)
		if len(top) == 0 {
			continue
		}

		fmt.Printf("  top %s:\n", col)
		for _, vc := range top {
			if vc.Label != "" {
				fmt.Printf("    %s (%s): %d\n", vc.Value, vc.Label, vc.Count)
			} else {
				fmt.Printf("    %s: %d\n", vc.Value, vc.Count)
			}
		}
	}

	return nil
}

func listFields(ctx context.Context, name string) error {
	path, err := latestProcessed(name)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("no processed data for %s", name)
	}

	rep, err := summary.Read(ctx, path)
	if err != nil {
		return err
	}
	defer rep.Close()

	fmt.Printf("%-20s %-12s %s\n", "Field", "Type", "Title")

	for _, f := range rep.Fields() {
		fmt.Printf("%-20s %-12s %s\n", f.Name, f.Type, f.Title)
	}

	return nil
}
