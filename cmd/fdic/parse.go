package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	fdicdata "github.com/mplosser/data-fdic"
)

var forceParse bool

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse raw data into Parquet with embedded metadata",
	Long: `Normalizes the latest raw file for each dataset, embeds the field
definitions as column metadata, writes Parquet output under
<data-dir>/processed, and updates the cross-dataset data dictionary.
Existing output is skipped unless --force is given.`,
	RunE: runParse,
}

func init() {
	parseCmd.Flags().BoolVarP(&forceParse, "force", "f", false, "Overwrite existing output files.")
}

func runParse(cmd *cobra.Command, args []string) error {
	outcomes, err := fdicdata.Run(&fdicdata.RunRequest{
		RawDir:   rawDir(),
		OutDir:   processedDir(),
		DictPath: dictPath(),
		Force:    forceParse,
	})
	if err != nil {
		return err
	}

	for _, o := range outcomes {
		switch o.Status {
		case fdicdata.StatusOK:
			logger.Info("dataset parsed",
				zap.String("dataset", o.Dataset),
				zap.String("path", o.Path),
				zap.Int("rows", o.Rows),
				zap.Int("fields", o.Fields))

			for _, f := range o.Warnings.Fields() {
				logger.Warn("values failed coercion",
					zap.String("dataset", o.Dataset),
					zap.String("field", f),
					zap.Int("count", o.Warnings.Count(f)))
			}

		case fdicdata.StatusSkipped:
			logger.Info("output exists, skipping (use --force to overwrite)",
				zap.String("dataset", o.Dataset))

		case fdicdata.StatusFailed:
			logger.Error("dataset failed",
				zap.String("dataset", o.Dataset),
				zap.Error(o.Err))
		}
	}

	if fdicdata.Failed(outcomes) {
		return fmt.Errorf("one or more datasets failed")
	}

	return nil
}
