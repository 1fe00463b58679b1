package main

import (
	"fmt"

	"github.com/spf13/cobra"

	fdicdata "github.com/mplosser/data-fdic"
)

var (
	cleanRaw       bool
	cleanProcessed bool
	cleanAll       bool
	cleanDryRun    bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove raw and/or processed data files",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanRaw, "raw", "r", false, "Remove raw data files (JSON, YAML).")
	cleanupCmd.Flags().BoolVarP(&cleanProcessed, "processed", "p", false, "Remove processed data files (Parquet, CSV).")
	cleanupCmd.Flags().BoolVarP(&cleanAll, "all", "a", false, "Remove all data files.")
	cleanupCmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "n", false, "Show what would be deleted without deleting.")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	if !cleanRaw && !cleanProcessed && !cleanAll {
		return cmd.Help()
	}

	if cleanAll || cleanRaw {
		if err := cleanupDir(rawDir(), fdicdata.RawPatterns); err != nil {
			return err
		}
	}

	if cleanAll || cleanProcessed {
		if err := cleanupDir(processedDir(), fdicdata.ProcessedPatterns); err != nil {
			return err
		}
	}

	return nil
}

func cleanupDir(dir string, patterns []string) error {
	res, err := fdicdata.Cleanup(dir, patterns, cleanDryRun)
	if err != nil {
		return err
	}

	action := "deleted"
	if res.DryRun {
		action = "would delete"
	}

	for _, f := range res.Files {
		fmt.Printf("  %s: %s (%s)\n", action, f.Path, fdicdata.FormatSize(f.Size))
	}

	fmt.Printf("%s %d files (%s) in %s\n", action, len(res.Files), fdicdata.FormatSize(res.TotalSize), dir)

	return nil
}
