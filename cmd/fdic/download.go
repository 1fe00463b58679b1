package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	fdicdata "github.com/mplosser/data-fdic"
	"github.com/mplosser/data-fdic/fetch"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download raw data and variable definitions",
	Long: `Fetches the institutions and failures datasets from the BankFind
API, handling pagination, and downloads the YAML variable definition
files. Raw output is written under <data-dir>/raw.`,
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := fetch.NewClient()
	client.Logger = logger

	for _, ds := range fdicdata.Datasets {
		dest := filepath.Join(rawDir(), ds.SchemaFile)

		logger.Info("downloading definitions", zap.String("file", ds.SchemaFile))

		if err := client.Definition(ctx, ds.SchemaFile, dest); err != nil {
			return fmt.Errorf("definitions %s: %w", ds.SchemaFile, err)
		}
	}

	stamp := time.Now().Format("20060102")

	g, ctx := errgroup.WithContext(ctx)

	for _, ds := range fdicdata.Datasets {
		ds := ds

		g.Go(func() error {
			records, err := client.Records(ctx, ds.Endpoint)
			if err != nil {
				return fmt.Errorf("%s: %w", ds.Name, err)
			}

			path := filepath.Join(rawDir(), fmt.Sprintf("%s_%s.json", ds.Name, stamp))
			if err := fetch.SaveRecords(records, path); err != nil {
				return fmt.Errorf("%s: %w", ds.Name, err)
			}

			logger.Info("saved raw data",
				zap.String("dataset", ds.Name),
				zap.String("path", path),
				zap.Int("records", len(records)))

			return nil
		})
	}

	return g.Wait()
}
