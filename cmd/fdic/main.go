package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger

	dataDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "fdic",
	Short: "FDIC BankFind data pipeline",
	Long: `Downloads, parses, and summarizes the FDIC BankFind institutions
and failures datasets. The parse stage embeds field-level metadata from
the published YAML definitions into Parquet output and maintains a
cross-dataset data dictionary.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLogger,
}

func initLogger(cmd *cobra.Command, args []string) error {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := config.Build()
	if err != nil {
		return err
	}

	logger = l
	return nil
}

func rawDir() string {
	return filepath.Join(dataDir, "raw")
}

func processedDir() string {
	return filepath.Join(dataDir, "processed")
}

func dictPath() string {
	return filepath.Join(processedDir(), "data_dictionary.csv")
}

func main() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "Root data directory.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")

	rootCmd.AddCommand(downloadCmd, parseCmd, summarizeCmd, cleanupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
