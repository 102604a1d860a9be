package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export labeled learning records for offline training",
	Long: `Write the resolved subset of the learning store to a JSONL file.
Unlabeled records (signals still awaiting a decision) are skipped.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportOut, "out", "training.jsonl", "Output path for the training set")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := buildApp(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	records, err := a.store.Labeled()
	if err != nil {
		return fmt.Errorf("load learning store: %w", err)
	}

	f, err := os.OpenFile(exportOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.SignalID, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	log.Info().Int("records", len(records)).Str("out", exportOut).Msg("training set exported")
	return nil
}
