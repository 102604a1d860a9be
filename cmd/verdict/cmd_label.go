package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/verdictfx/verdict/internal/infrastructure/feedback"
)

var labelCmd = &cobra.Command{
	Use:   "label <signal-id> <accept|skip>",
	Short: "Record the user decision for an emitted signal",
	Args:  cobra.ExactArgs(2),
	RunE:  runLabel,
}

func init() {
	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, args []string) error {
	signalID, decision := args[0], args[1]

	var accepted bool
	switch decision {
	case "accept":
		accepted = true
	case "skip":
		accepted = false
	default:
		return fmt.Errorf("decision must be accept or skip, got %q", decision)
	}

	ctx := context.Background()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	err = a.recorder.RecordDecision(ctx, signalID, accepted)
	if errors.Is(err, feedback.ErrAlreadyLabeled) {
		log.Info().Str("signal_id", signalID).Msg("signal already labeled, nothing to do")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("labeled %s as %s\n", signalID, decision)
	return nil
}
