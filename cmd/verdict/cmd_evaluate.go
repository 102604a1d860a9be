package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/verdictfx/verdict/internal/application/pipeline"
	"github.com/verdictfx/verdict/internal/domain"
	"github.com/verdictfx/verdict/internal/infrastructure/httpapi"
)

var (
	evaluateInput  string
	evaluateFormat string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one candidate setup from a JSON file",
	Long: `Run a single candidate through the funnel without starting the API.
The input file uses the same shape as POST /api/v1/evaluate.

Example:
  verdict evaluate --input candidate.json
  verdict evaluate --input candidate.json --format json`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateInput, "input", "", "Path to the candidate JSON file (required)")
	evaluateCmd.Flags().StringVar(&evaluateFormat, "format", "table", "Output format: table, json")
	_ = evaluateCmd.MarkFlagRequired("input")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	data, err := os.ReadFile(evaluateInput)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var req httpapi.EvaluateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	res, err := a.engine.Evaluate(ctx, pipeline.Request{
		Candidate:  req.Candidate,
		Features:   req.Features,
		Indicators: req.Indicators,
		Candles:    req.Candles,
		Market:     req.Market,
		Calendar:   req.Calendar,
		Regime:     req.Regime,
	})
	if err != nil {
		return err
	}

	if err := a.registry.Put(ctx, res); err != nil {
		return fmt.Errorf("store signal: %w", err)
	}
	if res.Admitted {
		if err := a.recorder.RecordEmitted(ctx, res, req.Regime.Regime); err != nil {
			return err
		}
	}

	if strings.EqualFold(evaluateFormat, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printResultTable(res)
}

func printResultTable(res domain.EvaluationResult) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Signal\t%s\n", res.SignalID)
	fmt.Fprintf(w, "Instrument\t%s (%s)\n", res.Instrument, res.Timeframe)
	fmt.Fprintf(w, "Strategy\t%s\n", res.StrategyID)
	fmt.Fprintf(w, "Tier\t%s\n", res.Tier)
	fmt.Fprintf(w, "Score\t%.1f\n", res.CompositeScore)
	fmt.Fprintf(w, "Admitted\t%t\n", res.Admitted)
	if res.VetoReason != "" {
		fmt.Fprintf(w, "Veto\t%s (%s)\n", res.VetoReason, res.VetoStage)
	}
	if res.RiskPlan != nil {
		fmt.Fprintf(w, "Stop loss\t%.5f\n", res.RiskPlan.StopLoss)
		fmt.Fprintf(w, "Take profit\t%.5f\n", res.RiskPlan.TakeProfit)
		fmt.Fprintf(w, "R:R\t%.2f\n", res.RiskPlan.RR)
	}
	fmt.Fprintf(w, "Why\t%s\n", res.Explanation)
	return w.Flush()
}
