package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nbft-project/nbft/bus/membus"
	"github.com/nbft-project/nbft/config"
	"github.com/nbft-project/nbft/metrics"
	"github.com/nbft-project/nbft/round"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		n               int
		m               int
		view            int
		malNodes        int
		proposal        string
		roundTimeout    time.Duration
		inprep2Deadline time.Duration
	)

	cmd := &cobra.Command{
		Use:   "nbft",
		Short: "Run a single hierarchical BFT consensus round",
		Long: `nbft assigns n nodes into groups of m, runs the two-phase intra-group
prepare and inter-group tally, and reports the round's decision.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRound(cmd.Context(), roundParams{
				n: n, m: m, view: view, malNodes: malNodes, proposal: proposal,
				roundTimeout: roundTimeout, inprep2Deadline: inprep2Deadline,
			})
		},
	}

	cmd.Flags().IntVar(&n, "n", 16, "total number of nodes")
	cmd.Flags().IntVar(&m, "m", 4, "group size")
	cmd.Flags().IntVar(&view, "view", 0, "view number")
	cmd.Flags().IntVar(&malNodes, "mal-nodes", 0, "number of dishonest nodes to sample")
	cmd.Flags().StringVar(&proposal, "proposal", "BLOCK_0", "proposed value for the round")
	cmd.Flags().DurationVar(&roundTimeout, "round-timeout", 5*time.Second, "overall round timeout")
	cmd.Flags().DurationVar(&inprep2Deadline, "inprep2-deadline", time.Second, "representative aggregation deadline")

	return cmd
}

type roundParams struct {
	n, m, view, malNodes int
	proposal             string
	roundTimeout         time.Duration
	inprep2Deadline      time.Duration
}

func runRound(ctx context.Context, p roundParams) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("nbft: build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg := config.Config{
		N: p.n, M: p.m, View: p.view,
		RoundTimeout: p.roundTimeout, InPrep2Deadline: p.inprep2Deadline,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("nbft: invalid config: %w", err)
	}

	stats := metrics.New(prometheus.NewRegistry())
	bus := membus.New()
	driver := round.New(cfg, bus, log, stats, rand.New(rand.NewSource(time.Now().UnixNano())))

	roundCtx, cancel := context.WithTimeout(ctx, cfg.RoundTimeout)
	defer cancel()

	rid := fmt.Sprintf("%d", time.Now().UnixNano())
	decision, err := driver.RunRound(roundCtx, rid, p.proposal, p.malNodes)
	if err != nil {
		return fmt.Errorf("nbft: round failed: %w", err)
	}

	log.Info("round decision",
		zap.String("rid", decision.RID),
		zap.String("winner", decision.Winner),
		zap.Int("votes", decision.Votes),
		zap.Int("total", decision.Total),
		zap.Int("threshold", decision.Threshold),
		zap.Bool("consensus", decision.Consensus),
	)
	return nil
}
