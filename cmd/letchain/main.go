package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"letchain"
)

var (
	flagGranularity float64
	flagTimeout     time.Duration
	flagDebug       bool

	flagSeed      uint64
	flagCount     int
	flagMinLength int
	flagMaxLength int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "letchain",
		Short: "End-to-end data age and optimal phasing of LET cause-effect chains",
	}

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(experimentCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyse a chain described in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := letchain.LoadChain(args[0])
			if err != nil {
				return err
			}
			return analyze(chain)
		},
	}

	cmd.Flags().Float64Var(&flagGranularity, "granularity", 1, "Offset granularity of the heuristic search in ms (0 disables it)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", time.Minute, "Time budget of the heuristic search")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "Print the data propagation trees")

	return cmd
}

func analyze(chain letchain.Chain) error {
	fmt.Printf("%s %v\n", BoldCyan("Chain:"), chain)

	dpt, err := letchain.NewDpt(chain)
	if err != nil {
		return err
	}
	exact, err := dpt.MaxAge()
	if err != nil {
		return err
	}
	if flagDebug {
		dpt.Print(os.Stdout)
	}
	analytic, err := letchain.AnalyticLatency(chain)
	if err != nil {
		return err
	}

	fmt.Printf("  %-28s %v\n", "Exact (DPT):", Bold(exact))
	fmt.Printf("  %-28s %v %s\n", "Analytic (Martinez):", analytic, check(analytic == exact))
	fmt.Printf("  %-28s %v\n", "Davare bound:", letchain.DavareBound(chain))

	if letchain.IsMaxHarmonic(chain) {
		if err := printPhasing("Optimal (max-harmonic):", chain, letchain.OptimalPhasingMaxHarm); err != nil {
			return err
		}
	}
	if letchain.Is2kMaxHarmonic(chain) {
		if err := printPhasing("Optimal ((2,k)-max-harm.):", chain, letchain.OptimalPhasingSemiHarm); err != nil {
			return err
		}
	}

	if flagGranularity <= 0 {
		return nil
	}
	granularity := letchain.Mseconds(flagGranularity)
	individual, _, err := letchain.CombinationsCount(chain, granularity)
	if err != nil {
		return err
	}
	fmt.Printf("  %-28s %v\n", "Offset assignments:", individual)

	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()
	searched := chain.Clone()
	best, err := letchain.HeuristicOptimalPhasing(ctx, searched, granularity)
	if err != nil {
		return err
	}
	if !best.Present() {
		fmt.Printf("  %-28s %s\n", "Heuristic:", Yellow("no result within "+flagTimeout.String()))
		return nil
	}
	fmt.Printf("  %-28s %v  %s\n", "Heuristic:", letchain.Ttick(best.OrElse(0)), Dim(searched.String()))
	return nil
}

func printPhasing(label string, chain letchain.Chain, phase func(letchain.Chain) (letchain.Ttick, error)) error {
	phased := chain.Clone()
	bound, err := phase(phased)
	if err != nil {
		return err
	}
	exact, err := letchain.ExactLatency(phased)
	if err != nil {
		return err
	}
	fmt.Printf("  %-28s %v %s  %s\n", label, BoldGreen(bound), check(bound == exact), Dim(phased.String()))
	return nil
}

func experimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Compare synchronous release with optimal phasing on random max-harmonic chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := letchain.DefaultExperimentConfig()
			cfg.Seed = flagSeed
			cfg.Count = flagCount
			cfg.MinLength = flagMinLength
			cfg.MaxLength = flagMaxLength

			exp, err := letchain.NewExperiment(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", BoldCyan("Experiment:"), Dim(exp.RunID.String()))
			if err := exp.Run(); err != nil {
				return err
			}
			for _, s := range exp.Summaries() {
				fmt.Println("  " + s.String())
			}
			fmt.Println(BoldYellow(fmt.Sprintf("%d chains analysed", len(exp.Results()))))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&flagSeed, "seed", letchain.EXPERIMENT_SEED, "Seed of the chain generator")
	cmd.Flags().IntVar(&flagCount, "count", letchain.EXPERIMENT_COUNT, "Chains per chain length")
	cmd.Flags().IntVar(&flagMinLength, "min-length", letchain.EXPERIMENT_MIN_LENGTH, "Shortest chain length")
	cmd.Flags().IntVar(&flagMaxLength, "max-length", letchain.EXPERIMENT_MAX_LENGTH, "Longest chain length")

	return cmd
}
