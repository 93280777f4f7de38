package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cexlab/prex"
	"github.com/cexlab/prex/internal/infer"
)

// infer command flags
var (
	strategy        string
	semantics       string
	randomCases     int
	solverGood      int
	solverBad       int
	strengthen      bool
	assumePre       bool
	preFeatures     bool
	incompletes     bool
	seed            int64
	inferJsonOutput bool
	outPath         string
)

var inferCmd = &cobra.Command{
	Use:   "infer [paths...]",
	Short: "Infer preconditions for the rules in the given files",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide rule file paths")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		config := loadConfig(cmd)
		runInference(ctx, logger, config, args, inferJsonOutput, outPath)
	},
}

func init() {
	inferCmd.Flags().StringVar(&strategy, "strategy", "largest", "Conflict set strategy (largest, smallest, maxpos, minneg)")
	inferCmd.Flags().StringVar(&semantics, "semantics", "default", "Instruction semantics profile")
	inferCmd.Flags().IntVar(&randomCases, "random", 500, "Number of random test cases per type assignment")
	inferCmd.Flags().IntVar(&solverGood, "solver-good", 10, "Number of solver-verified positive cases")
	inferCmd.Flags().IntVar(&solverBad, "solver-bad", 10, "Number of solver counterexamples per query")
	inferCmd.Flags().BoolVar(&strengthen, "strengthen", false, "Require the result to imply the rule's precondition")
	inferCmd.Flags().BoolVar(&assumePre, "assume-pre", false, "Treat the rule's precondition as an assumption")
	inferCmd.Flags().BoolVar(&preFeatures, "pre-features", false, "Seed the feature list from the rule's precondition")
	inferCmd.Flags().BoolVar(&incompletes, "incompletes", true, "Report partial preconditions while inferring")
	inferCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed")
	inferCmd.Flags().BoolVar(&inferJsonOutput, "json", false, "Output reports in JSON format")
	inferCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
}

// loadConfig layers command-line flags over the configuration file, so a flag
// given explicitly always wins.
func loadConfig(cmd *cobra.Command) prex.Config {
	config := prex.DefaultConfig()
	if cfgFile != "" {
		var err error
		config, err = prex.ParseConfigFile(cfgFile)
		if err != nil {
			logger.Fatal("Failed to read configuration", zap.Error(err))
		}
	}

	if cmd.Flags().Changed("strategy") {
		config.Strategy = strategy
	}
	if cmd.Flags().Changed("semantics") {
		config.Semantics = semantics
	}
	if cmd.Flags().Changed("random") {
		config.RandomCases = randomCases
	}
	if cmd.Flags().Changed("solver-good") {
		config.SolverGood = solverGood
	}
	if cmd.Flags().Changed("solver-bad") {
		config.SolverBad = solverBad
	}
	if cmd.Flags().Changed("incompletes") {
		config.Incompletes = &incompletes
	}
	if cmd.Flags().Changed("seed") {
		config.Seed = seed
	}
	config.Strengthen = config.Strengthen || strengthen
	config.AssumePre = config.AssumePre || assumePre
	config.PreFeatures = config.PreFeatures || preFeatures

	return config
}

func runInference(ctx context.Context, logger *zap.Logger, config prex.Config, paths []string, isJson bool, jsonOutput string) {
	var rep infer.Reporter = infer.NopReporter{}
	var console *prex.ConsoleReporter
	if !isJson {
		console = prex.NewConsoleReporter()
		rep = console
	}

	reports, err := prex.ProcessFiles(ctx, logger, config, paths, rep)
	if console != nil {
		console.Finish()
	}
	if err != nil {
		logger.Error("Error processing rule files", zap.Error(err))
		os.Exit(1)
	}

	printReports(logger, reports, isJson, jsonOutput)
}

func printReports(logger *zap.Logger, reports []prex.Report, isJson bool, jsonOutput string) {
	if !isJson {
		fmt.Println(prex.FormatReports(reports))
		return
	}

	d, err := json.Marshal(reports)
	if err != nil {
		logger.Error("Error marshalling reports to JSON", zap.Error(err))
		return
	}
	if jsonOutput == "" {
		fmt.Println(string(d))
		return
	}
	f, err := os.Create(jsonOutput)
	if err != nil {
		logger.Error("Error creating JSON output file", zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.Write(d); err != nil {
		logger.Error("Error writing JSON output file", zap.Error(err))
	}
}
