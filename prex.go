// Package prex infers preconditions for program-transformation rules.
// It wires rule files, configuration and console reporting around the
// inference engine in internal/infer.
package prex

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cexlab/prex/internal/infer"
	"github.com/cexlab/prex/internal/parse"
	"github.com/cexlab/prex/internal/translate"
)

// Config is the user-facing configuration, read from a YAML file or filled
// in from command-line flags.
type Config struct {
	Strategy    string `yaml:"strategy"`
	Semantics   string `yaml:"semantics"`
	RandomCases int    `yaml:"random-cases"`
	SolverGood  int    `yaml:"solver-good"`
	SolverBad   int    `yaml:"solver-bad"`
	Incompletes *bool  `yaml:"incompletes"`
	Strengthen  bool   `yaml:"strengthen"`
	PreFeatures bool   `yaml:"pre-features"`
	AssumePre   bool   `yaml:"assume-pre"`
	Seed        int64  `yaml:"seed"`
}

// DefaultConfig returns the configuration used when no file or flags
// override it.
func DefaultConfig() Config {
	incompletes := true
	return Config{
		Strategy:    "largest",
		Semantics:   "default",
		RandomCases: 500,
		SolverGood:  10,
		SolverBad:   10,
		Incompletes: &incompletes,
	}
}

// ParseConfigFile reads a YAML configuration file, layering it over the
// defaults.
func ParseConfigFile(path string) (Config, error) {
	config := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("prex: config %s: %w", path, err)
	}
	return config, nil
}

// Options resolves the configuration into engine options for one rule.
func (c Config) Options(rep infer.Reporter, logger *zap.Logger) (infer.Options, error) {
	strategy, ok := infer.Strategies[c.Strategy]
	if !ok {
		return infer.Options{}, fmt.Errorf("prex: unknown conflict strategy %q", c.Strategy)
	}
	profile, err := translate.Lookup(c.Semantics)
	if err != nil {
		return infer.Options{}, err
	}

	incompletes := true
	if c.Incompletes != nil {
		incompletes = *c.Incompletes
	}

	return infer.Options{
		RandomCases: c.RandomCases,
		SolverGood:  c.SolverGood,
		SolverBad:   c.SolverBad,
		Strengthen:  c.Strengthen,
		UseFeatures: c.PreFeatures,
		Incompletes: incompletes,
		Strategy:    strategy,
		Profile:     profile,
		Rand:        rand.New(rand.NewSource(c.Seed)),
		Reporter:    rep,
		Logger:      logger,
	}, nil
}

// Precondition is one inferred precondition for a rule, with the number of
// known good cases it covers. Final marks the fully validated result.
type Precondition struct {
	Pre      string `json:"pre"`
	Coverage int    `json:"coverage"`
	Final    bool   `json:"final"`
}

// Report collects the inference results for one rule.
type Report struct {
	Rule          string         `json:"rule"`
	Preconditions []Precondition `json:"preconditions"`
	Valid         bool           `json:"valid"`
}

// ProcessFiles infers preconditions for every rule in the given files.
func ProcessFiles(ctx context.Context, logger *zap.Logger, config Config, paths []string, rep infer.Reporter) ([]Report, error) {
	var reports []Report
	for _, path := range paths {
		rs, err := ProcessFile(ctx, logger, config, path, rep)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		reports = append(reports, rs...)
	}
	return reports, nil
}

// ProcessFile infers preconditions for every rule in one file.
func ProcessFile(ctx context.Context, logger *zap.Logger, config Config, path string, rep infer.Reporter) ([]Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	decls, err := parse.Parse(string(content))
	if err != nil {
		return nil, err
	}

	var reports []Report
	for _, d := range decls {
		r, err := processDecl(ctx, logger, config, d, rep)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", d.Rule.Name, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func processDecl(ctx context.Context, logger *zap.Logger, config Config, d *parse.Decl, rep infer.Reporter) (Report, error) {
	opts, err := config.Options(rep, logger)
	if err != nil {
		return Report{}, err
	}
	opts.Assumptions = d.Assumes
	opts.Features = d.Features
	if config.AssumePre && d.Rule.Pre != nil {
		opts.Assumptions = append(opts.Assumptions, d.Rule.Pre)
	}
	if len(d.Features) > 0 {
		opts.UseFeatures = false
	}

	inference, err := infer.Infer(d.Rule, opts)
	if err != nil {
		return Report{}, err
	}

	report := Report{Rule: d.Rule.Name}
	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		res, ok := inference.Next()
		if !ok {
			break
		}
		report.Preconditions = append(report.Preconditions, Precondition{
			Pre:      res.Pre.String(),
			Coverage: res.Coverage,
			Final:    res.Final,
		})
	}
	if err := inference.Err(); err != nil {
		return report, err
	}

	// a rule with no counterexamples at all needs no precondition
	report.Valid = len(report.Preconditions) == 0
	return report, nil
}
