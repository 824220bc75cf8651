// Command neads-demo wires a toy plugin set through the evaluator and
// prints its results, mirroring the teacher's cmd/example: a small
// main() dispatching to a handful of named demo functions, now choosing
// its evaluation algorithm and spill budget from an optional YAML config
// file plus command-line flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gitrdm/neads"
	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/database"
	"github.com/gitrdm/neads/evalalgo"
	"github.com/gitrdm/neads/plugin"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file (budget_bytes, algorithm)")
	budgetFlag := flag.Uint64("budget-bytes", 0, "override the spill budget in bytes (0 = use config/default)")
	algoFlag := flag.String("algorithm", "", "override the algorithm: complex, topological, or breadthfirst")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *budgetFlag != 0 {
		cfg.BudgetBytes = *budgetFlag
	}
	if *algoFlag != "" {
		cfg.Algorithm = *algoFlag
	}

	opts, err := algorithmOptions(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== neads demo ===")
	fmt.Println()
	runArithmeticTree(opts)
	runTriggerCascade(opts)
}

func algorithmOptions(cfg demoConfig) ([]evalalgo.Option, error) {
	opts := []evalalgo.Option{evalalgo.WithBudget(cfg.BudgetBytes)}
	switch cfg.Algorithm {
	case "", "complex":
	case "topological":
		opts = append(opts, evalalgo.WithTopological())
	case "breadthfirst":
		opts = append(opts, evalalgo.WithBreadthFirst())
	default:
		return nil, fmt.Errorf("neads-demo: unknown algorithm %q", cfg.Algorithm)
	}
	return opts, nil
}

// runArithmeticTree evaluates (2 + 40) using two leaves and an adder,
// demonstrating basic objective-free evaluation.
func runArithmeticTree(opts []evalalgo.Option) {
	fmt.Println("1. Arithmetic tree:")

	g := activation.New(0)
	left := mustAdd(g, constPlugin("left"), []any{int64(2)})
	right := mustAdd(g, constPlugin("right"), []any{int64(40)})
	sum := mustAdd(g, addPlugin(), []any{left.Symbol(), right.Symbol()})

	results := mustEvaluate(g, opts)
	fmt.Printf("   2 + 40 = %v\n\n", results[sum])
}

// runTriggerCascade evaluates a seed activation whose trigger_on_result
// appends a follow-up activation once the seed's value is known,
// demonstrating the "as soon as possible" trigger cascade.
func runTriggerCascade(opts []evalalgo.Option) {
	fmt.Println("2. Trigger cascade:")

	g := activation.New(0)
	seed := mustAdd(g, constPlugin("seed"), []any{int64(21)})

	var follow activation.Activation
	err := g.SetTriggerOnResult(seed, func(fg *activation.ActivationGraph, result any) ([]activation.Activation, error) {
		act, err := fg.AddActivation(doublePlugin(), []any{seed.Symbol()}, nil)
		if err != nil {
			return nil, err
		}
		follow = act
		return []activation.Activation{act}, nil
	})
	if err != nil {
		log.Fatal(err)
	}

	results := mustEvaluate(g, opts)
	fmt.Printf("   double(seed) = %v\n\n", results[follow])
}

func mustAdd(g *activation.ActivationGraph, p plugin.Plugin, positional []any) activation.Activation {
	act, err := g.AddActivation(p, positional, nil)
	if err != nil {
		log.Fatal(err)
	}
	return act
}

func mustEvaluate(g *activation.ActivationGraph, opts []evalalgo.Option) map[activation.Activation]any {
	sealed, err := g.Seal()
	if err != nil {
		log.Fatal(err)
	}

	dir, err := os.MkdirTemp("", "neads-demo-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	db, err := database.NewFileDatabase(dir, 64)
	if err != nil {
		log.Fatal(err)
	}

	var results map[activation.Activation]any
	err = database.Scope(db, func() error {
		var runErr error
		results, runErr = neads.Evaluate(context.Background(), sealed, db, opts...)
		return runErr
	})
	if err != nil {
		log.Fatal(err)
	}
	return results
}
