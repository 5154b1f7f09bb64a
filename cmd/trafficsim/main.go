package main

import (
	"context"
	"flag"
	"os"

	"github.com/ixplabs/egresssim/core"
	"github.com/ixplabs/egresssim/internal/logging"
	"github.com/ixplabs/egresssim/internal/lp"
)

func main() {
	input := flag.String("input", "", "Path to the scenario JSON file")
	output := flag.String("output", "", "Path for the result report JSON; stdout when empty")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *input == "" {
		log.Error(ctx, "missing -input flag")
		flag.Usage()
		os.Exit(2)
	}

	scenario, err := core.LoadScenarioFile(*input)
	if err != nil {
		log.Error(ctx, "failed to load scenario", logging.String("path", *input), logging.Err(err))
		os.Exit(1)
	}

	log.Info(ctx, "scenario loaded",
		logging.String("path", *input),
		logging.Int("hosts", len(scenario.Hosts())),
		logging.Int("egresses", len(scenario.Egresses())),
		logging.Int("destinations", len(scenario.Destinations())))

	engine := core.NewEvaluationEngine(lp.SimplexSolver{}, log)
	report, err := engine.Evaluate(ctx, scenario)
	if err != nil {
		log.Error(ctx, "evaluation failed", logging.Err(err))
		os.Exit(1)
	}

	if *output == "" {
		if err := report.Write(os.Stdout); err != nil {
			log.Error(ctx, "failed to write report", logging.Err(err))
			os.Exit(1)
		}
		return
	}
	if err := report.WriteFile(*output); err != nil {
		log.Error(ctx, "failed to write report", logging.String("path", *output), logging.Err(err))
		os.Exit(1)
	}
	log.Info(ctx, "report written", logging.String("path", *output))
}
