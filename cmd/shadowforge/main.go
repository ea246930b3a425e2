package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/blocknetlab/shadowforge/pkg/logging"
	"github.com/blocknetlab/shadowforge/pkg/metrics"
	"github.com/blocknetlab/shadowforge/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", "network.yaml", "Network description file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	metricsOut := flag.String("metrics-out", "", "Write compile-pass metrics to this textfile")
	dryRun := flag.Bool("dry-run", false, "Compile and validate without writing artifacts")
	flag.Parse()

	logger := logging.NewDefaultLogger()
	if *logLevel != "" {
		logger.SetLevel(logging.ParseLevel(*logLevel))
	} else if env := os.Getenv("SHADOWFORGE_LOG_LEVEL"); env != "" {
		logger.SetLevel(logging.ParseLevel(env))
	}

	data, err := os.ReadFile(*configPath)
	if err != nil {
		logger.Error("failed to read network description", logging.Error(err), logging.Path(*configPath))
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	compiler := pipeline.New(logger, reg)

	res, err := compiler.Compile(data)
	if err != nil {
		logger.Error("compilation failed", logging.Error(err))
		os.Exit(1)
	}

	if *dryRun {
		fmt.Printf("ok: %d agents, run id %s\n", len(res.Agents), res.RunID)
		return
	}

	if err := compiler.WriteArtifacts(res); err != nil {
		logger.Error("failed to write artifacts", logging.Error(err))
		os.Exit(1)
	}

	if *metricsOut != "" {
		if err := reg.WriteTextfile(*metricsOut); err != nil {
			logger.Warn("failed to write metrics textfile", logging.Error(err))
		}
	}

	fmt.Printf("compiled %d agents -> %s\n", len(res.Agents), res.Desc.Params.OutputDir)
}
