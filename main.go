package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wildstyl3r/picc/internal/config"
	"github.com/wildstyl3r/picc/internal/diag"
	"github.com/wildstyl3r/picc/internal/engine"
	"github.com/wildstyl3r/picc/internal/utils"
)

func main() {
	configPath := flag.String("input", "plasma.toml", "run configuration (.toml or .yaml)")
	verbose := flag.Bool("v", false, "log a summary after every step")
	threads := flag.Int("threads", 0, "worker goroutines per collision pass, 0 for GOMAXPROCS")
	steps := flag.Int("steps", -1, "override the number of steps")
	df := diag.NewFlags(flag.CommandLine)
	flag.Parse()

	startTime := time.Now()
	fmt.Printf("Current time: %s\n", startTime.UTC().Format(time.UnixDate))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading %s: %v", *configPath, err)
	}
	cfg.Verbose = cfg.Verbose || *verbose
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *steps >= 0 {
		cfg.Steps = *steps
	}

	eng, err := engine.FromConfig(cfg)
	if err != nil {
		log.Fatalln(err)
	}
	eng.Run(0, cfg.Steps)

	totals := diag.Totals(eng.Species...)
	for _, t := range totals {
		fmt.Printf("%-12s particles: %-8d weight: %-12g charge: %g C\n", t.Name, t.Count, t.Weight, t.Charge)
	}
	fmt.Printf("Net charge: %g C\n", diag.NetCharge(totals))
	for _, name := range eng.Counters.Processes() {
		fmt.Printf("%-24s events: %d\n", name, eng.Counters.Total(name))
	}

	runName := utils.GetFilename(*configPath)
	df.SetOutputPath(strings.TrimSuffix(cfg.OutputDir, "/"), cfg.MakeDir)
	ex := diag.Extractor{
		Counters:    eng.Counters,
		Grid:        eng.Grid,
		Species:     eng.Species,
		OutputUnits: cfg.OutputUnits,
	}
	if err := ex.Save(runName, df); err != nil {
		log.Fatalln(err)
	}
	fmt.Printf("Elapsed time: %v\n", time.Since(startTime))
}
