package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sort"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/sdf-prep/sdfprep"
)

func main() {
	var dataDir string
	var outputDir string
	var workers int
	var seed int64
	var force bool
	var verbose bool
	pipeline := sdfprep.NewPipeline()
	flag.StringVar(&dataDir, "data-dir", "data", "directory of object subdirectories")
	flag.StringVar(&outputDir, "output-dir", "", "directory for outputs (default: data-dir)")
	flag.IntVar(&workers, "workers", 0, "number of objects to process at once (0 for all CPUs)")
	flag.Int64Var(&seed, "seed", 0, "seed combined with each object id for sampling")
	flag.BoolVar(&force, "force", false, "recompute objects which already have samples")
	flag.BoolVar(&verbose, "verbose", false, "log every pipeline step")
	pipeline.Mesh.AddFlags(flag.CommandLine)
	pipeline.Samples.AddFlags(flag.CommandLine)
	flag.Parse()
	pipeline.Verbose = verbose

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	runner := &sdfprep.Runner{
		Catalog:  &sdfprep.DirCatalog{Root: dataDir, OutputRoot: outputDir},
		Pipeline: pipeline,
		Stage:    sdfprep.StageSDF,
		Workers:  workers,
		Seed:     seed,
		Force:    force,
	}
	result, err := runner.Run(ctx)
	if err == context.Canceled {
		log.Println("Interrupted; stopped dispatching new objects.")
	} else {
		essentials.Must(err)
	}

	failed := make([]string, 0, len(result.Failed))
	for id := range result.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		log.Printf(" - failed %s: %v", id, result.Failed[id])
	}
	log.Printf("Done: %d succeeded, %d failed, %d skipped.", len(result.Succeeded),
		len(result.Failed), result.Skipped)
}
