package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/sdf-prep/sdfprep"
)

func main() {
	var dataDir string
	var outputDir string
	var workers int
	var force bool
	var verbose bool
	config := sdfprep.DefaultMeshConfig()
	flag.StringVar(&dataDir, "data-dir", "data", "directory of object subdirectories")
	flag.StringVar(&outputDir, "output-dir", "", "directory for outputs (default: data-dir)")
	flag.IntVar(&workers, "workers", 0, "number of objects to process at once (0 for all CPUs)")
	flag.BoolVar(&force, "force", false, "recompute meshes which were already normalized")
	flag.BoolVar(&verbose, "verbose", false, "log every pipeline step")
	config.AddFlags(flag.CommandLine)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pipeline := sdfprep.NewPipeline()
	pipeline.Mesh = config
	pipeline.Verbose = verbose
	runner := &sdfprep.Runner{
		Catalog:  &sdfprep.DirCatalog{Root: dataDir, OutputRoot: outputDir},
		Pipeline: pipeline,
		Stage:    sdfprep.StageMesh,
		Workers:  workers,
		Force:    force,
	}
	result, err := runner.Run(ctx)
	if err == context.Canceled {
		log.Println("Interrupted; stopped dispatching new objects.")
	} else {
		essentials.Must(err)
	}
	log.Printf("Done: %d succeeded, %d failed, %d skipped.", len(result.Succeeded),
		len(result.Failed), result.Skipped)
}
