package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/sdf-prep/sdfprep"
)

func main() {
	var seed int64
	var verbose bool
	pipeline := sdfprep.NewPipeline()
	flag.Int64Var(&seed, "seed", 0, "random seed for sampling")
	flag.BoolVar(&verbose, "verbose", false, "log every pipeline step")
	pipeline.Mesh.AddFlags(flag.CommandLine)
	pipeline.Samples.AddFlags(flag.CommandLine)
	flag.Parse()
	pipeline.Verbose = verbose

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: sample_mesh [flags] <input.(stl|obj)> <output-dir>")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
		os.Exit(1)
	}
	inputPath, outputDir := args[0], args[1]
	essentials.Must(pipeline.Validate())

	startTime := time.Now()
	log.Println("Loading mesh...")
	raw, err := sdfprep.LoadMesh(inputPath)
	essentials.Must(err)
	log.Printf(" - loaded %d vertices and %d faces", len(raw.Vertices), len(raw.Faces))

	log.Println("Preparing mesh...")
	normalized, err := pipeline.PrepareMesh(raw)
	essentials.Must(err)
	log.Printf(" - watertight mesh has %d faces", len(normalized.Faces))

	paths := sdfprep.DirRecordPaths(outputDir)
	essentials.Must(os.MkdirAll(outputDir, 0755))
	essentials.Must(sdfprep.Save(paths.MeshConfig, pipeline.Mesh, sdfprep.WriteMeshConfig))
	essentials.Must(sdfprep.SaveMesh(paths.NormalizedMesh, normalized))

	log.Println("Sampling points...")
	record, err := pipeline.Sample(rand.New(rand.NewSource(seed)), normalized)
	essentials.Must(err)

	metadata := &sdfprep.Metadata{
		ID:             inputPath,
		Seed:           seed,
		Mesh:           pipeline.Mesh,
		Samples:        pipeline.Samples,
		NumVertices:    len(normalized.Vertices),
		NumFaces:       len(normalized.Faces),
		Unit:           sdfprep.Summarize(record.Unit),
		Near1:          sdfprep.Summarize(record.Near1),
		Near2:          sdfprep.Summarize(record.Near2),
		Surface:        sdfprep.Summarize(record.Surface),
		ElapsedSeconds: time.Since(startTime).Seconds(),
	}
	log.Println("Saving samples...")
	essentials.Must(sdfprep.SaveRecord(paths, record, metadata))
	log.Printf(" - inside fraction (unit ball): %f", metadata.Unit.InsideFraction)
}
