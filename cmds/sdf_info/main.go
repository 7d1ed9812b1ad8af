package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/sdf-prep/sdfprep"
)

func main() {
	flag.Parse()
	if len(flag.Args()) != 1 {
		essentials.Die("Usage: sdf_info <samples.npy>")
	}
	path := flag.Args()[0]

	matrix, err := sdfprep.Load(path, sdfprep.ReadMatrix)
	essentials.Must(err)
	rows, cols := matrix.Dims()
	pool, err := sdfprep.NewSamplePoolMatrix(matrix)
	essentials.Must(err)
	stats := sdfprep.Summarize(pool)

	fmt.Println("shape:", rows, "x", cols)
	fmt.Println("max norm:", stats.MaxNorm)
	if cols == 4 {
		fmt.Println("mean distance:", stats.MeanDistance)
		fmt.Println("stddev distance:", stats.StdDistance)
		fmt.Println("min distance:", stats.MinDistance)
		fmt.Println("max distance:", stats.MaxDistance)
		fmt.Println("inside fraction:", stats.InsideFraction)
	}
	if err := checkSamples(pool); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
}

func checkSamples(pool *sdfprep.SamplePool) error {
	for i, c := range pool.Points {
		if c.Norm() > 1+1e-8 {
			return fmt.Errorf("point %d lies outside the unit ball: %v", i, c)
		}
	}
	return nil
}
