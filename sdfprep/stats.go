package sdfprep

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PoolStats summarizes the distances and positions in a SamplePool.
type PoolStats struct {
	Count          int     `json:"count"`
	MeanDistance   float64 `json:"mean_distance"`
	StdDistance    float64 `json:"std_distance"`
	MinDistance    float64 `json:"min_distance"`
	MaxDistance    float64 `json:"max_distance"`
	InsideFraction float64 `json:"inside_fraction"`
	MaxNorm        float64 `json:"max_norm"`
}

// Summarize computes statistics for a pool.
func Summarize(pool *SamplePool) PoolStats {
	res := PoolStats{Count: pool.Len()}
	if res.Count == 0 {
		return res
	}
	if res.Count == 1 {
		res.MeanDistance = pool.Distances[0]
	} else {
		res.MeanDistance, res.StdDistance = stat.MeanStdDev(pool.Distances, nil)
	}
	res.MinDistance = floats.Min(pool.Distances)
	res.MaxDistance = floats.Max(pool.Distances)

	var inside int
	for _, d := range pool.Distances {
		if d < 0 {
			inside++
		}
	}
	res.InsideFraction = float64(inside) / float64(res.Count)

	norms := make([]float64, res.Count)
	for i, c := range pool.Points {
		norms[i] = c.Norm()
	}
	res.MaxNorm = floats.Max(norms)
	return res
}
