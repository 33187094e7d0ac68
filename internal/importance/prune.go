package importance

import (
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// PruneCorrelated drops feature columns until no surviving pair has an
// absolute Pearson correlation above the cutoff. For each offending pair
// the column with the larger mean absolute correlation against everything
// else is removed, greedily, highest pair first. Returns the pruned dataset
// and the names of the dropped columns.
func PruneCorrelated(ds *dataset.Dataset, cutoff float64) (*dataset.Dataset, []string) {
	d := ds.NumFeatures()
	if d < 2 || cutoff >= 1 {
		return ds, nil
	}

	columns := make([][]float64, d)
	for j := 0; j < d; j++ {
		columns[j] = ds.Column(j)
	}

	corr := make([][]float64, d)
	for i := range corr {
		corr[i] = make([]float64, d)
		corr[i][i] = 1
	}
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			c := math.Abs(stat.Correlation(columns[i], columns[j], nil))
			if math.IsNaN(c) {
				c = 0
			}
			corr[i][j], corr[j][i] = c, c
		}
	}

	dropped := make(map[int]bool)
	for {
		bi, bj, best := -1, -1, cutoff
		for i := 0; i < d; i++ {
			if dropped[i] {
				continue
			}
			for j := i + 1; j < d; j++ {
				if dropped[j] {
					continue
				}
				if corr[i][j] > best {
					bi, bj, best = i, j, corr[i][j]
				}
			}
		}
		if bi < 0 {
			break
		}
		if meanAbsCorrelation(corr, bi, dropped) >= meanAbsCorrelation(corr, bj, dropped) {
			dropped[bi] = true
		} else {
			dropped[bj] = true
		}
	}

	if len(dropped) == 0 {
		return ds, nil
	}

	names := make([]string, 0, len(dropped))
	for j := 0; j < d; j++ {
		if dropped[j] {
			names = append(names, ds.FeatureNames[j])
		}
	}

	log.Info().
		Float64("cutoff", cutoff).
		Strs("dropped", names).
		Msg("Correlated features pruned")

	return ds.DropColumns(dropped), names
}

func meanAbsCorrelation(corr [][]float64, j int, dropped map[int]bool) float64 {
	sum, n := 0.0, 0
	for k := range corr {
		if k == j || dropped[k] {
			continue
		}
		sum += corr[j][k]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
