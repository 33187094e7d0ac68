package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/ptressel/PracticalMLCourseProject/internal/dataset"
)

// ForestConfig holds random forest hyperparameters.
type ForestConfig struct {
	NumTrees   int   `yaml:"numTrees"`
	MaxDepth   int   `yaml:"maxDepth"`
	MinLeaf    int   `yaml:"minLeaf"`
	Thresholds int   `yaml:"thresholds"`
	Seed       int64 `yaml:"seed"`
}

// DefaultForestConfig returns sensible defaults for the sensor dataset.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{NumTrees: 50, MaxDepth: 12, MinLeaf: 2, Thresholds: 10, Seed: 1}
}

// Forest is a bagged ensemble of CART trees split on gini impurity, with
// sqrt-of-features candidate subsampling at each node. Prediction is a
// plain majority over trees.
type Forest struct {
	Config ForestConfig
	Trees  []*TreeNode
}

// TreeNode is one node of a decision tree. Leaf nodes carry the class;
// internal nodes route rows on Feature <= Threshold.
type TreeNode struct {
	Leaf      bool
	Class     dataset.Label
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// NewForest creates an untrained forest.
func NewForest(config ForestConfig) *Forest {
	return &Forest{Config: config}
}

func (f *Forest) Name() string { return "random_forest" }

// Fit grows Config.NumTrees trees on bootstrap resamples of the dataset.
func (f *Forest) Fit(ds *dataset.Dataset) error {
	if err := validateTrainingData(ds); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(f.Config.Seed))
	n := ds.Len()
	mtry := int(math.Sqrt(float64(ds.NumFeatures())))
	if mtry < 1 {
		mtry = 1
	}

	f.Trees = make([]*TreeNode, f.Config.NumTrees)
	for t := range f.Trees {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		f.Trees[t] = f.grow(ds, indices, 0, mtry, rng)
	}

	log.Debug().Int("trees", len(f.Trees)).Int("mtry", mtry).Msg("Random forest trained")
	return nil
}

// Predict routes the row through every tree and takes the majority class.
// Ties break toward the lowest label.
func (f *Forest) Predict(features []float64) dataset.Label {
	var votes [dataset.NumLabels]int
	for _, tree := range f.Trees {
		votes[classify(tree, features)]++
	}

	best := dataset.LabelA
	for _, label := range dataset.AllLabels() {
		if votes[label] > votes[best] {
			best = label
		}
	}
	return best
}

func classify(node *TreeNode, features []float64) dataset.Label {
	for !node.Leaf {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Class
}

func (f *Forest) grow(ds *dataset.Dataset, indices []int, depth, mtry int, rng *rand.Rand) *TreeNode {
	counts := countClasses(ds, indices)
	majority := majorityClass(counts)

	if depth >= f.Config.MaxDepth || len(indices) <= f.Config.MinLeaf || pure(counts) {
		return &TreeNode{Leaf: true, Class: majority}
	}

	feature, threshold, ok := f.bestSplit(ds, indices, mtry, rng)
	if !ok {
		return &TreeNode{Leaf: true, Class: majority}
	}

	var left, right []int
	for _, i := range indices {
		if ds.Samples[i].Features[feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Leaf: true, Class: majority}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      f.grow(ds, left, depth+1, mtry, rng),
		Right:     f.grow(ds, right, depth+1, mtry, rng),
	}
}

// bestSplit evaluates candidate thresholds on a random feature subset and
// returns the split with the lowest weighted gini impurity.
func (f *Forest) bestSplit(ds *dataset.Dataset, indices []int, mtry int, rng *rand.Rand) (feature int, threshold float64, ok bool) {
	bestGini := math.Inf(1)

	for _, j := range rng.Perm(ds.NumFeatures())[:mtry] {
		values := make([]float64, len(indices))
		for k, i := range indices {
			values[k] = ds.Samples[i].Features[j]
		}
		for _, t := range candidateThresholds(values, f.Config.Thresholds) {
			var leftCounts, rightCounts [dataset.NumLabels]int
			nLeft := 0
			for _, i := range indices {
				if ds.Samples[i].Features[j] <= t {
					leftCounts[ds.Samples[i].Label]++
					nLeft++
				} else {
					rightCounts[ds.Samples[i].Label]++
				}
			}
			nRight := len(indices) - nLeft
			if nLeft == 0 || nRight == 0 {
				continue
			}

			g := (float64(nLeft)*gini(leftCounts, nLeft) + float64(nRight)*gini(rightCounts, nRight)) / float64(len(indices))
			if g < bestGini {
				bestGini, feature, threshold, ok = g, j, t, true
			}
		}
	}
	return feature, threshold, ok
}

// candidateThresholds picks up to max midpoints between evenly spaced
// order statistics of the values.
func candidateThresholds(values []float64, max int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	seen := math.Inf(-1)
	step := len(sorted) / (max + 1)
	if step < 1 {
		step = 1
	}
	for i := step; i < len(sorted); i += step {
		if sorted[i] == sorted[i-1] {
			continue
		}
		t := (sorted[i] + sorted[i-1]) / 2
		if t != seen {
			out = append(out, t)
			seen = t
		}
	}
	return out
}

func gini(counts [dataset.NumLabels]int, total int) float64 {
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		g -= p * p
	}
	return g
}

func countClasses(ds *dataset.Dataset, indices []int) [dataset.NumLabels]int {
	var counts [dataset.NumLabels]int
	for _, i := range indices {
		counts[ds.Samples[i].Label]++
	}
	return counts
}

func majorityClass(counts [dataset.NumLabels]int) dataset.Label {
	best := dataset.LabelA
	for _, label := range dataset.AllLabels() {
		if counts[label] > counts[best] {
			best = label
		}
	}
	return best
}

func pure(counts [dataset.NumLabels]int) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}
