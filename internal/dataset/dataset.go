// Package dataset provides the data model for the activity classification
// pipeline: labeled sensor samples, the fixed five-class label alphabet,
// CSV loading with sentinel cleaning, and deterministic stratified splitting.
package dataset

import (
	"fmt"
	"hash/fnv"
)

// NumLabels is the size of the closed label alphabet.
const NumLabels = 5

// Label identifies one of the five activity classes.
type Label uint8

const (
	LabelA Label = iota
	LabelB
	LabelC
	LabelD
	LabelE
)

var labelNames = [NumLabels]string{"A", "B", "C", "D", "E"}

func (l Label) String() string {
	if int(l) < NumLabels {
		return labelNames[l]
	}
	return fmt.Sprintf("Label(%d)", uint8(l))
}

// Valid reports whether l is a member of the label alphabet.
func (l Label) Valid() bool {
	return int(l) < NumLabels
}

// ParseLabel converts a class symbol into a Label.
func ParseLabel(s string) (Label, error) {
	for i, name := range labelNames {
		if s == name {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("unknown class label %q", s)
}

// AllLabels returns the label alphabet in its fixed order.
func AllLabels() [NumLabels]Label {
	return [NumLabels]Label{LabelA, LabelB, LabelC, LabelD, LabelE}
}

// Sample is a single row of continuous sensor features with its
// ground-truth class. Samples are never mutated after loading.
type Sample struct {
	Features []float64
	Label    Label
}

// Dataset is an ordered sequence of samples sharing one feature schema.
type Dataset struct {
	FeatureNames []string
	Samples      []Sample
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// NumFeatures returns the width of the feature schema.
func (d *Dataset) NumFeatures() int {
	return len(d.FeatureNames)
}

// ClassCounts tallies samples per label.
func (d *Dataset) ClassCounts() [NumLabels]int {
	var counts [NumLabels]int
	for _, s := range d.Samples {
		if s.Label.Valid() {
			counts[s.Label]++
		}
	}
	return counts
}

// Column extracts feature column j as a fresh slice.
func (d *Dataset) Column(j int) []float64 {
	col := make([]float64, len(d.Samples))
	for i, s := range d.Samples {
		col[i] = s.Features[j]
	}
	return col
}

// DropColumns returns a new dataset without the given column indices.
// The receiver is left untouched.
func (d *Dataset) DropColumns(drop map[int]bool) *Dataset {
	kept := make([]int, 0, len(d.FeatureNames))
	names := make([]string, 0, len(d.FeatureNames))
	for j, name := range d.FeatureNames {
		if !drop[j] {
			kept = append(kept, j)
			names = append(names, name)
		}
	}

	out := &Dataset{FeatureNames: names, Samples: make([]Sample, len(d.Samples))}
	for i, s := range d.Samples {
		features := make([]float64, len(kept))
		for k, j := range kept {
			features[k] = s.Features[j]
		}
		out.Samples[i] = Sample{Features: features, Label: s.Label}
	}
	return out
}

// Fingerprint hashes the dataset shape, schema, and class histogram together
// with any extra strings (model hyperparameters, seeds). Used as the cache
// key for trained model artifacts; not a cryptographic digest.
func (d *Dataset) Fingerprint(extra ...string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "rows=%d;cols=%d;", len(d.Samples), len(d.FeatureNames))
	for _, name := range d.FeatureNames {
		fmt.Fprintf(h, "%s,", name)
	}
	counts := d.ClassCounts()
	for i, c := range counts {
		fmt.Fprintf(h, "%s=%d;", labelNames[i], c)
	}
	for _, e := range extra {
		fmt.Fprintf(h, "|%s", e)
	}
	return h.Sum64()
}
