package model

import (
	"github.com/pkg/errors"
)

const (
	kindRandomForest = "random_forest"

	leafNode = -1
)

// RandomForest is a fitted ensemble of decision trees whose class
// probabilities are averaged.
type RandomForest struct {
	Kind        string `json:"kind"`
	ClassLabels []any  `json:"classes"`
	Features    int    `json:"n_features"`
	Trees       []Tree `json:"trees"`
}

// Tree is a fitted decision tree stored as parallel node arrays. Node 0 is
// the root; a node whose left child is -1 is a leaf.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

func (m *RandomForest) init() error {
	if len(m.ClassLabels) != binaryClassCount {
		return errors.Errorf("expected %d classes, got %d", binaryClassCount, len(m.ClassLabels))
	}
	if m.Features <= 0 {
		return errors.New("n_features must be positive")
	}
	if len(m.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i := range m.Trees {
		if err := m.Trees[i].check(m.Features, len(m.ClassLabels)); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
	}
	return nil
}

// check verifies node arrays are aligned and that every child index points
// forward, which guarantees traversal terminates.
func (t *Tree) check(features, classes int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if len(t.Value[i]) != classes {
			return errors.Errorf("node %d: expected %d class values, got %d", i, classes, len(t.Value[i]))
		}
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leafNode {
			if r != leafNode {
				return errors.Errorf("node %d: leaf with a right child", i)
			}
			continue
		}
		if l <= i || l >= n || r <= i || r >= n {
			return errors.Errorf("node %d: child index out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= features {
			return errors.Errorf("node %d: feature index %d out of range", i, t.Feature[i])
		}
	}
	return nil
}

// Classes returns the class labels in model order.
func (m *RandomForest) Classes() []string {
	return classNames(m.ClassLabels)
}

// NumFeatures returns the expected feature vector length.
func (m *RandomForest) NumFeatures() int {
	return m.Features
}

// PredictProba averages the normalized leaf distributions of all trees.
func (m *RandomForest) PredictProba(features []float64) ([]float64, error) {
	if err := checkWidth(features, m.Features); err != nil {
		return nil, err
	}
	if err := checkFinite(features); err != nil {
		return nil, err
	}

	// trees are fitted on single precision inputs
	x := make([]float64, len(features))
	for i, v := range features {
		x[i] = float64(float32(v))
	}

	proba := make([]float64, len(m.ClassLabels))
	for i := range m.Trees {
		leaf := m.Trees[i].Value[m.Trees[i].leaf(x)]
		var sum float64
		for _, v := range leaf {
			sum += v
		}
		if sum == 0 {
			sum = 1
		}
		for k, v := range leaf {
			proba[k] += v / sum
		}
	}

	n := float64(len(m.Trees))
	for k := range proba {
		proba[k] /= n
	}
	return proba, nil
}

func (t *Tree) leaf(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != leafNode {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}
