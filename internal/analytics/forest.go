package analytics

import (
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
)

const (
	// DefaultForestSize and DefaultForestSeed mirror the original model
	// configuration: 300 trees, seed 42. The fixed seed makes repeated
	// training on identical inputs produce identical forests.
	DefaultForestSize = 300
	DefaultForestSeed = 42

	forestMaxDepth = 10
	forestMinLeaf  = 2
)

// ForestRegressor is a bagged ensemble of variance-minimizing regression
// trees. Each tree trains on a seeded bootstrap resample of the series, and
// prediction averages the trees. Fields are exported for gob serialization.
type ForestRegressor struct {
	Size  int
	Seed  int64
	Trees []*TreeNode
}

// TreeNode is one node of a fitted regression tree. Leaf nodes carry the mean
// target of their sample; interior nodes split on Feature < Threshold.
type TreeNode struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

func NewForestRegressor(size int, seed int64) *ForestRegressor {
	return &ForestRegressor{Size: size, Seed: seed}
}

// Fit trains the ensemble from scratch, discarding any previous trees.
func (f *ForestRegressor) Fit(features [][]float64, target []float64) {
	rng := rand.New(rand.NewSource(f.Seed))
	n := len(target)

	f.Trees = make([]*TreeNode, 0, f.Size)
	for range f.Size {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		f.Trees = append(f.Trees, growTree(features, target, indices, 0))
	}
}

// Predict averages the trees over each feature row.
func (f *ForestRegressor) Predict(features [][]float64) []float64 {
	predictions := make([]float64, len(features))
	if len(f.Trees) == 0 {
		return predictions
	}

	for i, row := range features {
		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.predict(row)
		}
		predictions[i] = sum / float64(len(f.Trees))
	}
	return predictions
}

func (t *TreeNode) predict(row []float64) float64 {
	node := t
	for !node.Leaf {
		if row[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// growTree builds a tree over the bootstrap sample given by indices, greedily
// picking the split that minimizes the summed squared error of the halves.
func growTree(features [][]float64, target []float64, indices []int, depth int) *TreeNode {
	if depth >= forestMaxDepth || len(indices) <= forestMinLeaf || isConstant(target, indices) {
		return &TreeNode{Leaf: true, Value: meanOf(target, indices)}
	}

	feature, threshold, ok := bestSplit(features, target, indices)
	if !ok {
		return &TreeNode{Leaf: true, Value: meanOf(target, indices)}
	}

	var left, right []int
	for _, i := range indices {
		if features[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(features, target, left, depth+1),
		Right:     growTree(features, target, right, depth+1),
	}
}

func bestSplit(features [][]float64, target []float64, indices []int) (feature int, threshold float64, ok bool) {
	bestSSE := sse(target, indices)

	for f := range features[indices[0]] {
		// Candidate thresholds are visited in sorted order so that equal-cost
		// splits resolve the same way on every run.
		seen := make(map[float64]struct{}, len(indices))
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			if _, dup := seen[features[i][f]]; !dup {
				seen[features[i][f]] = struct{}{}
				values = append(values, features[i][f])
			}
		}
		slices.Sort(values)
		for _, v := range values {
			var left, right []int
			for _, i := range indices {
				if features[i][f] < v {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			if cost := sse(target, left) + sse(target, right); cost < bestSSE {
				bestSSE, feature, threshold, ok = cost, f, v, true
			}
		}
	}

	return feature, threshold, ok
}

func meanOf(target []float64, indices []int) float64 {
	sum := 0.0
	for _, i := range indices {
		sum += target[i]
	}
	return sum / float64(len(indices))
}

func sse(target []float64, indices []int) float64 {
	mean := meanOf(target, indices)
	total := 0.0
	for _, i := range indices {
		d := target[i] - mean
		total += d * d
	}
	return total
}

func isConstant(target []float64, indices []int) bool {
	for _, i := range indices[1:] {
		if target[i] != target[indices[0]] {
			return false
		}
	}
	return true
}

// SaveModel serializes a fitted forest to disk. Persistence is a convenience
// for collaborators; the service always retrains a fresh model per load.
func SaveModel(model *ForestRegressor, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(model)
}

// LoadModel restores a forest serialized by SaveModel.
func LoadModel(path string) (*ForestRegressor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer file.Close()

	var model ForestRegressor
	if err := gob.NewDecoder(file).Decode(&model); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &model, nil
}
