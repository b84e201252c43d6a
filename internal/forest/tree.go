package forest

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/floats"
)

const leafFeature = -1

// Node is one entry of a flattened decision tree. Leaves have Feature == -1
// and carry the class distribution of the training samples that reached them.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

func (n *Node) IsLeaf() bool {
	return n.Feature == leafFeature
}

// Tree is a binary classification tree stored in pre-order.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// PredictProba walks the tree and returns the class distribution of the reached leaf.
// Samples go left when x[feature] <= threshold.
func (t *Tree) PredictProba(x []float64) []float64 {
	id := 0
	for {
		node := &t.Nodes[id]
		if node.IsLeaf() {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			id = node.Left
		} else {
			id = node.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(id int) int
	walk = func(id int) int {
		node := &t.Nodes[id]
		if node.IsLeaf() {
			return 0
		}
		return 1 + max(walk(node.Left), walk(node.Right))
	}
	return walk(0)
}

func (t *Tree) validate(nFeatures, nClasses int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}

	for id, node := range t.Nodes {
		if node.IsLeaf() {
			if len(node.Value) != nClasses {
				return fmt.Errorf("leaf %d has %d class values, want %d", id, len(node.Value), nClasses)
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d, want [0,%d)", id, node.Feature, nFeatures)
		}
		// pre-order layout: children always follow their parent, so there are no cycles.
		for _, child := range []int{node.Left, node.Right} {
			if child <= id || child >= len(t.Nodes) {
				return fmt.Errorf("node %d has invalid child %d", id, child)
			}
		}
	}

	return nil
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	nClasses    int
	maxFeatures int
	minSplit    int
	maxDepth    int
	rng         *rand.Rand
	nodes       []Node
}

func (b *treeBuilder) build(samples []int) *Tree {
	b.nodes = b.nodes[:0]
	b.grow(samples, 0)
	return &Tree{Nodes: slices.Clone(b.nodes)}
}

func (b *treeBuilder) grow(samples []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature})

	counts := b.classCounts(samples)

	if isPure(counts) || len(samples) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		b.nodes[id].Value = distribution(counts)
		return id
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		b.nodes[id].Value = distribution(counts)
		return id
	}

	left := make([]int, 0, len(samples))
	right := make([]int, 0, len(samples))
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Left = l
	b.nodes[id].Right = r

	return id
}

// bestSplit draws candidate features in random order and keeps looking past
// maxFeatures until at least one of them can separate the samples.
func (b *treeBuilder) bestSplit(samples []int) (int, float64, bool) {
	nFeatures := len(b.x[0])
	order := b.rng.Perm(nFeatures)

	var (
		bestFeature   = leafFeature
		bestThreshold float64
		bestImpurity  = 2.0
		visited       int
	)

	sorted := slices.Clone(samples)
	for _, feature := range order {
		if visited >= b.maxFeatures && bestFeature != leafFeature {
			break
		}

		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.x[a][feature], b.x[c][feature])
		})

		if b.x[sorted[0]][feature] == b.x[sorted[len(sorted)-1]][feature] {
			// constant features do not count towards maxFeatures
			continue
		}
		visited++

		threshold, impurity := b.sweep(sorted, feature)
		if impurity < bestImpurity {
			bestFeature, bestThreshold, bestImpurity = feature, threshold, impurity
		}
	}

	return bestFeature, bestThreshold, bestFeature != leafFeature
}

// sweep scans samples sorted by feature and returns the midpoint threshold with
// the lowest weighted Gini impurity.
func (b *treeBuilder) sweep(sorted []int, feature int) (float64, float64) {
	total := float64(len(sorted))
	right := b.classCounts(sorted)
	left := make([]float64, b.nClasses)

	bestThreshold, bestImpurity := 0.0, 2.0
	for i := 0; i < len(sorted)-1; i++ {
		label := b.y[sorted[i]]
		left[label]++
		right[label]--

		cur, next := b.x[sorted[i]][feature], b.x[sorted[i+1]][feature]
		if cur == next {
			continue
		}

		nLeft := float64(i + 1)
		nRight := total - nLeft
		impurity := (nLeft*gini(left) + nRight*gini(right)) / total
		if impurity < bestImpurity {
			bestImpurity = impurity
			bestThreshold = cur + (next-cur)/2
			if bestThreshold == next {
				bestThreshold = cur
			}
		}
	}

	return bestThreshold, bestImpurity
}

func (b *treeBuilder) classCounts(samples []int) []float64 {
	counts := make([]float64, b.nClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func gini(counts []float64) float64 {
	n := floats.Sum(counts)
	if n == 0 {
		return 0
	}
	return 1 - floats.Dot(counts, counts)/(n*n)
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func distribution(counts []float64) []float64 {
	out := slices.Clone(counts)
	if n := floats.Sum(out); n > 0 {
		floats.Scale(1/n, out)
	}
	return out
}
