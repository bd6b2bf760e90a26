package ml

import (
	"math"
	"math/rand"
	"sort"
)

// featureEpsilon is the smallest gap between two sorted values that admits a split.
const featureEpsilon = 1e-7

// Node is one entry of a flattened tree. Leaves have Left == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Prob      float64 // weighted share of the positive class
	Samples   int
}

// DecisionTree is a binary CART classifier stored as a flat node slice so it
// gob-encodes without pointers.
type DecisionTree struct {
	Nodes []Node
}

func (t *DecisionTree) IsLeaf(i int) bool { return t.Nodes[i].Left < 0 }

// Proba walks x down to a leaf and returns its positive-class probability.
func (t *DecisionTree) Proba(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for !t.IsLeaf(i) {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Prob
}

func (t *DecisionTree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		if t.IsLeaf(i) {
			return 0
		}
		return 1 + max(walk(t.Nodes[i].Left), walk(t.Nodes[i].Right))
	}
	return walk(0)
}

type treeBuilder struct {
	x              [][]float64
	y              []int
	w              []float64
	minSamplesLeaf int
	minSplit       int
	maxFeatures    int
	rng            *rand.Rand

	nodes []Node
}

// growTree fits a tree on the rows with non-zero weight. w is per row and
// already folds in bootstrap multiplicity and class weighting.
func growTree(x [][]float64, y []int, w []float64, minLeaf, maxFeatures int, rng *rand.Rand) DecisionTree {
	idx := make([]int, 0, len(x))
	for i := range x {
		if w[i] > 0 {
			idx = append(idx, i)
		}
	}
	b := &treeBuilder{
		x:              x,
		y:              y,
		w:              w,
		minSamplesLeaf: max(minLeaf, 1),
		minSplit:       max(2, 2*max(minLeaf, 1)),
		maxFeatures:    maxFeatures,
		rng:            rng,
	}
	if len(idx) > 0 {
		b.build(idx)
	}
	return DecisionTree{Nodes: b.nodes}
}

func (b *treeBuilder) weights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if b.y[i] == 1 {
			w1 += b.w[i]
		} else {
			w0 += b.w[i]
		}
	}
	return w0, w1
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total <= 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}

func (b *treeBuilder) build(idx []int) int {
	w0, w1 := b.weights(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1, Prob: w1 / (w0 + w1), Samples: len(idx)})

	if len(idx) < b.minSplit || gini(w0, w1) <= 1e-12 {
		return id
	}
	feature, threshold, ok := b.bestSplit(idx, w0, w1)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left)
	r := b.build(right)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit draws features in random order and evaluates up to maxFeatures
// of the non-constant ones. Constant features do not count against the budget.
func (b *treeBuilder) bestSplit(idx []int, w0, w1 float64) (int, float64, bool) {
	nFeatures := len(b.x[0])
	order := b.rng.Perm(nFeatures)

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := math.Inf(1)
	sorted := make([]int, len(idx))
	visited := 0

	for _, f := range order {
		if visited >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })
		if b.x[sorted[len(sorted)-1]][f]-b.x[sorted[0]][f] <= featureEpsilon {
			continue
		}
		visited++

		var l0, l1 float64
		for p := 0; p < len(sorted)-1; p++ {
			i := sorted[p]
			if b.y[i] == 1 {
				l1 += b.w[i]
			} else {
				l0 += b.w[i]
			}
			nLeft := p + 1
			if nLeft < b.minSamplesLeaf || len(sorted)-nLeft < b.minSamplesLeaf {
				continue
			}
			lo, hi := b.x[i][f], b.x[sorted[p+1]][f]
			if hi-lo <= featureEpsilon {
				continue
			}
			r0, r1 := w0-l0, w1-l1
			impurity := (l0+l1)*gini(l0, l1) + (r0+r1)*gini(r0, r1)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}
