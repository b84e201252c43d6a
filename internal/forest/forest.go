package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultTrees           = 200
	DefaultSeed            = 42
	DefaultMinSamplesSplit = 2
)

// Config controls how a forest is grown. Zero values fall back to the defaults.
type Config struct {
	Trees int
	Seed  int64
	// MaxFeatures is the number of candidate features drawn per split.
	// Zero means floor(sqrt(n_features)).
	MaxFeatures     int
	MinSamplesSplit int
	// MaxDepth limits tree depth. Zero means unlimited.
	MaxDepth int
	Workers  int
	// OnTree is called after each tree is fitted. It may be called concurrently.
	OnTree func()
}

// Resolve fills zero values with the defaults for nFeatures features.
func (c Config) Resolve(nFeatures int) Config {
	if c.Trees <= 0 {
		c.Trees = DefaultTrees
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	if c.MaxFeatures > nFeatures {
		c.MaxFeatures = nFeatures
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = DefaultMinSamplesSplit
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Forest is an ensemble of bagged classification trees.
type Forest struct {
	NClasses  int     `json:"n_classes"`
	NFeatures int     `json:"n_features"`
	Trees     []*Tree `json:"trees"`
}

// Fit grows cfg.Trees trees, each on a bootstrap sample of (x, y).
// Labels must be in [0, nClasses). The result depends only on the data,
// cfg.Trees, cfg.Seed and the split parameters, never on cfg.Workers.
func Fit(ctx context.Context, x [][]float64, y []int, nClasses int, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d samples and %d labels", len(x), len(y))
	}
	if nClasses < 2 {
		return nil, fmt.Errorf("need at least 2 classes, got %d", nClasses)
	}

	nFeatures := len(x[0])
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("sample %d has %d features, want %d", i, len(row), nFeatures)
		}
	}
	for i, label := range y {
		if label < 0 || label >= nClasses {
			return nil, fmt.Errorf("label %d of sample %d is out of range", label, i)
		}
	}

	cfg = cfg.Resolve(nFeatures)

	// Seeds are drawn up front so that scheduling cannot change the outcome.
	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	trees := make([]*Tree, cfg.Trees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(seeds[i]))
			b := &treeBuilder{
				x:           x,
				y:           y,
				nClasses:    nClasses,
				maxFeatures: cfg.MaxFeatures,
				minSplit:    cfg.MinSamplesSplit,
				maxDepth:    cfg.MaxDepth,
				rng:         rng,
			}
			trees[i] = b.build(bootstrap(rng, len(x)))

			if cfg.OnTree != nil {
				cfg.OnTree()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{NClasses: nClasses, NFeatures: nFeatures, Trees: trees}, nil
}

func bootstrap(rng *rand.Rand, n int) []int {
	samples := make([]int, n)
	for i := range samples {
		samples[i] = rng.Intn(n)
	}
	return samples
}

// PredictProba averages the leaf distributions of all trees.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NFeatures {
		return nil, fmt.Errorf("got %d features, want %d", len(x), f.NFeatures)
	}

	proba := make([]float64, f.NClasses)
	for _, tree := range f.Trees {
		floats.Add(proba, tree.PredictProba(x))
	}
	floats.Scale(1/float64(len(f.Trees)), proba)

	return proba, nil
}

// Predict returns the most probable class.
func (f *Forest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(proba), nil
}

// Accuracy is the share of samples whose predicted class matches the label.
func (f *Forest) Accuracy(x [][]float64, y []int) (float64, error) {
	if len(x) == 0 || len(x) != len(y) {
		return 0, fmt.Errorf("got %d samples and %d labels", len(x), len(y))
	}

	hits := make([]float64, len(x))
	for i, row := range x {
		class, err := f.Predict(row)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if class == y[i] {
			hits[i] = 1
		}
	}

	return stat.Mean(hits, nil), nil
}

// Validate checks the structure of a deserialized forest.
func (f *Forest) Validate() error {
	if f == nil {
		return errors.New("forest is missing")
	}
	if f.NClasses < 2 {
		return fmt.Errorf("forest has %d classes", f.NClasses)
	}
	if f.NFeatures < 1 {
		return fmt.Errorf("forest has %d features", f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}

	for i, tree := range f.Trees {
		if tree == nil {
			return fmt.Errorf("tree %d is missing", i)
		}
		if err := tree.validate(f.NFeatures, f.NClasses); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}

	return nil
}
