package trainer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/spigell/placement-readiness/internal/artifact"
	"github.com/spigell/placement-readiness/internal/dataset"
	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/forest"
	"github.com/spigell/placement-readiness/internal/logger"
)

// Config holds the forest hyper-parameters of a training run.
type Config struct {
	Trees       int   `mapstructure:"trees"`
	Seed        int64 `mapstructure:"seed"`
	MaxFeatures int   `mapstructure:"max-features"`
	MaxDepth    int   `mapstructure:"max-depth"`
	Workers     int   `mapstructure:"workers"`
}

// DefaultConfig returns the fixed training constants: 200 trees, seed 42.
func DefaultConfig() Config {
	return Config{
		Trees: forest.DefaultTrees,
		Seed:  forest.DefaultSeed,
	}
}

// Trainer turns a labeled dataset into a persisted model artifact.
type Trainer struct {
	cfg    Config
	store  artifact.Store
	logger *zap.Logger
	// progress receives the progress bar. Nil disables it.
	progress io.Writer
}

func New(cfg Config, store artifact.Store, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Trainer{cfg: cfg, store: store, logger: logger}
}

// WithProgress renders a progress bar of fitted trees to w.
func (t *Trainer) WithProgress(w io.Writer) *Trainer {
	t.progress = w
	return t
}

// Run reads the CSV at path, fits the forest and saves the artifact.
func (t *Trainer) Run(ctx context.Context, path string) (*artifact.Artifact, error) {
	ds, err := dataset.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t.logger.Info("dataset loaded",
		zap.String("path", path),
		zap.Int("rows", ds.Len()),
		zap.Any("class_balance", ds.ClassBalance()),
	)
	if len(ds.Ignored) > 0 {
		t.logger.Debug("ignoring columns", zap.Strings("columns", ds.Ignored))
	}

	a, err := t.Train(ctx, ds)
	if err != nil {
		return nil, err
	}

	if err := t.store.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}

	logger.WithArtifact(t.logger, a.ID, t.store.Location()).Info("artifact saved")

	return a, nil
}

// Train encodes the dataset and fits the forest without persisting anything.
func (t *Trainer) Train(ctx context.Context, ds *dataset.Dataset) (*artifact.Artifact, error) {
	schema, x, y, err := Encode(ds)
	if err != nil {
		return nil, err
	}

	for column, enc := range schema.Categorical {
		if enc.Len() < 2 {
			t.logger.Warn("categorical column has a single value",
				zap.String("column", column),
				zap.Strings("classes", enc.Classes),
				zap.String("hint", "the other category will be rejected at scoring time"),
			)
		}
	}

	cfg := forest.Config{
		Trees:       t.cfg.Trees,
		Seed:        t.cfg.Seed,
		MaxFeatures: t.cfg.MaxFeatures,
		MaxDepth:    t.cfg.MaxDepth,
		Workers:     t.cfg.Workers,
	}.Resolve(len(schema.Features))

	var bar *pb.ProgressBar
	if t.progress != nil {
		bar = pb.New(cfg.Trees).SetWriter(t.progress)
		bar.Start()
		cfg.OnTree = func() { bar.Increment() }
	}

	started := time.Now()
	f, err := forest.Fit(ctx, x, y, schema.Label.Len(), cfg)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	accuracy, err := f.Accuracy(x, y)
	if err != nil {
		return nil, fmt.Errorf("evaluate forest: %w", err)
	}

	t.logger.Info("forest fitted",
		zap.Int("trees", len(f.Trees)),
		zap.Int64("seed", cfg.Seed),
		zap.Int("max_features", cfg.MaxFeatures),
		zap.Float64("training_accuracy", accuracy),
		zap.Duration("took", time.Since(started)),
	)

	return artifact.New(schema, f, artifact.Training{
		Trees:        len(f.Trees),
		Seed:         cfg.Seed,
		MaxFeatures:  cfg.MaxFeatures,
		Rows:         ds.Len(),
		Accuracy:     accuracy,
		ClassBalance: ds.ClassBalance(),
	}), nil
}

// Encode fits one label encoder per categorical column and builds the
// feature matrix in encoding.FeatureOrder.
func Encode(ds *dataset.Dataset) (*encoding.Schema, [][]float64, []int, error) {
	gender := encoding.FitLabelEncoder(encoding.FeatureGender, ds.Column(encoding.FeatureGender))
	workex := encoding.FitLabelEncoder(encoding.FeatureWorkExperience, ds.Column(encoding.FeatureWorkExperience))
	status := encoding.FitLabelEncoder(encoding.LabelStatus, ds.Column(encoding.LabelStatus))

	for _, enc := range []*encoding.LabelEncoder{gender, workex, status} {
		if ok, unexpected := encoding.InDomain(enc); !ok {
			return nil, nil, nil, fmt.Errorf("%w: column %s has unexpected values %s (allowed: %s)",
				dataset.ErrSchemaMismatch, enc.Column,
				strings.Join(unexpected, ", "),
				strings.Join(encoding.Domains[enc.Column], ", "),
			)
		}
	}

	if status.Len() < 2 {
		return nil, nil, nil, fmt.Errorf("%w: column %s has a single class %v", dataset.ErrSchemaMismatch, encoding.LabelStatus, status.Classes)
	}

	schema := encoding.NewSchema(gender, workex, status)

	y, err := status.TransformAll(ds.Column(encoding.LabelStatus))
	if err != nil {
		return nil, nil, nil, err
	}

	x := make([][]float64, 0, ds.Len())
	for i, r := range ds.Records {
		vec, err := schema.Vector(r.Candidate)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		x = append(x, vec)
	}

	return schema, x, y, nil
}
