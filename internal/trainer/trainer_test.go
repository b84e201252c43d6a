package trainer

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/placement-readiness/internal/artifact"
	"github.com/spigell/placement-readiness/internal/dataset"
	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/logger"
)

const testData = "testdata/placement_data.csv"

func loadDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadFile(testData)
	require.NoError(t, err)
	return ds
}

func TestEncodeUsesLexicalOrder(t *testing.T) {
	ds := loadDataset(t)

	schema, x, y, err := Encode(ds)
	require.NoError(t, err)
	require.NoError(t, schema.Validate())

	assert.Equal(t, []string{"Female", "Male"}, schema.Categorical[encoding.FeatureGender].Classes)
	assert.Equal(t, []string{"No", "Yes"}, schema.Categorical[encoding.FeatureWorkExperience].Classes)
	assert.Equal(t, []string{"Not Placed", "Placed"}, schema.Label.Classes)

	require.Len(t, x, ds.Len())
	require.Len(t, y, ds.Len())

	first := ds.Records[0]
	assert.Equal(t, []float64{0, first.SSCPercentage, first.HSCPercentage, first.DegreePercentage, 0}, x[0])
	assert.Equal(t, 0, y[0])
}

func TestEncodeRejectsUnexpectedCategory(t *testing.T) {
	csv := strings.Join([]string{
		"gender,ssc_p,hsc_p,degree_p,workex,status",
		"Male,70,70,65,No,Placed",
		"Other,60,60,60,Yes,Not Placed",
	}, "\n")

	ds, err := dataset.Read(strings.NewReader(csv))
	require.NoError(t, err)

	_, _, _, err = Encode(ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Other")
}

func TestEncodeRequiresBothLabels(t *testing.T) {
	csv := strings.Join([]string{
		"gender,ssc_p,hsc_p,degree_p,workex,status",
		"Male,70,70,65,No,Placed",
		"Female,80,75,70,Yes,Placed",
	}, "\n")

	ds, err := dataset.Read(strings.NewReader(csv))
	require.NoError(t, err)

	_, _, _, err = Encode(ds)
	require.ErrorIs(t, err, dataset.ErrSchemaMismatch)
}

func TestTrainIsReproducible(t *testing.T) {
	ds := loadDataset(t)
	cfg := Config{Trees: 20, Seed: 42}

	cfg.Workers = 1
	a, err := New(cfg, nil, nil).Train(context.Background(), ds)
	require.NoError(t, err)

	cfg.Workers = 4
	b, err := New(cfg, nil, nil).Train(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, a.Forest, b.Forest)
	assert.NotEqual(t, a.ID, b.ID)

	assert.Equal(t, 20, a.Training.Trees)
	assert.Equal(t, int64(42), a.Training.Seed)
	assert.Equal(t, 2, a.Training.MaxFeatures)
	assert.Equal(t, ds.Len(), a.Training.Rows)
	assert.Equal(t, ds.ClassBalance(), a.Training.ClassBalance)
	assert.Greater(t, a.Training.Accuracy, 0.9)
}

func TestTrainDefaultsToFixedConstants(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 200, cfg.Trees)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestTrainProgress(t *testing.T) {
	var buf bytes.Buffer

	_, err := New(Config{Trees: 5, Seed: 1}, nil, nil).
		WithProgress(&buf).
		Train(context.Background(), loadDataset(t))
	require.NoError(t, err)
	assert.NotEmpty(t, buf.String())
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Trees: 10, Seed: 1}, nil, nil).Train(ctx, loadDataset(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunSavesArtifact(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	store := artifact.NewFileStore(filepath.Join(t.TempDir(), "model.json.gz"))

	a, err := New(Config{Trees: 10, Seed: 42}, store, zap.New(core)).Run(context.Background(), testData)
	require.NoError(t, err)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.ID, loaded.ID)
	assert.Equal(t, a.Forest, loaded.Forest)
	assert.Equal(t, a.Schema, loaded.Schema)

	saved := logs.FilterMessage("artifact saved").All()
	require.Len(t, saved, 1)
	fields := saved[0].ContextMap()
	assert.Equal(t, a.ID, fields[logger.FieldArtifactID])
	assert.Equal(t, store.Path, fields[logger.FieldArtifactLocation])

	ignored := logs.FilterMessage("ignoring columns").All()
	require.Len(t, ignored, 1)
}

func TestRunMissingDataset(t *testing.T) {
	store := artifact.NewFileStore(filepath.Join(t.TempDir(), "model.json"))

	_, err := New(DefaultConfig(), store, nil).Run(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, artifact.ErrMissing)
}
