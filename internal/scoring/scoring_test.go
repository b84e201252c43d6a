package scoring

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/placement-readiness/internal/artifact"
	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/forest"
	"github.com/spigell/placement-readiness/internal/trainer"
)

// stump splits on degree percentage only.
func stump() *artifact.Artifact {
	schema := encoding.NewSchema(
		encoding.FitLabelEncoder(encoding.FeatureGender, []string{"Male", "Female"}),
		encoding.FitLabelEncoder(encoding.FeatureWorkExperience, []string{"Yes", "No"}),
		encoding.FitLabelEncoder(encoding.LabelStatus, []string{"Placed", "Not Placed"}),
	)
	f := &forest.Forest{
		NClasses:  2,
		NFeatures: 5,
		Trees: []*forest.Tree{
			{Nodes: []forest.Node{
				{Feature: 3, Threshold: 60, Left: 1, Right: 2},
				{Feature: -1, Value: []float64{0.8, 0.2}},
				{Feature: -1, Value: []float64{0.4, 0.6}},
			}},
			{Nodes: []forest.Node{
				{Feature: -1, Value: []float64{0.4, 0.6}},
			}},
		},
	}
	return artifact.New(schema, f, artifact.Training{Trees: 2, Seed: 42, MaxFeatures: 2, Rows: 4})
}

func TestScore(t *testing.T) {
	s, err := New(stump())
	require.NoError(t, err)

	p, err := s.Score([]float64{1, 70, 70, 65, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, p, 1e-12)

	p, err = s.Score([]float64{1, 70, 70, 55, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, p, 1e-12)
}

func TestScoreRejectsWrongLength(t *testing.T) {
	s, err := New(stump())
	require.NoError(t, err)

	for _, vec := range [][]float64{nil, {1, 2, 3, 4}, {1, 2, 3, 4, 5, 6}} {
		_, err := s.Score(vec)
		assert.ErrorIs(t, err, ErrInvalidVector)
	}
}

func TestScoreCandidateBoundary(t *testing.T) {
	s, err := New(stump())
	require.NoError(t, err)

	// The right leaf of the first tree and the single leaf of the second both give 0.6.
	res, err := s.ScoreCandidate(encoding.Candidate{
		Gender: "Female", SSCPercentage: 50, HSCPercentage: 50, DegreePercentage: 80, WorkExperience: "Yes",
	})
	require.NoError(t, err)
	assert.InDelta(t, 60.0, res.Percentage, 1e-9)
	assert.Equal(t, DefaultThreshold, res.Threshold)

	assert.Equal(t, VerdictPlaced, Verdict(60.0, DefaultThreshold))
	assert.Equal(t, VerdictNotPlaced, Verdict(59.99, DefaultThreshold))
	assert.Equal(t, VerdictPlaced, Verdict(100, DefaultThreshold))
	assert.Equal(t, VerdictNotPlaced, Verdict(0, DefaultThreshold))
}

func TestWithThreshold(t *testing.T) {
	s, err := New(stump())
	require.NoError(t, err)

	strict := s.WithThreshold(75)
	assert.Equal(t, 75.0, strict.Threshold())
	assert.Equal(t, DefaultThreshold, s.Threshold())

	res, err := strict.ScoreCandidate(encoding.Candidate{Gender: "Male", DegreePercentage: 90, WorkExperience: "No"})
	require.NoError(t, err)
	assert.Equal(t, VerdictNotPlaced, res.Verdict)
}

func TestScoreCandidateUnknownCategory(t *testing.T) {
	s, err := New(stump())
	require.NoError(t, err)

	_, err = s.ScoreCandidate(encoding.Candidate{Gender: "male", WorkExperience: "No"})
	require.ErrorIs(t, err, encoding.ErrUnknownCategory)

	_, err = s.ScoreCandidate(encoding.Candidate{Gender: "Male", WorkExperience: "Maybe"})
	require.ErrorIs(t, err, encoding.ErrUnknownCategory)
}

func TestLoadMissingArtifact(t *testing.T) {
	store := artifact.NewFileStore(filepath.Join(t.TempDir(), "model.json"))

	_, err := Load(context.Background(), store)
	require.ErrorIs(t, err, artifact.ErrMissing)

	_, err = Load(context.Background(), nil)
	require.ErrorIs(t, err, artifact.ErrMissing)

	_, err = New(nil)
	require.ErrorIs(t, err, artifact.ErrMissing)
}

func TestNewRejectsInconsistentArtifact(t *testing.T) {
	a := stump()
	a.Forest.NClasses = 3

	_, err := New(a)
	require.ErrorIs(t, err, artifact.ErrMissing)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewFileStore(filepath.Join(t.TempDir(), "model.json"))

	_, err := trainer.New(trainer.DefaultConfig(), store, nil).Run(ctx, "../trainer/testdata/placement_data.csv")
	require.NoError(t, err)

	s, err := Load(ctx, store)
	require.NoError(t, err)

	candidate := encoding.Candidate{
		Gender:           "Male",
		SSCPercentage:    70,
		HSCPercentage:    70,
		DegreePercentage: 65,
		WorkExperience:   "No",
	}

	first, err := s.ScoreCandidate(candidate)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, first.Probability, 0.0)
	assert.LessOrEqual(t, first.Probability, 1.0)
	assert.InDelta(t, first.Probability*100, first.Percentage, 1e-9)
	assert.Equal(t, Verdict(first.Percentage, DefaultThreshold), first.Verdict)

	again, err := s.ScoreCandidate(candidate)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	vec, err := s.Schema().Vector(candidate)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 70, 70, 65, 0}, vec)

	p, err := s.Score(vec)
	require.NoError(t, err)
	assert.Equal(t, first.Probability, p)
}
