package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/placement-readiness/internal/artifact"
	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/forest"
)

const (
	// DefaultThreshold is the percentage at and above which a candidate is reported as placed.
	DefaultThreshold = 60.0

	VerdictPlaced    = encoding.Placed
	VerdictNotPlaced = encoding.NotPlaced
)

// ErrInvalidVector is returned when a feature vector does not match the model's feature count.
var ErrInvalidVector = errors.New("invalid feature vector")

// Result is a single scoring outcome.
type Result struct {
	Probability float64 `json:"probability" yaml:"probability"`
	Percentage  float64 `json:"percentage" yaml:"percentage"`
	Verdict     string  `json:"verdict" yaml:"verdict"`
	Threshold   float64 `json:"threshold" yaml:"threshold"`
}

// Scorer evaluates candidates against a loaded artifact.
// It is immutable after Load and safe for concurrent use.
type Scorer struct {
	artifact  *artifact.Artifact
	positive  int
	threshold float64
}

// Load reads the artifact once. Any failure wraps artifact.ErrMissing.
func Load(ctx context.Context, store artifact.Store) (*Scorer, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: no artifact store configured", artifact.ErrMissing)
	}

	a, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	return New(a)
}

// New builds a Scorer from an artifact that is already in memory.
func New(a *artifact.Artifact) (*Scorer, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil artifact", artifact.ErrMissing)
	}

	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", artifact.ErrMissing, err)
	}

	positive, err := a.Schema.PositiveClass()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", artifact.ErrMissing, err)
	}

	return &Scorer{artifact: a, positive: positive, threshold: DefaultThreshold}, nil
}

// WithThreshold returns a copy of the scorer using pct as the placement threshold.
func (s *Scorer) WithThreshold(pct float64) *Scorer {
	c := *s
	c.threshold = pct
	return &c
}

func (s *Scorer) Threshold() float64 { return s.threshold }

func (s *Scorer) ArtifactID() string { return s.artifact.ID }

func (s *Scorer) Schema() *encoding.Schema { return s.artifact.Schema }

func (s *Scorer) Training() artifact.Training { return s.artifact.Training }

// Score returns the probability of the positive class for an encoded vector
// in feature order [gender, ssc, hsc, degree, work_experience].
func (s *Scorer) Score(vec []float64) (float64, error) {
	if want := len(s.artifact.Schema.Features); len(vec) != want {
		return 0, fmt.Errorf("%w: got %d values, want %d", ErrInvalidVector, len(vec), want)
	}

	proba, err := s.forest().PredictProba(vec)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidVector, err)
	}

	return proba[s.positive], nil
}

// ScoreCandidate encodes raw tokens through the persisted schema and scores them.
func (s *Scorer) ScoreCandidate(c encoding.Candidate) (Result, error) {
	vec, err := s.artifact.Schema.Vector(c)
	if err != nil {
		return Result{}, err
	}

	p, err := s.Score(vec)
	if err != nil {
		return Result{}, err
	}

	pct := Percentage(p)

	return Result{
		Probability: p,
		Percentage:  pct,
		Verdict:     Verdict(pct, s.threshold),
		Threshold:   s.threshold,
	}, nil
}

func (s *Scorer) forest() *forest.Forest { return s.artifact.Forest }

func Percentage(p float64) float64 {
	return p * 100
}

// Verdict applies the placement threshold. The boundary is inclusive.
func Verdict(pct, threshold float64) string {
	if pct >= threshold {
		return VerdictPlaced
	}
	return VerdictNotPlaced
}
