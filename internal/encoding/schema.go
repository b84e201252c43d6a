package encoding

import (
	"errors"
	"fmt"
	"slices"
)

const (
	FeatureGender         = "gender"
	FeatureSSC            = "ssc_percentage"
	FeatureHSC            = "hsc_percentage"
	FeatureDegree         = "degree_percentage"
	FeatureWorkExperience = "work_experience"

	LabelStatus = "status"

	Placed    = "Placed"
	NotPlaced = "Not Placed"

	// SchemaVersion is bumped whenever the feature order or encoding rules change.
	SchemaVersion = 1
)

// FeatureOrder is the column order of every feature vector.
var FeatureOrder = []string{
	FeatureGender,
	FeatureSSC,
	FeatureHSC,
	FeatureDegree,
	FeatureWorkExperience,
}

// Domains lists the only tokens accepted for each categorical column.
var Domains = map[string][]string{
	FeatureGender:         {"Female", "Male"},
	FeatureWorkExperience: {"No", "Yes"},
	LabelStatus:           {NotPlaced, Placed},
}

// Candidate holds the raw, unencoded model inputs.
type Candidate struct {
	Gender           string  `json:"gender" mapstructure:"gender" yaml:"gender"`
	SSCPercentage    float64 `json:"ssc_percentage" mapstructure:"ssc_percentage" yaml:"ssc_percentage"`
	HSCPercentage    float64 `json:"hsc_percentage" mapstructure:"hsc_percentage" yaml:"hsc_percentage"`
	DegreePercentage float64 `json:"degree_percentage" mapstructure:"degree_percentage" yaml:"degree_percentage"`
	WorkExperience   string  `json:"work_experience" mapstructure:"work_experience" yaml:"work_experience"`
}

// Schema is the encoding contract shared by the trainer and the scorer.
// It travels inside the model artifact.
type Schema struct {
	Version     int                      `json:"version"`
	Features    []string                 `json:"features"`
	Categorical map[string]*LabelEncoder `json:"categorical"`
	Label       *LabelEncoder            `json:"label"`
}

// NewSchema builds a schema from fitted encoders.
func NewSchema(gender, workExperience, status *LabelEncoder) *Schema {
	return &Schema{
		Version:  SchemaVersion,
		Features: slices.Clone(FeatureOrder),
		Categorical: map[string]*LabelEncoder{
			FeatureGender:         gender,
			FeatureWorkExperience: workExperience,
		},
		Label: status,
	}
}

// Validate checks that a (possibly deserialized) schema is usable for scoring.
func (s *Schema) Validate() error {
	if s == nil {
		return errors.New("schema is missing")
	}
	if s.Version != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", s.Version, SchemaVersion)
	}
	if !slices.Equal(s.Features, FeatureOrder) {
		return fmt.Errorf("feature order %v does not match %v", s.Features, FeatureOrder)
	}

	for _, column := range []string{FeatureGender, FeatureWorkExperience} {
		enc, ok := s.Categorical[column]
		if !ok || enc == nil {
			return fmt.Errorf("encoder for %s is missing", column)
		}
		if err := checkEncoder(enc); err != nil {
			return err
		}
	}

	if s.Label == nil {
		return errors.New("label encoder is missing")
	}
	if err := checkEncoder(s.Label); err != nil {
		return err
	}
	if _, err := s.PositiveClass(); err != nil {
		return err
	}

	return nil
}

func checkEncoder(enc *LabelEncoder) error {
	if enc.Len() == 0 {
		return fmt.Errorf("encoder for %s has no classes", enc.Column)
	}
	if !slices.IsSorted(enc.Classes) {
		return fmt.Errorf("encoder for %s has unsorted classes %v", enc.Column, enc.Classes)
	}
	return nil
}

// PositiveClass returns the encoded index of the "Placed" label.
func (s *Schema) PositiveClass() (int, error) {
	return s.Label.Transform(Placed)
}

// Vector encodes a candidate in FeatureOrder.
func (s *Schema) Vector(c Candidate) ([]float64, error) {
	gender, err := s.Categorical[FeatureGender].Transform(c.Gender)
	if err != nil {
		return nil, err
	}

	workex, err := s.Categorical[FeatureWorkExperience].Transform(c.WorkExperience)
	if err != nil {
		return nil, err
	}

	return []float64{
		float64(gender),
		c.SSCPercentage,
		c.HSCPercentage,
		c.DegreePercentage,
		float64(workex),
	}, nil
}

// InDomain reports whether every fitted class of enc is an accepted token for its column.
// It returns the offending tokens.
func InDomain(enc *LabelEncoder) (bool, []string) {
	domain, ok := Domains[enc.Column]
	if !ok {
		return true, nil
	}

	var unexpected []string
	for _, class := range enc.Classes {
		if !slices.Contains(domain, class) {
			unexpected = append(unexpected, class)
		}
	}

	return len(unexpected) == 0, unexpected
}
