package artifact

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/spigell/placement-readiness/internal/encoding"
	"github.com/spigell/placement-readiness/internal/forest"
)

const (
	Format        = "placement-forest"
	FormatVersion = 1
)

// ErrMissing is returned when the artifact is absent, unreadable or corrupt.
var ErrMissing = errors.New("model artifact is missing or corrupt")

//go:embed schema.json
var jsonSchema string

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(jsonSchema))
})

// Training records how the forest was produced.
type Training struct {
	Trees        int            `json:"trees"`
	Seed         int64          `json:"seed"`
	MaxFeatures  int            `json:"max_features"`
	Rows         int            `json:"rows"`
	Accuracy     float64        `json:"accuracy"`
	ClassBalance map[string]int `json:"class_balance,omitempty"`
}

// Artifact is the self-contained output of a training run.
type Artifact struct {
	Format        string           `json:"format"`
	FormatVersion int              `json:"format_version"`
	ID            string           `json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	Schema        *encoding.Schema `json:"schema"`
	Forest        *forest.Forest   `json:"forest"`
	Training      Training         `json:"training"`
}

// New wraps a fitted forest and its encoding schema.
func New(schema *encoding.Schema, f *forest.Forest, training Training) *Artifact {
	return &Artifact{
		Format:        Format,
		FormatVersion: FormatVersion,
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Schema:        schema,
		Forest:        f,
		Training:      training,
	}
}

// Validate checks that the schema and forest agree with each other.
func (a *Artifact) Validate() error {
	if a.Format != Format {
		return fmt.Errorf("unexpected format %q", a.Format)
	}
	if a.FormatVersion != FormatVersion {
		return fmt.Errorf("unsupported format version %d", a.FormatVersion)
	}
	if a.Schema == nil || a.Forest == nil {
		return errors.New("schema and forest are required")
	}
	if err := a.Schema.Validate(); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if err := a.Forest.Validate(); err != nil {
		return fmt.Errorf("forest: %w", err)
	}
	if a.Forest.NFeatures != len(a.Schema.Features) {
		return fmt.Errorf("forest expects %d features, schema has %d", a.Forest.NFeatures, len(a.Schema.Features))
	}
	if a.Forest.NClasses != a.Schema.Label.Len() {
		return fmt.Errorf("forest has %d classes, label encoder has %d", a.Forest.NClasses, a.Schema.Label.Len())
	}
	return nil
}

// Marshal encodes the artifact as JSON.
func Marshal(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to write invalid artifact: %w", err)
	}
	return json.Marshal(a)
}

// Unmarshal decodes and validates an artifact. Every failure wraps ErrMissing.
func Unmarshal(data []byte) (*Artifact, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile artifact schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(msgs, "; "))
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, err)
	}

	return &a, nil
}
