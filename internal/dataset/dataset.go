package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/placement-readiness/internal/encoding"
)

// ErrSchemaMismatch is returned when the training file does not match the expected layout.
var ErrSchemaMismatch = errors.New("schema mismatch")

// aliases maps every accepted header name to its canonical column.
var aliases = map[string]string{
	"gender":            encoding.FeatureGender,
	"ssc_percentage":    encoding.FeatureSSC,
	"ssc_p":             encoding.FeatureSSC,
	"hsc_percentage":    encoding.FeatureHSC,
	"hsc_p":             encoding.FeatureHSC,
	"degree_percentage": encoding.FeatureDegree,
	"degree_p":          encoding.FeatureDegree,
	"work_experience":   encoding.FeatureWorkExperience,
	"workex":            encoding.FeatureWorkExperience,
	"status":            encoding.LabelStatus,
}

var required = slices.Concat(encoding.FeatureOrder, []string{encoding.LabelStatus})

var numeric = map[string]bool{
	encoding.FeatureSSC:    true,
	encoding.FeatureHSC:    true,
	encoding.FeatureDegree: true,
}

// Record is one labeled row of the training file.
type Record struct {
	encoding.Candidate `mapstructure:",squash"`
	Status             string `mapstructure:"status"`
}

// Dataset is the parsed training file.
type Dataset struct {
	Records []Record
	// Ignored holds header columns that are not used by the model.
	Ignored []string
}

// ReadFile opens and parses a CSV training file.
func ReadFile(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read parses CSV data with a header row.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrSchemaMismatch)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, ignored, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	rows, err := newRowDecoder(index)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Ignored: ignored}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		record, err := rows.decode(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ds.Records = append(ds.Records, record)
	}

	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrSchemaMismatch)
	}

	return ds, nil
}

func resolveHeader(header []string) (map[string]int, []string, error) {
	index := make(map[string]int, len(required))
	var ignored []string

	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		canonical, ok := aliases[name]
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		if prev, dup := index[canonical]; dup {
			return nil, nil, fmt.Errorf("%w: column %s appears twice (%q and %q)", ErrSchemaMismatch, canonical, header[prev], name)
		}
		index[canonical] = i
	}

	var missing []string
	for _, column := range required {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	return index, ignored, nil
}

// rowDecoder turns CSV rows into records with one shared mapstructure decoder.
type rowDecoder struct {
	index   map[string]int
	record  Record
	decoder *mapstructure.Decoder
}

func newRowDecoder(index map[string]int) (*rowDecoder, error) {
	d := &rowDecoder{index: index}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &d.record,
	})
	if err != nil {
		return nil, err
	}
	d.decoder = decoder

	return d, nil
}

func (d *rowDecoder) decode(row []string) (Record, error) {
	raw := make(map[string]any, len(d.index))
	for column, i := range d.index {
		if i >= len(row) {
			return Record{}, fmt.Errorf("%w: column %s is absent", ErrSchemaMismatch, column)
		}

		value := row[i]
		if numeric[column] && strings.TrimSpace(value) == "" {
			return Record{}, fmt.Errorf("%w: column %s is empty", ErrSchemaMismatch, column)
		}
		raw[column] = value
	}

	d.record = Record{}
	if err := d.decoder.Decode(raw); err != nil {
		return Record{}, fmt.Errorf("%w: %s", ErrSchemaMismatch, err)
	}

	// ParseFloat accepts NaN and Inf.
	for column, v := range map[string]float64{
		encoding.FeatureSSC:    d.record.SSCPercentage,
		encoding.FeatureHSC:    d.record.HSCPercentage,
		encoding.FeatureDegree: d.record.DegreePercentage,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Record{}, fmt.Errorf("%w: column %s is not a finite number", ErrSchemaMismatch, column)
		}
	}

	return d.record, nil
}

func (d *Dataset) Len() int {
	return len(d.Records)
}

// Column returns the raw values of a categorical column.
func (d *Dataset) Column(name string) []string {
	out := make([]string, 0, len(d.Records))
	for _, r := range d.Records {
		switch name {
		case encoding.FeatureGender:
			out = append(out, r.Gender)
		case encoding.FeatureWorkExperience:
			out = append(out, r.WorkExperience)
		case encoding.LabelStatus:
			out = append(out, r.Status)
		}
	}
	return out
}

// ClassBalance counts rows per status token.
func (d *Dataset) ClassBalance() map[string]int {
	balance := make(map[string]int, 2)
	for _, r := range d.Records {
		balance[r.Status]++
	}
	return balance
}
