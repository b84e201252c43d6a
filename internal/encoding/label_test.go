package encoding

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLabelEncoderSortsLexically(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		values  []string
		classes []string
	}{
		{
			name:    "gender",
			column:  FeatureGender,
			values:  []string{"Male", "Female", "Male", "Male"},
			classes: []string{"Female", "Male"},
		},
		{
			name:    "work experience",
			column:  FeatureWorkExperience,
			values:  []string{"Yes", "No", "No"},
			classes: []string{"No", "Yes"},
		},
		{
			name:    "status",
			column:  LabelStatus,
			values:  []string{"Placed", "Not Placed"},
			classes: []string{"Not Placed", "Placed"},
		},
		{
			name:    "single value",
			column:  FeatureGender,
			values:  []string{"Male", "Male"},
			classes: []string{"Male"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := FitLabelEncoder(tt.column, tt.values)
			assert.Equal(t, tt.column, enc.Column)
			assert.Equal(t, tt.classes, enc.Classes)
		})
	}
}

func TestLabelEncoderTransform(t *testing.T) {
	enc := FitLabelEncoder(FeatureGender, []string{"Male", "Female"})

	male, err := enc.Transform("Male")
	require.NoError(t, err)
	assert.Equal(t, 1, male)

	female, err := enc.Transform("Female")
	require.NoError(t, err)
	assert.Equal(t, 0, female)

	_, err = enc.Transform("male")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	token, err := enc.Inverse(1)
	require.NoError(t, err)
	assert.Equal(t, "Male", token)

	_, err = enc.Inverse(2)
	assert.Error(t, err)
}

func TestLabelEncoderTransformAllReportsRow(t *testing.T) {
	enc := FitLabelEncoder(FeatureWorkExperience, []string{"Yes", "No"})

	got, err := enc.TransformAll([]string{"No", "Yes", "Yes"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, got)

	_, err = enc.TransformAll([]string{"No", "Maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
