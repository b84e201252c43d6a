package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/placement-readiness/internal/encoding"
)

const campusCSV = `sl_no,gender,ssc_p,hsc_p,degree_p,workex,status,salary
1,M,67.00,91.00,58.00,No,Placed,270000
`

func TestReadCanonicalHeader(t *testing.T) {
	data := `gender,ssc_percentage,hsc_percentage,degree_percentage,work_experience,status
Male,67,91,58,No,Placed
Female,56.5,52,52,Yes,Not Placed
`
	ds, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Empty(t, ds.Ignored)

	first := ds.Records[0]
	assert.Equal(t, "Male", first.Gender)
	assert.Equal(t, 67.0, first.SSCPercentage)
	assert.Equal(t, 91.0, first.HSCPercentage)
	assert.Equal(t, 58.0, first.DegreePercentage)
	assert.Equal(t, "No", first.WorkExperience)
	assert.Equal(t, "Placed", first.Status)

	assert.Equal(t, 56.5, ds.Records[1].SSCPercentage)
	assert.Equal(t, "Yes", ds.Records[1].WorkExperience)
	assert.Equal(t, "Not Placed", ds.Records[1].Status)
	assert.Equal(t, "Male", first.Gender, "decoding a later row must not rewrite an earlier record")
	assert.Equal(t, []string{"Male", "Female"}, ds.Column(encoding.FeatureGender))
	assert.Equal(t, map[string]int{"Placed": 1, "Not Placed": 1}, ds.ClassBalance())
}

func TestReadAliasesAndIgnoredColumns(t *testing.T) {
	data := strings.Replace(campusCSV, "1,M,", "1,Male,", 1)

	ds, err := Read(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"sl_no", "salary"}, ds.Ignored)
	assert.Equal(t, "Male", ds.Records[0].Gender)
	assert.Equal(t, 91.0, ds.Records[0].HSCPercentage)
}

func TestReadSchemaMismatch(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{
			name:   "empty file",
			data:   "",
			errMsg: "file is empty",
		},
		{
			name:   "missing column",
			data:   "gender,ssc_p,hsc_p,degree_p,status\nMale,1,2,3,Placed\n",
			errMsg: "missing columns work_experience",
		},
		{
			name:   "duplicate column",
			data:   "gender,ssc_p,ssc_percentage,hsc_p,degree_p,workex,status\n",
			errMsg: "appears twice",
		},
		{
			name:   "no rows",
			data:   "gender,ssc_p,hsc_p,degree_p,workex,status\n",
			errMsg: "no data rows",
		},
		{
			name:   "not a number",
			data:   "gender,ssc_p,hsc_p,degree_p,workex,status\nMale,abc,2,3,No,Placed\n",
			errMsg: "line 2",
		},
		{
			name:   "empty number",
			data:   "gender,ssc_p,hsc_p,degree_p,workex,status\nMale,50,,3,No,Placed\n",
			errMsg: "hsc_percentage is empty",
		},
		{
			name:   "nan number",
			data:   "gender,ssc_p,hsc_p,degree_p,workex,status\nMale,NaN,70,65,No,Placed\n",
			errMsg: "line 2: schema mismatch: column ssc_percentage is not a finite number",
		},
		{
			name:   "infinite number",
			data:   "gender,ssc_p,hsc_p,degree_p,workex,status\nMale,70,70,65,No,Placed\nFemale,70,70,+Inf,Yes,Not Placed\n",
			errMsg: "line 3: schema mismatch: column degree_percentage is not a finite number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaMismatch), "expected schema mismatch, got %v", err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("testdata/does-not-exist.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open dataset")
}
