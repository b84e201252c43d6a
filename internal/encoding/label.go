package encoding

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnknownCategory is returned when a token was not seen while fitting the encoder.
var ErrUnknownCategory = errors.New("unknown category")

// LabelEncoder maps the distinct tokens of one column to 0..k-1 in lexical order.
type LabelEncoder struct {
	Column  string   `json:"column"`
	Classes []string `json:"classes"`
}

// FitLabelEncoder collects the distinct values of a column and sorts them.
// Tokens are matched exactly: no trimming, no case folding.
func FitLabelEncoder(column string, values []string) *LabelEncoder {
	seen := make(map[string]struct{}, 2)
	classes := make([]string, 0, 2)

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}

	slices.Sort(classes)

	return &LabelEncoder{Column: column, Classes: classes}
}

func (e *LabelEncoder) Len() int {
	return len(e.Classes)
}

// Transform returns the integer assigned to token.
func (e *LabelEncoder) Transform(token string) (int, error) {
	idx, ok := slices.BinarySearch(e.Classes, token)
	if !ok {
		return 0, fmt.Errorf("%s: %w %q (known: %s)", e.Column, ErrUnknownCategory, token, strings.Join(e.Classes, ", "))
	}

	return idx, nil
}

// TransformAll encodes a whole column.
func (e *LabelEncoder) TransformAll(tokens []string) ([]int, error) {
	out := make([]int, len(tokens))
	for i, token := range tokens {
		v, err := e.Transform(token)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = v
	}

	return out, nil
}

// Inverse maps an encoded integer back to its token.
func (e *LabelEncoder) Inverse(idx int) (string, error) {
	if idx < 0 || idx >= len(e.Classes) {
		return "", fmt.Errorf("%s: index %d out of range [0,%d)", e.Column, idx, len(e.Classes))
	}

	return e.Classes[idx], nil
}
