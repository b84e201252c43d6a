package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldArtifactID is the structured log field key for the model artifact id.
	FieldArtifactID = "artifact_id"
	// FieldArtifactLocation is the structured log field key for where the artifact is stored.
	FieldArtifactLocation = "artifact_location"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ArtifactFields describes a model artifact. Empty values are skipped.
func ArtifactFields(id, location string) []zap.Field {
	return StringFields(
		StringField{Key: FieldArtifactID, Value: id},
		StringField{Key: FieldArtifactLocation, Value: location},
	)
}

// WithArtifact attaches the artifact fields to the provided logger.
func WithArtifact(logger *zap.Logger, id, location string) *zap.Logger {
	return WithFields(logger, ArtifactFields(id, location)...)
}
