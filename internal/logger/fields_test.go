package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  backend  ", Value: "  redis  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "backend" || fields[0].String != "redis" {
		t.Fatalf("unexpected backend field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestArtifactFields(t *testing.T) {
	fields := ArtifactFields("  7f3c  ", "model.json")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldArtifactID || fields[0].String != "7f3c" {
		t.Fatalf("unexpected id field: %+v", fields[0])
	}

	if fields[1].Key != FieldArtifactLocation || fields[1].String != "model.json" {
		t.Fatalf("unexpected location field: %+v", fields[1])
	}

	if empty := ArtifactFields("", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithArtifact(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithArtifact(zap.New(core), "id-1", "redis://localhost:6379/model").Info("loaded")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldArtifactID] != "id-1" {
		t.Fatalf("expected artifact id id-1, got %q", ctx[FieldArtifactID])
	}
	if ctx[FieldArtifactLocation] != "redis://localhost:6379/model" {
		t.Fatalf("unexpected location %q", ctx[FieldArtifactLocation])
	}

	// Ensure logging with the fallback logger does not panic.
	WithArtifact(nil, "id-1", "model.json").Info("another log")
}
