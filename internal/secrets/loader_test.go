package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	withSecret := filepath.Join(dir, "password")
	if err := os.WriteFile(withSecret, []byte("  s3cret\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty secret: %v", err)
	}

	t.Setenv("PLACEMENT_TEST_SECRET", " from-env ")
	t.Setenv("PLACEMENT_TEST_EMPTY", "  ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{
			name: "file wins",
			src:  Source{Name: "redis password", File: withSecret, Env: "PLACEMENT_TEST_SECRET", Value: "inline"},
			want: "s3cret",
		},
		{
			name: "env before value",
			src:  Source{Env: "PLACEMENT_TEST_SECRET", Value: "inline"},
			want: "from-env",
		},
		{
			name: "unset env falls back to value",
			src:  Source{Env: "PLACEMENT_TEST_UNSET", Value: " inline "},
			want: "inline",
		},
		{
			name:    "empty file",
			src:     Source{Name: "redis password", File: empty},
			wantErr: "is empty",
		},
		{
			name:    "missing file",
			src:     Source{Name: "redis password", File: filepath.Join(dir, "nope")},
			wantErr: "reading redis password",
		},
		{
			name:    "empty env",
			src:     Source{Env: "PLACEMENT_TEST_EMPTY"},
			wantErr: "environment variable PLACEMENT_TEST_EMPTY is empty",
		},
		{
			name:    "nothing configured",
			src:     Source{},
			wantErr: "secret is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
