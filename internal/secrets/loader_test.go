package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing secret: %v", err)
	}
	return path
}

func TestLoadPrecedence(t *testing.T) {
	fromFile := writeSecret(t, "  file-token \n")
	fromEnv := writeSecret(t, "env-token")
	t.Setenv("NAVIGARA_TEST_TOKEN_FILE", fromEnv)

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "file", src: Source{File: fromFile, Env: "NAVIGARA_TEST_TOKEN_FILE", Value: "inline"}, want: "file-token"},
		{name: "env", src: Source{Env: "NAVIGARA_TEST_TOKEN_FILE", Value: "inline"}, want: "env-token"},
		{name: "inline", src: Source{Value: " inline "}, want: "inline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	empty := writeSecret(t, "   ")

	if _, err := Load(Source{Name: "gemini api key", File: empty}); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty file error, got %v", err)
	}
	if _, err := Load(Source{Name: "gemini api key"}); err == nil || !strings.Contains(err.Error(), "gemini api key is not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}
	if _, err := Load(Source{File: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestOptional(t *testing.T) {
	got, err := Optional(Source{Name: "provider token", Env: "NAVIGARA_TEST_UNSET_TOKEN_FILE"})
	if err != nil || got != "" {
		t.Fatalf("expected empty optional secret, got %q, %v", got, err)
	}

	got, err = Optional(Source{Value: "inline"})
	if err != nil || got != "inline" {
		t.Fatalf("expected inline secret, got %q, %v", got, err)
	}
}
