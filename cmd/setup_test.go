package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/provider"
	"github.com/mmbarrys/navigara/internal/scoring"
	"github.com/mmbarrys/navigara/internal/workflow"
)

func TestNewGraphProvider(t *testing.T) {
	file, err := newGraphProvider(&ProviderConfig{Kind: "file", File: "data.json"}, zap.NewNop())
	if err != nil {
		t.Fatalf("file provider: %v", err)
	}
	if _, ok := file.(*provider.FileStore); !ok {
		t.Fatalf("expected *provider.FileStore, got %T", file)
	}

	remote, err := newGraphProvider(&ProviderConfig{Kind: "HTTP", URL: "http://localhost:5001"}, zap.NewNop())
	if err != nil {
		t.Fatalf("http provider: %v", err)
	}
	if _, ok := remote.(*provider.Client); !ok {
		t.Fatalf("expected *provider.Client, got %T", remote)
	}

	if _, err := newGraphProvider(&ProviderConfig{Kind: "file"}, zap.NewNop()); err == nil {
		t.Fatal("expected an error without a file")
	}
	if _, err := newGraphProvider(&ProviderConfig{Kind: "s3"}, zap.NewNop()); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}

func TestNewGraphProviderReadsTokenFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("secret\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	if _, err := newGraphProvider(&ProviderConfig{Kind: "http", TokenFile: tokenFile}, zap.NewNop()); err != nil {
		t.Fatalf("http provider: %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing")
	if _, err := newGraphProvider(&ProviderConfig{Kind: "http", TokenFile: missing}, zap.NewNop()); err == nil {
		t.Fatal("expected an error for a missing token file")
	}
}

func TestNewScorer(t *testing.T) {
	disabled, err := newScorer(t.Context(), &ScoringConfig{Enabled: false}, zap.NewNop())
	if err != nil || disabled != nil {
		t.Fatalf("expected no scorer when disabled, got %v, %v", disabled, err)
	}

	client, err := newScorer(t.Context(), &ScoringConfig{Enabled: true, Kind: "http", URL: "http://localhost:5001/api/score"}, zap.NewNop())
	if err != nil {
		t.Fatalf("http scorer: %v", err)
	}
	if _, ok := client.(*scoring.Client); !ok {
		t.Fatalf("expected *scoring.Client, got %T", client)
	}

	t.Setenv("GEMINI_API_KEY_FILE", "")
	_, err = newScorer(t.Context(), &ScoringConfig{Enabled: true, Kind: "gemini", Gemini: &GeminiConfig{}}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY_FILE") {
		t.Fatalf("expected a missing key hint, got %v", err)
	}
}

func TestMenuItems(t *testing.T) {
	tests := []struct {
		mode     workflow.Mode
		canScore bool
		canSave  bool
		want     []string
		missing  []string
	}{
		{
			mode:    workflow.ModeManualSetup,
			want:    []string{PromptAddMember, PromptProcess},
			missing: []string{PromptSimulate, PromptLoadCustom, PromptScore},
		},
		{
			mode:    workflow.ModeJSONEditor,
			want:    []string{PromptDraftFiles, PromptLoadCustom},
			missing: []string{PromptProcess, PromptSimulate, PromptSaveDefault},
		},
		{
			mode:     workflow.ModeVisualization,
			canScore: true,
			canSave:  true,
			want:     []string{PromptSimulate, PromptReport, PromptSaveDefault, PromptScore},
			missing:  []string{PromptAddMember},
		},
		{
			mode:    workflow.ModeVisualization,
			want:    []string{PromptSimulate},
			missing: []string{PromptSaveDefault, PromptScore},
		},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/score=%t/save=%t", tt.mode, tt.canScore, tt.canSave), func(t *testing.T) {
			items := menuItems(tt.mode, tt.canScore, tt.canSave)

			if items[len(items)-1] != PromptExit {
				t.Fatalf("expected exit to be last, got %v", items)
			}
			for _, w := range tt.want {
				if !slices.Contains(items, w) {
					t.Fatalf("expected %q in %v", w, items)
				}
			}
			for _, m := range tt.missing {
				if slices.Contains(items, m) {
					t.Fatalf("did not expect %q in %v", m, items)
				}
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if got := out.String(); got != "navigara version: unknown\n" {
		t.Fatalf("unexpected version output %q", got)
	}
}

func TestImportSavesRosterAsDefault(t *testing.T) {
	dir := t.TempDir()
	rosterFile := filepath.Join(dir, "roster.json")
	roster := `[{"id": "7", "nama": "Gita", "unit": "Ops", "skor_potensi": 70}, {"id": "8", "nama": "Hadi", "unit": "Ops"}]`
	if err := os.WriteFile(rosterFile, []byte(roster), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	collaborationsFile := filepath.Join(dir, "collaborations.json")
	if err := os.WriteFile(collaborationsFile, []byte(`[{"source": "7", "target": "8"}]`), 0o644); err != nil {
		t.Fatalf("write collaborations: %v", err)
	}

	cmd := &cobra.Command{Use: "import"}
	addDatasetFlags(cmd)
	if hasDatasetSource(cmd) {
		t.Fatal("expected no dataset source before flags are set")
	}
	if err := cmd.Flags().Set("roster", rosterFile); err != nil {
		t.Fatalf("set roster flag: %v", err)
	}
	if err := cmd.Flags().Set("collaborations", collaborationsFile); err != nil {
		t.Fatalf("set collaborations flag: %v", err)
	}
	if !hasDatasetSource(cmd) {
		t.Fatal("expected --roster to be a dataset source")
	}

	ds, err := loadDataset(context.Background(), cmd, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}

	store := provider.NewFileStore(filepath.Join(dir, "graph.yaml"), nil)
	if err := saveDefault(context.Background(), store, *ds); err != nil {
		t.Fatalf("save default: %v", err)
	}

	got, err := store.DefaultGraph(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.Employees) != 2 || got.Employees[0].PotentialScore != 70 || len(got.Edges) != 1 {
		t.Fatalf("unexpected stored dataset: %+v", got)
	}
}

func TestSaveDefaultRejectsReadOnlyProvider(t *testing.T) {
	remote, err := newGraphProvider(&ProviderConfig{Kind: "http", URL: "http://localhost:5001"}, zap.NewNop())
	if err != nil {
		t.Fatalf("http provider: %v", err)
	}

	err = saveDefault(context.Background(), remote, provider.DefaultDataset())
	if !errors.Is(err, workflow.ErrReadOnlyProvider) {
		t.Fatalf("expected read-only provider error, got %v", err)
	}
}
