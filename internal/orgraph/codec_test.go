package orgraph

import (
	"errors"
	"testing"
)

func TestParseRosterDefaultsAndCoercion(t *testing.T) {
	employees, err := ParseRoster([]byte(`[
		{"id": 1, "nama": "Anya", "unit": "A", "skor_potensi": 90, "skor_kinerja": 95},
		{"id": "2", "nama": " Budi ", "unit": "A", "skor_potensi": "95"},
		{"id": "3", "nama": "Citra", "unit": "B", "skor_potensi": null, "skor_kinerja": 180}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(employees) != 3 {
		t.Fatalf("expected 3 employees, got %d", len(employees))
	}

	if employees[0].ID != "1" {
		t.Fatalf("expected numeric id to become \"1\", got %q", employees[0].ID)
	}
	if employees[1].Name != "Budi" || employees[1].PotentialScore != 95 || employees[1].PerformanceScore != DefaultScore {
		t.Fatalf("unexpected second employee: %+v", employees[1])
	}
	if employees[2].PotentialScore != DefaultScore || employees[2].PerformanceScore != MaxScore {
		t.Fatalf("unexpected third employee: %+v", employees[2])
	}
}

func TestParseRosterMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "syntax", input: `[{"id": "1",}]`},
		{name: "not a list", input: `{"id": "1"}`},
		{name: "bad score", input: `[{"id": "1", "skor_potensi": "high"}]`},
		{name: "item not an object", input: `[42]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoster([]byte(tt.input))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseCollaborationsRequiresEndpoints(t *testing.T) {
	_, err := ParseCollaborations([]byte(`[{"source": "1", "target": "2"}, {"source": "1"}]`))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Field != "kolaborasi[1].target" {
		t.Fatalf("unexpected field %q", verr.Field)
	}
}

func TestParseCollaborationsLabel(t *testing.T) {
	edges, err := ParseCollaborations([]byte(`[{"source": 1, "target": 2, "project": "Proyek A1"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(edges) != 1 || edges[0].Source != "1" || edges[0].Target != "2" || edges[0].Label != "Proyek A1" {
		t.Fatalf("unexpected edges: %+v", edges)
	}
}

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset([]byte(`{
		"pegawai": [{"id": "1", "nama": "Anya", "unit": "A"}, {"id": "2", "nama": "Budi", "unit": "B"}],
		"kolaborasi": [{"source": "1", "target": "2"}]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ds.Employees) != 2 || len(ds.Edges) != 1 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}

	if _, err := ParseDataset([]byte(`{"pegawai": "nope"}`)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected validation error for non-list roster, got %v", err)
	}
}

func TestParseDatasetEmpty(t *testing.T) {
	ds, err := ParseDataset([]byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ds.Employees) != 0 || len(ds.Edges) != 0 {
		t.Fatalf("expected empty dataset, got %+v", ds)
	}
}

func TestParseRosterBlankScoresDefault(t *testing.T) {
	employees, err := ParseRoster([]byte(`[
		{"id": "1", "nama": "Anya", "unit": "A", "skor_potensi": "", "skor_kinerja": "  "},
		{"id": "2", "nama": "Budi", "unit": "A", "skor_potensi": "0", "skor_kinerja": 0}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if employees[0].PotentialScore != DefaultScore || employees[0].PerformanceScore != DefaultScore {
		t.Fatalf("expected blank scores to default to %v, got %+v", DefaultScore, employees[0])
	}
	if employees[1].PotentialScore != 0 || employees[1].PerformanceScore != 0 {
		t.Fatalf("expected explicit zero scores to stay zero, got %+v", employees[1])
	}
}

func TestParseDatasetRequiresRoster(t *testing.T) {
	_, err := ParseDataset([]byte(`{"nodes": [], "edges": []}`))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected validation error for a document without a roster, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "pegawai" {
		t.Fatalf("expected the roster field to be named, got %v", err)
	}

	ds, err := ParseDataset([]byte(`{"pegawai": [{"id": "1", "nama": "Anya", "unit": "A"}]}`))
	if err != nil {
		t.Fatalf("expected a missing collaboration list to be accepted, got %v", err)
	}
	if len(ds.Employees) != 1 || len(ds.Edges) != 0 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
}
