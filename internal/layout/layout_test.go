package layout

import (
	"testing"

	"github.com/mmbarrys/navigara/internal/analyzer"
	"github.com/mmbarrys/navigara/internal/orgraph"
)

func sampleDataset() orgraph.Dataset {
	return orgraph.Dataset{
		Employees: []orgraph.Employee{
			{ID: "1", Name: "Anya", Unit: "A", PotentialScore: 90, PerformanceScore: 95},
			{ID: "2", Name: "Budi", Unit: "A", PotentialScore: 70, PerformanceScore: 70},
			{ID: "3", Name: "Citra", Unit: "SDM", PotentialScore: 40, PerformanceScore: 50},
		},
		Edges: []orgraph.Edge{
			{Source: "1", Target: "2", Label: "Proyek A1"},
			{Source: "2", Target: "1"},
			{Source: "1", Target: "ghost"},
		},
	}
}

func TestPositionOf(t *testing.T) {
	tests := []struct {
		i    int
		want Position
	}{
		{i: 0, want: Position{X: 0, Y: 0}},
		{i: 4, want: Position{X: 1000, Y: 0}},
		{i: 5, want: Position{X: 0, Y: 150}},
		{i: 12, want: Position{X: 500, Y: 300}},
	}

	for _, tt := range tests {
		if got := PositionOf(tt.i); got != tt.want {
			t.Fatalf("PositionOf(%d) = %+v, want %+v", tt.i, got, tt.want)
		}
	}
}

func TestRenderNodes(t *testing.T) {
	ds := sampleDataset()
	snap := Render(ds, analyzer.Analyze(ds.Employees, ds.Edges))

	if len(snap.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(snap.Nodes))
	}

	first := snap.Nodes[0]
	if first.Data.Label != "Anya (A)\nScore: 93" {
		t.Fatalf("unexpected label %q", first.Data.Label)
	}
	if first.Style.Background != "#90EE90" || first.Band != analyzer.BandHigh {
		t.Fatalf("unexpected style for high band: %+v", first)
	}

	if snap.Nodes[1].Style.Background != "#FFD700" {
		t.Fatalf("expected medium colour for Budi, got %s", snap.Nodes[1].Style.Background)
	}
	if snap.Nodes[2].Style.Background != "#F08080" {
		t.Fatalf("expected low colour for Citra, got %s", snap.Nodes[2].Style.Background)
	}
	if snap.Nodes[2].Position != (Position{X: 500, Y: 0}) {
		t.Fatalf("unexpected position %+v", snap.Nodes[2].Position)
	}
}

func TestRenderEdges(t *testing.T) {
	ds := sampleDataset()
	snap := Render(ds, nil)

	if len(snap.Edges) != 1 {
		t.Fatalf("expected 1 drawable edge, got %+v", snap.Edges)
	}

	edge := snap.Edges[0]
	if edge.ID != "e-1-2" || edge.Label != "Proyek A1" || !edge.Animated {
		t.Fatalf("unexpected edge %+v", edge)
	}
	if snap.Metrics.TotalCollaborations != 1 || snap.Metrics.SiloCount != 2 {
		t.Fatalf("unexpected metrics %+v", snap.Metrics)
	}
}

func TestRenderEmpty(t *testing.T) {
	snap := Render(orgraph.Dataset{}, nil)

	if len(snap.Nodes) != 0 || len(snap.Edges) != 0 || snap.Metrics != (analyzer.Metrics{}) {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
