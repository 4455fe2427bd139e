// Package orgraph holds the canonical roster of employees and their
// collaboration links, and keeps the graph structurally valid.
package orgraph

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultScore replaces a missing potential or performance score.
	DefaultScore = 50.0
	MinScore     = 0.0
	MaxScore     = 100.0

	// UnassignedUnit is where a merged candidate lands before relocation.
	UnassignedUnit = "Unassigned"
	CandidateTitle = "Candidate"
)

// Employee is a node of the organization graph.
type Employee struct {
	ID               string  `json:"id" yaml:"id"`
	Name             string  `json:"nama" yaml:"nama"`
	Title            string  `json:"jabatan,omitempty" yaml:"jabatan,omitempty"`
	Unit             string  `json:"unit" yaml:"unit"`
	PotentialScore   float64 `json:"skor_potensi" yaml:"skor_potensi"`
	PerformanceScore float64 `json:"skor_kinerja" yaml:"skor_kinerja"`
}

// Edge is an undirected collaboration link between two employees.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"project,omitempty" yaml:"project,omitempty"`
}

// Candidate is the pending candidate produced by the scoring provider.
// Nil scores mean the candidate was not assessed on that axis yet.
type Candidate struct {
	ID               string   `json:"id"`
	Name             string   `json:"nama"`
	PotentialScore   *float64 `json:"skor_potensi"`
	PerformanceScore *float64 `json:"skor_kinerja"`
}

// NewCandidate returns an unscored candidate with a fresh identifier.
func NewCandidate(name string) Candidate {
	return Candidate{ID: "candidate-" + uuid.NewString(), Name: name}
}

// Scored reports whether at least one score is known.
func (c Candidate) Scored() bool {
	return c.PotentialScore != nil || c.PerformanceScore != nil
}

// Employee materializes the candidate as a roster entry.
func (c Candidate) Employee() Employee {
	return Employee{
		ID:               c.ID,
		Name:             c.Name,
		Title:            CandidateTitle,
		Unit:             UnassignedUnit,
		PotentialScore:   NormalizeScore(c.PotentialScore),
		PerformanceScore: NormalizeScore(c.PerformanceScore),
	}
}

// Dataset is the (employees, edges) pair exchanged with providers and fed
// to the analyzer.
type Dataset struct {
	Employees []Employee `json:"pegawai" yaml:"pegawai"`
	Edges     []Edge     `json:"kolaborasi" yaml:"kolaborasi"`
}

// Clone returns a copy that shares no backing arrays with d.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Employees: make([]Employee, len(d.Employees)),
		Edges:     make([]Edge, len(d.Edges)),
	}
	copy(out.Employees, d.Employees)
	copy(out.Edges, d.Edges)
	return out
}

// Find returns the employee with the given id.
func (d Dataset) Find(id string) (Employee, bool) {
	for _, e := range d.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

// Units returns the distinct units in order of first appearance.
func (d Dataset) Units() []string {
	seen := make(map[string]struct{}, len(d.Employees))
	units := make([]string, 0)
	for _, e := range d.Employees {
		if _, ok := seen[e.Unit]; ok {
			continue
		}
		seen[e.Unit] = struct{}{}
		units = append(units, e.Unit)
	}
	return units
}

// Score is a helper for building optional scores.
func Score(v float64) *float64 {
	return &v
}

// ClampScore bounds v to [MinScore, MaxScore]; NaN becomes DefaultScore.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultScore
	}
	return math.Min(math.Max(v, MinScore), MaxScore)
}

// NormalizeScore resolves an optional score to a clamped value.
func NormalizeScore(v *float64) float64 {
	if v == nil {
		return DefaultScore
	}
	return ClampScore(*v)
}

func normalizeEmployee(e Employee) Employee {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	e.Title = strings.TrimSpace(e.Title)
	e.Unit = strings.TrimSpace(e.Unit)
	e.PotentialScore = ClampScore(e.PotentialScore)
	e.PerformanceScore = ClampScore(e.PerformanceScore)
	return e
}
