// Package simulation runs what-if relocations of a single employee and
// reports how the organization metrics move.
package simulation

import (
	"bytes"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/mmbarrys/navigara/internal/analyzer"
	"github.com/mmbarrys/navigara/internal/orgraph"
)

//go:embed report.tmpl
var reportTemplate string

var report = template.Must(template.New("report").Parse(reportTemplate))

// Changes smaller than this are reported as unchanged.
const tolerance = 1e-9

// Direction describes how a metric moved.
type Direction string

const (
	Improved  Direction = "improved"
	Declined  Direction = "declined"
	Unchanged Direction = "unchanged"
)

// Delta is a before/after pair of one metric.
type Delta struct {
	Before    float64   `json:"before"`
	After     float64   `json:"after"`
	Change    float64   `json:"change"`
	Direction Direction `json:"direction"`
}

func newDelta(before, after float64, lowerIsBetter bool) Delta {
	d := Delta{Before: before, After: after, Change: after - before, Direction: Unchanged}

	switch {
	case math.Abs(d.Change) < tolerance:
		d.Change = 0
	case (d.Change > 0) != lowerIsBetter:
		d.Direction = Improved
	default:
		d.Direction = Declined
	}

	return d
}

// Request describes one relocation. Sync, when set, carries candidate
// scores that are applied to the post-move roster.
type Request struct {
	Employees  []orgraph.Employee
	Edges      []orgraph.Edge
	EmployeeID string
	TargetUnit string
	Sync       *orgraph.Candidate
}

// Outcome is the structured result of a simulation.
type Outcome struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	FromUnit     string `json:"from_unit"`
	TargetUnit   string `json:"target_unit"`
	Synced       bool   `json:"synced"`

	Before  *analyzer.Result `json:"before"`
	After   *analyzer.Result `json:"after"`
	Dataset orgraph.Dataset  `json:"dataset"`

	EmployeeScore        Delta `json:"employee_score"`
	AverageEffectiveness Delta `json:"avg_effectiveness"`
	SiloCount            Delta `json:"num_silos"`

	Report string `json:"report"`
}

// SimulateMove relocates req.EmployeeID to req.TargetUnit on a copy of the
// roster and compares the analysis before and after. Edges are left as
// they are, so the silo count never changes with a relocation.
func SimulateMove(req Request) (*Outcome, error) {
	employeeID := strings.TrimSpace(req.EmployeeID)
	targetUnit := strings.TrimSpace(req.TargetUnit)

	if employeeID == "" {
		return nil, &orgraph.ValidationError{Field: "pegawaiId", Reason: "field is required"}
	}
	if targetUnit == "" {
		return nil, &orgraph.ValidationError{Field: "targetUnit", Reason: "field is required"}
	}

	g, err := orgraph.FromDataset(orgraph.Dataset{Employees: req.Employees, Edges: req.Edges})
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	moved, ok := g.Employee(employeeID)
	if !ok {
		return nil, &orgraph.NotFoundError{Kind: "employee", ID: employeeID}
	}

	before := g.SnapshotInput()
	after := before.Clone()

	synced := false
	for i := range after.Employees {
		e := &after.Employees[i]
		if e.ID == employeeID {
			e.Unit = targetUnit
		}
		if req.Sync != nil && e.ID == strings.TrimSpace(req.Sync.ID) {
			if req.Sync.PotentialScore != nil {
				e.PotentialScore = orgraph.ClampScore(*req.Sync.PotentialScore)
				synced = true
			}
			if req.Sync.PerformanceScore != nil {
				e.PerformanceScore = orgraph.ClampScore(*req.Sync.PerformanceScore)
				synced = true
			}
		}
	}

	beforeResult := analyzer.Analyze(before.Employees, before.Edges)
	afterResult := analyzer.Analyze(after.Employees, after.Edges)

	beforeScore, _ := beforeResult.ScoreOf(employeeID)
	afterScore, _ := afterResult.ScoreOf(employeeID)

	out := &Outcome{
		EmployeeID:   employeeID,
		EmployeeName: moved.Name,
		FromUnit:     moved.Unit,
		TargetUnit:   targetUnit,
		Synced:       synced,
		Before:       beforeResult,
		After:        afterResult,
		Dataset:      after,

		EmployeeScore: newDelta(beforeScore.Score, afterScore.Score, false),
		AverageEffectiveness: newDelta(
			beforeResult.Metrics.AverageEffectiveness,
			afterResult.Metrics.AverageEffectiveness,
			false,
		),
		SiloCount: newDelta(
			float64(beforeResult.Metrics.SiloCount),
			float64(afterResult.Metrics.SiloCount),
			true,
		),
	}

	text, err := renderReport(out)
	if err != nil {
		return nil, err
	}
	out.Report = text

	return out, nil
}

func renderReport(out *Outcome) (string, error) {
	name := out.EmployeeName
	if name == "" {
		name = out.EmployeeID
	}

	data := struct {
		*Outcome
		Name string
	}{Outcome: out, Name: name}

	var buf bytes.Buffer
	if err := report.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	return buf.String(), nil
}
