// Package workflow drives the interactive session: building a roster by
// hand or from JSON, visualizing it and running relocation simulations.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/analyzer"
	"github.com/mmbarrys/navigara/internal/layout"
	"github.com/mmbarrys/navigara/internal/logger"
	"github.com/mmbarrys/navigara/internal/orgraph"
	"github.com/mmbarrys/navigara/internal/provider"
	"github.com/mmbarrys/navigara/internal/simulation"
)

// CandidateLabelSuffix marks the pending candidate in the employee choices.
const CandidateLabelSuffix = " (Candidate)"

// CandidateUpdate carries fresh scores for the candidate, e.g. a scoring
// result.
type CandidateUpdate interface {
	Apply(c orgraph.Candidate) orgraph.Candidate
}

// Choice is one entry of the employee dropdown.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Choices feeds the simulation selectors.
type Choices struct {
	Employees []Choice `json:"employees"`
	Units     []string `json:"units"`
}

// Machine owns the session state. All methods are safe for concurrent use;
// state changes only after an operation fully succeeds.
type Machine struct {
	mu sync.Mutex

	mode      Mode
	candidate orgraph.Candidate
	provider  provider.GraphProvider
	logger    *zap.Logger

	manual  []orgraph.Employee
	nextRow int

	draftRoster         string
	draftCollaborations string

	graph    *orgraph.Graph
	result   *analyzer.Result
	snapshot *layout.Snapshot
	report   string
}

// New returns a machine in ManualSetup mode with one empty builder row.
// A candidate without an id gets a generated one.
func New(candidate orgraph.Candidate, p provider.GraphProvider, log *zap.Logger) *Machine {
	if strings.TrimSpace(candidate.ID) == "" {
		candidate.ID = orgraph.NewCandidate(candidate.Name).ID
	}

	m := &Machine{
		mode:                ModeManualSetup,
		candidate:           candidate,
		provider:            p,
		logger:              logger.WithFields(log, zap.String("component", "workflow")),
		draftRoster:         "[]",
		draftCollaborations: "[]",
	}
	m.manual = []orgraph.Employee{m.blankRow()}

	return m
}

func (m *Machine) blankRow() orgraph.Employee {
	row := orgraph.Employee{
		ID:               fmt.Sprintf("emp-%d", m.nextRow),
		PotentialScore:   orgraph.DefaultScore,
		PerformanceScore: orgraph.DefaultScore,
	}
	m.nextRow++
	return row
}

func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SwitchMode changes what is shown. Builder rows, drafts and the active
// graph are kept.
func (m *Machine) SwitchMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q", mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug("switch mode", zap.String("from", string(m.mode)), zap.String("to", string(mode)))
	m.mode = mode

	return nil
}

// AddManualMember appends a builder row. A blank id is generated; the row
// is returned as stored.
func (m *Machine) AddManualMember(e orgraph.Employee) (orgraph.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e = trimRow(e)
	if e.ID == "" {
		e.ID = m.blankRow().ID
	}
	if m.rowIndex(e.ID) >= 0 {
		return orgraph.Employee{}, &orgraph.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate employee id %q", e.ID)}
	}

	m.manual = append(m.manual, e)
	return e, nil
}

// UpdateManualMember replaces the row at index. A blank id keeps the row id.
func (m *Machine) UpdateManualMember(index int, e orgraph.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.manual) {
		return &orgraph.NotFoundError{Kind: "manual row", ID: strconv.Itoa(index)}
	}

	e = trimRow(e)
	if e.ID == "" {
		e.ID = m.manual[index].ID
	}
	if i := m.rowIndex(e.ID); i >= 0 && i != index {
		return &orgraph.ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate employee id %q", e.ID)}
	}

	m.manual[index] = e
	return nil
}

// RemoveManualMember drops the row at index. The last row stays.
func (m *Machine) RemoveManualMember(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.manual) {
		return &orgraph.NotFoundError{Kind: "manual row", ID: strconv.Itoa(index)}
	}
	if len(m.manual) == 1 {
		return &orgraph.ValidationError{Field: "manual", Reason: "the last row cannot be removed"}
	}

	m.manual = append(m.manual[:index], m.manual[index+1:]...)
	return nil
}

// ManualRoster returns a copy of the builder rows.
func (m *Machine) ManualRoster() []orgraph.Employee {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]orgraph.Employee, len(m.manual))
	copy(out, m.manual)
	return out
}

func (m *Machine) rowIndex(id string) int {
	for i, row := range m.manual {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func trimRow(e orgraph.Employee) orgraph.Employee {
	e.ID = strings.TrimSpace(e.ID)
	e.PotentialScore = orgraph.ClampScore(e.PotentialScore)
	e.PerformanceScore = orgraph.ClampScore(e.PerformanceScore)
	return e
}

// SetEditorDraft stores the JSON texts of the editor. They are parsed only
// by LoadCustomGraph.
func (m *Machine) SetEditorDraft(roster, collaborations string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.draftRoster = roster
	m.draftCollaborations = collaborations
}

func (m *Machine) EditorDraft() (roster, collaborations string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.draftRoster, m.draftCollaborations
}

// ProcessManual analyzes the builder rows without collaborations, adding
// the scored candidate when it is not among them, and shows the result.
func (m *Machine) ProcessManual() (*layout.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != ModeManualSetup {
		return nil, illegal("process manual", m.mode)
	}

	g, err := orgraph.FromDataset(orgraph.Dataset{Employees: m.manual})
	if err != nil {
		return nil, fmt.Errorf("building manual roster: %w", err)
	}

	if _, present := g.Employee(m.candidate.ID); !present && m.candidate.Scored() {
		if _, _, err := g.MergeCandidate(m.candidate); err != nil {
			return nil, fmt.Errorf("merging candidate: %w", err)
		}
	}

	m.activate(g)
	m.report = ""
	m.mode = ModeVisualization

	m.logger.Info("manual roster processed", zap.Int("employees", g.Len()))

	return m.snapshot, nil
}

// LoadCustomGraph parses the editor draft and shows it. On any error the
// previous graph and mode stay.
func (m *Machine) LoadCustomGraph() (*layout.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != ModeJSONEditor {
		return nil, illegal("load custom graph", m.mode)
	}

	employees, err := orgraph.ParseRoster([]byte(m.draftRoster))
	if err != nil {
		return nil, err
	}
	edges, err := orgraph.ParseCollaborations([]byte(m.draftCollaborations))
	if err != nil {
		return nil, err
	}

	g, err := orgraph.FromDataset(orgraph.Dataset{Employees: employees, Edges: edges})
	if err != nil {
		return nil, err
	}

	m.activate(g)
	m.report = ""
	m.mode = ModeVisualization

	m.logger.Info("custom graph loaded",
		zap.Int("employees", g.Len()),
		zap.Int("collaborations", g.EdgeCount()),
	)

	return m.snapshot, nil
}

// RunSimulation relocates an employee of the active graph. The candidate is
// merged first when it is the one being moved and is not yet placed, and
// its scores are synced. The post-move graph becomes the new baseline.
func (m *Machine) RunSimulation(employeeID, targetUnit string) (*simulation.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != ModeVisualization {
		return nil, illegal("run simulation", m.mode)
	}
	if m.graph == nil {
		return nil, errors.New("no graph to simulate on")
	}

	employeeID = strings.TrimSpace(employeeID)
	g := m.graph.Clone()

	var synced *orgraph.Candidate
	if m.candidate.Scored() {
		c := m.candidate
		synced = &c

		if _, present := g.Employee(c.ID); !present && employeeID == c.ID {
			if _, _, err := g.MergeCandidate(c); err != nil {
				return nil, fmt.Errorf("merging candidate: %w", err)
			}
		}
	}

	ds := g.SnapshotInput()
	outcome, err := simulation.SimulateMove(simulation.Request{
		Employees:  ds.Employees,
		Edges:      ds.Edges,
		EmployeeID: employeeID,
		TargetUnit: targetUnit,
		Sync:       synced,
	})
	if err != nil {
		return nil, err
	}

	next, err := orgraph.FromDataset(outcome.Dataset)
	if err != nil {
		return nil, fmt.Errorf("rebuilding graph: %w", err)
	}

	m.graph = next
	m.result = outcome.After
	m.snapshot = layout.Render(outcome.Dataset, outcome.After)
	m.report = outcome.Report

	m.logger.Info("simulation finished", append(logger.MoveFields(employeeID, outcome.TargetUnit),
		zap.Float64("avg_effectiveness_change", outcome.AverageEffectiveness.Change),
		zap.String("direction", string(outcome.AverageEffectiveness.Direction)),
	)...)

	return outcome, nil
}

// Bootstrap loads the default graph from the provider, shows it and seeds
// the editor draft with it. The mode is not changed.
func (m *Machine) Bootstrap(ctx context.Context) (*layout.Snapshot, error) {
	if m.provider == nil {
		return nil, errors.New("no graph provider configured")
	}

	ds, err := m.provider.DefaultGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading default graph: %w", err)
	}

	g, err := orgraph.FromDataset(*ds)
	if err != nil {
		return nil, fmt.Errorf("validating default graph: %w", err)
	}

	input := g.SnapshotInput()
	roster, err := json.MarshalIndent(input.Employees, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding roster draft: %w", err)
	}
	collaborations, err := json.MarshalIndent(input.Edges, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding collaborations draft: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.activate(g)
	m.report = ""
	m.draftRoster = string(roster)
	m.draftCollaborations = string(collaborations)

	m.logger.Info("default graph loaded", zap.Int("employees", g.Len()), zap.Int("collaborations", g.EdgeCount()))

	return m.snapshot, nil
}

// SyncCandidate applies fresh scores to the candidate and returns it.
func (m *Machine) SyncCandidate(update CandidateUpdate) orgraph.Candidate {
	m.mu.Lock()
	defer m.mu.Unlock()

	if update != nil {
		m.candidate = update.Apply(m.candidate)
	}

	m.logger.Debug("candidate synced",
		zap.String("candidate_id", m.candidate.ID),
		zap.Bool("scored", m.candidate.Scored()),
	)

	return m.candidate
}

func (m *Machine) Candidate() orgraph.Candidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.candidate
}

// Choices lists the employees of the active graph, plus the scored
// candidate when it is not placed yet, and the units.
func (m *Machine) Choices() Choices {
	m.mu.Lock()
	defer m.mu.Unlock()

	choices := Choices{Employees: []Choice{}, Units: []string{}}
	if m.graph == nil {
		return choices
	}

	ds := m.graph.SnapshotInput()
	for _, e := range ds.Employees {
		label := e.Name
		if label == "" {
			label = e.ID
		}
		choices.Employees = append(choices.Employees, Choice{ID: e.ID, Label: label})
	}

	if _, present := m.graph.Employee(m.candidate.ID); !present && m.candidate.Scored() {
		choices.Employees = append(choices.Employees, Choice{
			ID:    m.candidate.ID,
			Label: m.candidate.Name + CandidateLabelSuffix,
		})
	}

	choices.Units = ds.Units()

	return choices
}

// Snapshot returns the current rendered graph, nil before the first
// analysis.
func (m *Machine) Snapshot() *layout.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Result returns the analysis behind the current snapshot.
func (m *Machine) Result() *analyzer.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// Dataset returns a copy of the active roster and collaborations.
func (m *Machine) Dataset() orgraph.Dataset {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.graph == nil {
		return orgraph.Dataset{}
	}
	return m.graph.SnapshotInput()
}

// CanSave reports whether the provider can replace its default graph.
func (m *Machine) CanSave() bool {
	_, ok := m.provider.(provider.GraphStore)
	return ok
}

// SaveAsDefault stores the active graph as the provider's default graph,
// so the next session starts from it.
func (m *Machine) SaveAsDefault(ctx context.Context) (orgraph.Dataset, error) {
	store, ok := m.provider.(provider.GraphStore)
	if !ok {
		return orgraph.Dataset{}, ErrReadOnlyProvider
	}

	ds := m.Dataset()
	if len(ds.Employees) == 0 {
		return orgraph.Dataset{}, errors.New("no graph to save")
	}

	if err := store.Save(ctx, ds); err != nil {
		return orgraph.Dataset{}, fmt.Errorf("saving default graph: %w", err)
	}

	m.logger.Info("default graph saved", zap.Int("employees", len(ds.Employees)), zap.Int("collaborations", len(ds.Edges)))

	return ds, nil
}

// Report returns the text of the last simulation on the active graph.
func (m *Machine) Report() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report
}

func (m *Machine) activate(g *orgraph.Graph) {
	ds := g.SnapshotInput()
	m.graph = g
	m.result = analyzer.Analyze(ds.Employees, ds.Edges)
	m.snapshot = layout.Render(ds, m.result)
}
