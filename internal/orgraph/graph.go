package orgraph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type pairKey struct {
	a, b string
}

func keyOf(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// Graph is the mutable roster plus collaboration list. It is not safe for
// concurrent use; the owner serializes access.
type Graph struct {
	employees []Employee
	index     map[string]int
	edges     []Edge
	pairs     map[pairKey]struct{}

	newID func() string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		pairs: make(map[pairKey]struct{}),
		newID: uuid.NewString,
	}
}

// FromDataset builds a validated graph. Either every employee and edge is
// accepted or an error is returned and nothing is built.
func FromDataset(ds Dataset) (*Graph, error) {
	g := New()

	for i, e := range ds.Employees {
		if _, err := g.AddEmployee(e); err != nil {
			return nil, withField(err, fmt.Sprintf("pegawai[%d]", i))
		}
	}

	for i, e := range ds.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, withField(err, fmt.Sprintf("kolaborasi[%d]", i))
		}
	}

	return g, nil
}

// Len returns the number of employees.
func (g *Graph) Len() int { return len(g.employees) }

// EdgeCount returns the number of distinct collaboration links.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Employee returns the employee with the given id.
func (g *Graph) Employee(id string) (Employee, bool) {
	i, ok := g.index[id]
	if !ok {
		return Employee{}, false
	}
	return g.employees[i], true
}

// AddEmployee appends e to the roster. A blank id is replaced by a generated
// one; a duplicate id is rejected. The stored employee is returned.
func (g *Graph) AddEmployee(e Employee) (Employee, error) {
	e = normalizeEmployee(e)
	if e.ID == "" {
		e.ID = g.newID()
	}

	if _, ok := g.index[e.ID]; ok {
		return Employee{}, &ValidationError{Field: "id", Reason: fmt.Sprintf("duplicate employee id %q", e.ID)}
	}

	g.index[e.ID] = len(g.employees)
	g.employees = append(g.employees, e)

	return e, nil
}

// RemoveEmployee drops the employee and every edge that references it.
func (g *Graph) RemoveEmployee(id string) error {
	pos, ok := g.index[id]
	if !ok {
		return &NotFoundError{Kind: "employee", ID: id}
	}

	g.employees = append(g.employees[:pos], g.employees[pos+1:]...)
	g.index = make(map[string]int, len(g.employees))
	for i, e := range g.employees {
		g.index[e.ID] = i
	}

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source == id || e.Target == id {
			delete(g.pairs, keyOf(e.Source, e.Target))
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept

	return nil
}

// AddEdge links two existing employees. Self-loops and unknown endpoints
// are rejected; a pair that is already linked is left as is.
func (g *Graph) AddEdge(e Edge) error {
	e.Source = strings.TrimSpace(e.Source)
	e.Target = strings.TrimSpace(e.Target)
	e.Label = strings.TrimSpace(e.Label)

	if e.Source == "" {
		return &ValidationError{Field: "source", Reason: "field is required"}
	}
	if e.Target == "" {
		return &ValidationError{Field: "target", Reason: "field is required"}
	}
	if e.Source == e.Target {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("self-loop on employee %q", e.Source)}
	}
	if _, ok := g.index[e.Source]; !ok {
		return &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown employee id %q", e.Source)}
	}
	if _, ok := g.index[e.Target]; !ok {
		return &ValidationError{Field: "target", Reason: fmt.Sprintf("unknown employee id %q", e.Target)}
	}

	key := keyOf(e.Source, e.Target)
	if _, ok := g.pairs[key]; ok {
		return nil
	}

	g.pairs[key] = struct{}{}
	g.edges = append(g.edges, e)

	return nil
}

// MergeCandidate puts the candidate into the roster. An absent candidate is
// appended to UnassignedUnit with missing scores defaulted; a present one
// only gets its known scores refreshed, its unit is never touched. The
// boolean reports whether the candidate was appended.
func (g *Graph) MergeCandidate(c Candidate) (Employee, bool, error) {
	id := strings.TrimSpace(c.ID)
	if id == "" {
		return Employee{}, false, &ValidationError{Field: "candidate.id", Reason: "field is required"}
	}

	if i, ok := g.index[id]; ok {
		emp := &g.employees[i]
		if c.PotentialScore != nil {
			emp.PotentialScore = ClampScore(*c.PotentialScore)
		}
		if c.PerformanceScore != nil {
			emp.PerformanceScore = ClampScore(*c.PerformanceScore)
		}
		return *emp, false, nil
	}

	c.ID = id
	emp, err := g.AddEmployee(c.Employee())
	if err != nil {
		return Employee{}, false, err
	}

	return emp, true, nil
}

// SnapshotInput returns a copy of the roster and edges for analysis.
func (g *Graph) SnapshotInput() Dataset {
	return Dataset{Employees: g.employees, Edges: g.edges}.Clone()
}

// Units returns the distinct units in roster order.
func (g *Graph) Units() []string {
	return Dataset{Employees: g.employees}.Units()
}

// Clone returns an independent copy of the graph.
func (g *Graph) Clone() *Graph {
	out := New()
	out.newID = g.newID
	out.employees = make([]Employee, len(g.employees))
	copy(out.employees, g.employees)
	out.edges = make([]Edge, len(g.edges))
	copy(out.edges, g.edges)
	for id, i := range g.index {
		out.index[id] = i
	}
	for k := range g.pairs {
		out.pairs[k] = struct{}{}
	}
	return out
}
