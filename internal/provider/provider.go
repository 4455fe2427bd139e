// Package provider supplies the initial organization graph, either from a
// local dataset file or from a remote navigara service.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmbarrys/navigara/internal/orgraph"
)

// GraphProvider returns the default roster and collaboration list.
type GraphProvider interface {
	DefaultGraph(ctx context.Context) (*orgraph.Dataset, error)
}

// GraphStore is a provider that can also replace its default graph.
type GraphStore interface {
	GraphProvider
	Save(ctx context.Context, ds orgraph.Dataset) error
}

// Error is a provider failure reported verbatim. Status is zero when the
// provider could not be reached at all or is a local store.
type Error struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s provider", e.Provider)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Unreachable reports whether the provider never answered. A provider that
// answered with a graph that does not decode is reachable.
func (e *Error) Unreachable() bool {
	return e.Status == 0 && !errors.Is(e.Err, orgraph.ErrInvalid)
}

// DefaultDataset is the built-in organization used when no dataset file
// exists yet.
func DefaultDataset() orgraph.Dataset {
	return orgraph.Dataset{
		Employees: []orgraph.Employee{
			{ID: "1", Name: "Anya", Unit: "A", PotentialScore: 90, PerformanceScore: 95},
			{ID: "2", Name: "Budi", Unit: "A", PotentialScore: 95, PerformanceScore: 70},
			{ID: "3", Name: "Citra", Unit: "SDM", PotentialScore: 80, PerformanceScore: 85},
		},
		Edges: []orgraph.Edge{
			{Source: "1", Target: "2"},
			{Source: "1", Target: "3"},
			{Source: "2", Target: "3"},
		},
	}
}
