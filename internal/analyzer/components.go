package analyzer

import (
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/mmbarrys/navigara/internal/orgraph"
)

// collaboration is the undirected graph of the roster. Node ids are the
// roster positions of the first occurrence of each employee id.
type collaboration struct {
	graph     *simple.UndirectedGraph
	ids       []string
	index     map[string]int64
	edgeCount int
}

func buildCollaboration(employees []orgraph.Employee, edges []orgraph.Edge) collaboration {
	c := collaboration{
		graph: simple.NewUndirectedGraph(),
		ids:   make([]string, 0, len(employees)),
		index: make(map[string]int64, len(employees)),
	}

	for _, e := range employees {
		if _, dup := c.index[e.ID]; dup {
			continue
		}
		id := int64(len(c.ids))
		c.index[e.ID] = id
		c.ids = append(c.ids, e.ID)
		c.graph.AddNode(simple.Node(id))
	}

	for _, edge := range edges {
		a, ok := c.index[edge.Source]
		if !ok {
			continue
		}
		b, ok := c.index[edge.Target]
		if !ok || a == b {
			continue
		}
		if c.graph.HasEdgeBetween(a, b) {
			continue
		}

		c.graph.SetEdge(c.graph.NewEdge(simple.Node(a), simple.Node(b)))
		c.edgeCount++
	}

	return c
}

func (c collaboration) degree(employeeID string) int {
	id, ok := c.index[employeeID]
	if !ok {
		return 0
	}
	return c.graph.From(id).Len()
}

func (c collaboration) maxDegree() int {
	highest := 0
	for _, id := range c.ids {
		if d := c.degree(id); d > highest {
			highest = d
		}
	}
	return highest
}

// silos returns the connected components with members and components in
// roster order. Isolated employees form singleton silos.
func (c collaboration) silos() ([][]string, map[string]int) {
	components := topo.ConnectedComponents(c.graph)

	ordered := make([][]int64, 0, len(components))
	for _, component := range components {
		ids := make([]int64, 0, len(component))
		for _, n := range component {
			ids = append(ids, n.ID())
		}
		slices.Sort(ids)
		ordered = append(ordered, ids)
	}
	slices.SortFunc(ordered, func(a, b []int64) int {
		return int(a[0] - b[0])
	})

	silos := make([][]string, 0, len(ordered))
	siloOf := make(map[string]int, len(c.ids))
	for i, ids := range ordered {
		members := make([]string, 0, len(ids))
		for _, id := range ids {
			members = append(members, c.ids[id])
			siloOf[c.ids[id]] = i
		}
		silos = append(silos, members)
	}

	return silos, siloOf
}
