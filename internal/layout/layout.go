// Package layout turns an analysis into a positioned graph ready for a
// flow-chart style renderer.
package layout

import (
	"fmt"

	"github.com/mmbarrys/navigara/internal/analyzer"
	"github.com/mmbarrys/navigara/internal/orgraph"
)

const (
	Columns       = 5
	ColumnSpacing = 250
	RowSpacing    = 150
)

var bandColors = map[analyzer.Band]string{
	analyzer.BandHigh:   "#90EE90",
	analyzer.BandMedium: "#FFD700",
	analyzer.BandLow:    "#F08080",
}

// Color returns the fill colour of a band.
func Color(b analyzer.Band) string {
	if c, ok := bandColors[b]; ok {
		return c
	}
	return bandColors[analyzer.BandLow]
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type NodeData struct {
	Label string `json:"label"`
}

type NodeStyle struct {
	Background string `json:"background"`
	Border     string `json:"border"`
	WhiteSpace string `json:"whiteSpace"`
	TextAlign  string `json:"textAlign"`
}

type Node struct {
	ID       string        `json:"id"`
	Position Position      `json:"position"`
	Data     NodeData      `json:"data"`
	Style    NodeStyle     `json:"style"`
	Band     analyzer.Band `json:"band"`
	Score    float64       `json:"effectiveness"`
}

type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"label"`
	Animated bool   `json:"animated"`
}

// Snapshot is the rendered graph. It is rebuilt on every analysis.
type Snapshot struct {
	Nodes   []Node           `json:"nodes"`
	Edges   []Edge           `json:"edges"`
	Metrics analyzer.Metrics `json:"metrics"`
}

// PositionOf places the i-th node on a grid of Columns columns.
func PositionOf(i int) Position {
	return Position{
		X: (i % Columns) * ColumnSpacing,
		Y: (i / Columns) * RowSpacing,
	}
}

// Render lays out ds using the scores in result. Nodes follow roster order;
// only edges between known employees are drawn, each pair once.
func Render(ds orgraph.Dataset, result *analyzer.Result) *Snapshot {
	if result == nil {
		result = analyzer.Analyze(ds.Employees, ds.Edges)
	}

	snap := &Snapshot{
		Nodes:   make([]Node, 0, len(ds.Employees)),
		Edges:   make([]Edge, 0, len(ds.Edges)),
		Metrics: result.Metrics,
	}

	known := make(map[string]struct{}, len(ds.Employees))
	for _, e := range ds.Employees {
		if _, dup := known[e.ID]; dup {
			continue
		}
		known[e.ID] = struct{}{}

		score, ok := result.ScoreOf(e.ID)
		if !ok {
			base := analyzer.BaseScore(e)
			score = analyzer.NodeScore{EmployeeID: e.ID, BaseScore: base, Score: base, Band: analyzer.BandOf(base)}
		}

		snap.Nodes = append(snap.Nodes, Node{
			ID:       e.ID,
			Position: PositionOf(len(snap.Nodes)),
			Data:     NodeData{Label: fmt.Sprintf("%s (%s)\nScore: %.0f", e.Name, e.Unit, score.BaseScore)},
			Style: NodeStyle{
				Background: Color(score.Band),
				Border:     "1px solid #333",
				WhiteSpace: "pre-line",
				TextAlign:  "center",
			},
			Band:  score.Band,
			Score: score.Score,
		})
	}

	drawn := make(map[[2]string]struct{}, len(ds.Edges))
	for _, e := range ds.Edges {
		if e.Source == e.Target {
			continue
		}
		if _, ok := known[e.Source]; !ok {
			continue
		}
		if _, ok := known[e.Target]; !ok {
			continue
		}

		key := [2]string{e.Source, e.Target}
		if key[0] > key[1] {
			key[0], key[1] = key[1], key[0]
		}
		if _, ok := drawn[key]; ok {
			continue
		}
		drawn[key] = struct{}{}

		snap.Edges = append(snap.Edges, Edge{
			ID:       fmt.Sprintf("e-%s-%s", e.Source, e.Target),
			Source:   e.Source,
			Target:   e.Target,
			Label:    e.Label,
			Animated: true,
		})
	}

	return snap
}
