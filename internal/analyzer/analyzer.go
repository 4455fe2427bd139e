// Package analyzer scores employees by effectiveness and counts
// collaboration silos. Everything here is a pure function of its input.
package analyzer

import (
	"gonum.org/v1/gonum/stat"

	"github.com/mmbarrys/navigara/internal/orgraph"
)

const (
	PerformanceWeight = 0.6
	PotentialWeight   = 0.4

	// Band thresholds on the base score.
	MediumThreshold = 60.0
	HighThreshold   = 80.0
)

// Band is the presentation bucket of a score.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// BandOf buckets a base score: below 60 is low, below 80 medium, else high.
func BandOf(score float64) Band {
	switch {
	case score >= HighThreshold:
		return BandHigh
	case score >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// BaseScore blends realized performance with assessed potential.
func BaseScore(e orgraph.Employee) float64 {
	return e.PerformanceScore*PerformanceWeight + e.PotentialScore*PotentialWeight
}

// NodeScore is the per-employee analysis output.
type NodeScore struct {
	EmployeeID string  `json:"id"`
	BaseScore  float64 `json:"base_score"`
	Degree     int     `json:"degree"`
	Centrality float64 `json:"centrality"`
	Score      float64 `json:"effectiveness"`
	Band       Band    `json:"band"`
	Silo       int     `json:"silo"`
}

// Metrics aggregates the whole organization.
type Metrics struct {
	TotalEmployees       int     `json:"total_pegawai"`
	TotalCollaborations  int     `json:"total_kolaborasi"`
	AverageEffectiveness float64 `json:"avg_effectiveness"`
	SiloCount            int     `json:"num_silos"`
}

// Result holds per-node scores in roster order, the silos, and metrics.
type Result struct {
	Scores  []NodeScore `json:"scores"`
	Silos   [][]string  `json:"silos"`
	Metrics Metrics     `json:"metrics"`

	byID map[string]int
}

// ScoreOf returns the score of the given employee.
func (r *Result) ScoreOf(id string) (NodeScore, bool) {
	if r == nil {
		return NodeScore{}, false
	}
	if r.byID == nil {
		r.byID = make(map[string]int, len(r.Scores))
		for i, s := range r.Scores {
			r.byID[s.EmployeeID] = i
		}
	}
	i, ok := r.byID[id]
	if !ok {
		return NodeScore{}, false
	}
	return r.Scores[i], true
}

// Analyze computes effectiveness and silos for the given roster. Edges with
// unknown endpoints, self-loops and repeated pairs are skipped, so the
// function accepts any input. An empty roster yields zeroed metrics.
func Analyze(employees []orgraph.Employee, edges []orgraph.Edge) *Result {
	result := &Result{
		Scores: make([]NodeScore, 0, len(employees)),
		Silos:  make([][]string, 0),
		byID:   make(map[string]int, len(employees)),
	}

	if len(employees) == 0 {
		return result
	}

	c := buildCollaboration(employees, edges)
	maxDegree := c.maxDegree()
	silos, siloOf := c.silos()

	scores := make([]float64, 0, len(employees))
	for _, e := range employees {
		if _, dup := result.byID[e.ID]; dup {
			continue
		}

		degree := c.degree(e.ID)
		centrality := 0.0
		if maxDegree > 0 {
			centrality = float64(degree) / float64(maxDegree)
		}

		base := BaseScore(e)
		score := base * (1 + centrality)
		scores = append(scores, score)

		result.byID[e.ID] = len(result.Scores)
		result.Scores = append(result.Scores, NodeScore{
			EmployeeID: e.ID,
			BaseScore:  base,
			Degree:     degree,
			Centrality: centrality,
			Score:      score,
			Band:       BandOf(base),
			Silo:       siloOf[e.ID],
		})
	}

	result.Silos = silos
	result.Metrics = Metrics{
		TotalEmployees:       len(result.Scores),
		TotalCollaborations:  c.edgeCount,
		AverageEffectiveness: stat.Mean(scores, nil),
		SiloCount:            len(silos),
	}

	return result
}
