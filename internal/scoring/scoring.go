// Package scoring talks to assessment services that turn candidate
// documents into potential and performance scores.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmbarrys/navigara/internal/orgraph"
)

// ArtifactKind selects which score an artifact yields.
type ArtifactKind string

const (
	// ArtifactCV is a curriculum vitae; it is graded for potential.
	ArtifactCV ArtifactKind = "cv"
	// ArtifactPerformance is a performance report; it is graded for
	// realized performance.
	ArtifactPerformance ArtifactKind = "performance"
)

// ParseArtifactKind accepts the kind names used in configuration and flags.
func ParseArtifactKind(s string) (ArtifactKind, error) {
	switch ArtifactKind(strings.ToLower(strings.TrimSpace(s))) {
	case ArtifactCV:
		return ArtifactCV, nil
	case ArtifactPerformance:
		return ArtifactPerformance, nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q", s)
	}
}

// Artifact is a document submitted for assessment. Text is already
// extracted; file parsing happens elsewhere.
type Artifact struct {
	Kind          ArtifactKind
	CandidateName string
	TargetTitle   string
	Text          string
}

// Result carries the scores an assessment produced. Nil means the
// assessment did not cover that axis.
type Result struct {
	PotentialScore   *float64           `json:"skor_potensi,omitempty"`
	PerformanceScore *float64           `json:"skor_kinerja,omitempty"`
	Structured       map[string]float64 `json:"scores_structured,omitempty"`
	Summary          string             `json:"summary,omitempty"`
}

// Apply copies the known scores onto the candidate.
func (r *Result) Apply(c orgraph.Candidate) orgraph.Candidate {
	if r == nil {
		return c
	}
	if r.PotentialScore != nil {
		c.PotentialScore = orgraph.Score(orgraph.ClampScore(*r.PotentialScore))
	}
	if r.PerformanceScore != nil {
		c.PerformanceScore = orgraph.Score(orgraph.ClampScore(*r.PerformanceScore))
	}
	return c
}

// Provider scores one artifact.
type Provider interface {
	Score(ctx context.Context, artifact Artifact) (*Result, error)
}

// Error is a scoring failure reported verbatim.
type Error struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s scoring", e.Provider)
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
