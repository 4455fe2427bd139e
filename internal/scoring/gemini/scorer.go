// Package gemini scores candidate documents with Google Gemini.
package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/logger"
	"github.com/mmbarrys/navigara/internal/scoring"
)

const (
	providerName = "gemini"

	defaultMaxLogLength = 200
	maxDocumentRunes    = 4000
)

//go:embed prompt.md
var promptTemplate string

var tasks = map[scoring.ArtifactKind]string{
	scoring.ArtifactCV: "Grade the candidate's potential for the target position from the CV. " +
		"Fill skor_potensi with the average of the structured criteria and leave skor_kinerja null.",
	scoring.ArtifactPerformance: "Estimate the employee's realized performance from the report. " +
		"Fill skor_kinerja and leave skor_potensi null.",
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Scorer implements scoring.Provider on top of a Gemini generator.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewScorer(generator contentGenerator, log *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Scorer{
		generator: generator,
		logger:    logger.WithCommonFields(log, providerName, generator.Model()),
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, artifact scoring.Artifact) (*scoring.Result, error) {
	task, ok := tasks[artifact.Kind]
	if !ok {
		return nil, &scoring.Error{Provider: providerName, Message: fmt.Sprintf("unsupported artifact kind %q", artifact.Kind)}
	}
	if strings.TrimSpace(artifact.Text) == "" {
		return nil, &scoring.Error{Provider: providerName, Message: "artifact text is empty"}
	}

	prompt := buildPrompt(artifact, task)

	s.logger.Debug("gemini generate content request",
		zap.String("kind", string(artifact.Kind)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &scoring.Error{Provider: providerName, Message: "generate content", Err: err}
	}

	s.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, s.maxLogLen)),
	)

	result, err := parseResponse(raw)
	if err != nil {
		return nil, &scoring.Error{Provider: providerName, Message: "parse response", Err: err}
	}

	// Only the axis the artifact speaks to is trusted.
	switch artifact.Kind {
	case scoring.ArtifactCV:
		result.PerformanceScore = nil
		if result.PotentialScore == nil {
			return nil, &scoring.Error{Provider: providerName, Message: "response has no skor_potensi"}
		}
	case scoring.ArtifactPerformance:
		result.PotentialScore = nil
		if result.PerformanceScore == nil {
			return nil, &scoring.Error{Provider: providerName, Message: "response has no skor_kinerja"}
		}
	}

	return result, nil
}

func buildPrompt(artifact scoring.Artifact, task string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Document:\n{{DOCUMENT}}\n\nTask:\n{{TASK}}\n\nJSON Response:"
	}

	name := strings.TrimSpace(artifact.CandidateName)
	if name == "" {
		name = "unknown"
	}
	title := strings.TrimSpace(artifact.TargetTitle)
	if title == "" {
		title = "not specified"
	}

	document := strings.TrimSpace(artifact.Text)
	if runes := []rune(document); len(runes) > maxDocumentRunes {
		document = string(runes[:maxDocumentRunes])
	}

	replacer := strings.NewReplacer(
		"{{KIND}}", string(artifact.Kind),
		"{{NAME}}", name,
		"{{TITLE}}", title,
		"{{TASK}}", task,
		"{{DOCUMENT}}", document,
	)
	return replacer.Replace(template)
}

func parseResponse(raw string) (*scoring.Result, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	result := &scoring.Result{
		PotentialScore:   optionalScore(data["skor_potensi"]),
		PerformanceScore: optionalScore(data["skor_kinerja"]),
		Summary:          coerceString(data["summary"]),
	}

	if structured, ok := data["scores_structured"].(map[string]any); ok {
		result.Structured = make(map[string]float64, len(structured))
		for key, value := range structured {
			if f := coerceFloat(value); !math.IsNaN(f) {
				result.Structured[key] = f
			}
		}
	}

	return result, nil
}

func optionalScore(v any) *float64 {
	f := coerceFloat(v)
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "/100"))
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
