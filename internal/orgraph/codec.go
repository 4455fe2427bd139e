package orgraph

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	rosterField         = "pegawai"
	collaborationsField = "kolaborasi"
)

// employeeRecord is the loosely typed roster entry accepted from JSON or
// YAML documents. Ids may be numbers, scores may be numeric strings.
type employeeRecord struct {
	ID               string   `mapstructure:"id" validate:"max=128"`
	Name             string   `mapstructure:"nama" validate:"max=256"`
	Title            string   `mapstructure:"jabatan" validate:"max=256"`
	Unit             string   `mapstructure:"unit" validate:"max=256"`
	PotentialScore   *float64 `mapstructure:"skor_potensi"`
	PerformanceScore *float64 `mapstructure:"skor_kinerja"`
}

func (r employeeRecord) employee() Employee {
	return Employee{
		ID:               strings.TrimSpace(r.ID),
		Name:             strings.TrimSpace(r.Name),
		Title:            strings.TrimSpace(r.Title),
		Unit:             strings.TrimSpace(r.Unit),
		PotentialScore:   NormalizeScore(r.PotentialScore),
		PerformanceScore: NormalizeScore(r.PerformanceScore),
	}
}

type edgeRecord struct {
	Source string `mapstructure:"source" validate:"required,max=128"`
	Target string `mapstructure:"target" validate:"required,max=128"`
	Label  string `mapstructure:"project" validate:"max=256"`
}

func (r edgeRecord) edge() Edge {
	return Edge{
		Source: strings.TrimSpace(r.Source),
		Target: strings.TrimSpace(r.Target),
		Label:  strings.TrimSpace(r.Label),
	}
}

// ParseRoster decodes a JSON array of employees.
func ParseRoster(data []byte) ([]Employee, error) {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &ValidationError{Field: rosterField, Reason: "malformed JSON", Err: err}
	}
	return DecodeRoster(items)
}

// ParseCollaborations decodes a JSON array of collaboration links.
func ParseCollaborations(data []byte) ([]Edge, error) {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &ValidationError{Field: collaborationsField, Reason: "malformed JSON", Err: err}
	}
	return DecodeCollaborations(items)
}

// ParseDataset decodes a JSON object holding both lists.
func ParseDataset(data []byte) (*Dataset, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Reason: "malformed JSON", Err: err}
	}
	return DecodeDataset(doc)
}

// DecodeDataset decodes an already parsed document (JSON or YAML). An empty
// document is an empty dataset; any other document must carry the roster.
func DecodeDataset(doc map[string]any) (*Dataset, error) {
	if _, ok := doc[rosterField]; !ok && len(doc) > 0 {
		return nil, &ValidationError{Field: rosterField, Reason: "field is required"}
	}

	rosterItems, err := listField(doc, rosterField)
	if err != nil {
		return nil, err
	}

	edgeItems, err := listField(doc, collaborationsField)
	if err != nil {
		return nil, err
	}

	employees, err := DecodeRoster(rosterItems)
	if err != nil {
		return nil, err
	}

	edges, err := DecodeCollaborations(edgeItems)
	if err != nil {
		return nil, err
	}

	return &Dataset{Employees: employees, Edges: edges}, nil
}

// DecodeRoster converts generic items into employees.
func DecodeRoster(items []any) ([]Employee, error) {
	employees := make([]Employee, 0, len(items))
	for i, item := range items {
		var record employeeRecord
		if err := decodeWeak(item, &record); err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d]", rosterField, i), Reason: "unexpected employee shape", Err: err}
		}
		if err := validateRecord(record); err != nil {
			return nil, withField(err, fmt.Sprintf("%s[%d]", rosterField, i))
		}
		employees = append(employees, record.employee())
	}
	return employees, nil
}

// DecodeCollaborations converts generic items into edges.
func DecodeCollaborations(items []any) ([]Edge, error) {
	edges := make([]Edge, 0, len(items))
	for i, item := range items {
		var record edgeRecord
		if err := decodeWeak(item, &record); err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d]", collaborationsField, i), Reason: "unexpected collaboration shape", Err: err}
		}
		if err := validateRecord(record); err != nil {
			return nil, withField(err, fmt.Sprintf("%s[%d]", collaborationsField, i))
		}
		edges = append(edges, record.edge())
	}
	return edges, nil
}

func listField(doc map[string]any, key string) ([]any, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil, nil
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Field: key, Reason: fmt.Sprintf("expected a list, got %T", raw)}
	}

	return items, nil
}

var scoreType = reflect.TypeOf((*float64)(nil))

// blankScoreHook turns a blank score string into a missing score.
func blankScoreHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != scoreType {
		return data, nil
	}
	if text, ok := data.(string); ok && strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return data, nil
}

func decodeWeak(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(blankScoreHook),
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
