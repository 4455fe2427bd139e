package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/layout"
	"github.com/mmbarrys/navigara/internal/logger"
	"github.com/mmbarrys/navigara/internal/orgraph"
	"github.com/mmbarrys/navigara/internal/provider"
	"github.com/mmbarrys/navigara/internal/simulation"
)

// graphResponse is the rendered graph plus the structured dataset behind
// it, so clients never parse labels back.
type graphResponse struct {
	*layout.Snapshot
	Employees []orgraph.Employee `json:"pegawai"`
	Edges     []orgraph.Edge     `json:"kolaborasi"`
}

type simulationResponse struct {
	graphResponse
	Report               string           `json:"report"`
	EmployeeID           string           `json:"pegawaiId"`
	FromUnit             string           `json:"fromUnit"`
	TargetUnit           string           `json:"targetUnit"`
	EmployeeScore        simulation.Delta `json:"employee_score"`
	AverageEffectiveness simulation.Delta `json:"avg_effectiveness_change"`
	SiloCount            simulation.Delta `json:"num_silos_change"`
}

type customGraphRequest struct {
	RosterData         json.RawMessage `json:"pegawaiData"`
	CollaborationsData json.RawMessage `json:"kolaborasiData"`
}

type simulateRequest struct {
	EmployeeID     any             `json:"pegawaiId"`
	TargetUnit     string          `json:"targetUnit"`
	Employees      json.RawMessage `json:"pegawaiList"`
	Collaborations json.RawMessage `json:"kolaborasiList"`
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.defaultDataset(w, r)
	if !ok {
		return
	}

	s.writeGraph(w, "default", *ds)
}

func (s *Server) handleLoadCustomGraph(w http.ResponseWriter, r *http.Request) {
	var req customGraphRequest
	if !s.decode(w, r, &req) {
		return
	}

	employees, err := orgraph.ParseRoster(documentBytes(req.RosterData))
	if err != nil {
		s.writeError(w, err)
		return
	}
	edges, err := orgraph.ParseCollaborations(documentBytes(req.CollaborationsData))
	if err != nil {
		s.writeError(w, err)
		return
	}

	g, err := orgraph.FromDataset(orgraph.Dataset{Employees: employees, Edges: edges})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.logger.Info("custom graph received", zap.Int("employees", g.Len()), zap.Int("collaborations", g.EdgeCount()))

	s.writeGraph(w, "custom", g.SnapshotInput())
}

func (s *Server) handleSimulateMove(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !s.decode(w, r, &req) {
		return
	}

	employeeID := idString(req.EmployeeID)
	targetUnit := strings.TrimSpace(req.TargetUnit)
	if employeeID == "" || targetUnit == "" {
		writeJSONError(w, http.StatusBadRequest, "pegawaiId and targetUnit are required")
		return
	}

	var ds orgraph.Dataset
	employees, err := orgraph.ParseRoster(documentBytes(req.Employees))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if len(employees) == 0 {
		def, ok := s.defaultDataset(w, r)
		if !ok {
			return
		}
		ds = *def
	} else {
		edges, err := orgraph.ParseCollaborations(documentBytes(req.Collaborations))
		if err != nil {
			s.writeError(w, err)
			return
		}
		ds = orgraph.Dataset{Employees: employees, Edges: edges}
	}

	s.logger.Info("simulating move", logger.MoveFields(employeeID, targetUnit)...)

	outcome, err := simulation.SimulateMove(simulation.Request{
		Employees:  ds.Employees,
		Edges:      ds.Edges,
		EmployeeID: employeeID,
		TargetUnit: targetUnit,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.metrics.RecordSimulation(string(outcome.AverageEffectiveness.Direction))
	s.metrics.RecordAnalysis("simulation",
		outcome.After.Metrics.TotalEmployees,
		outcome.After.Metrics.SiloCount,
		outcome.After.Metrics.AverageEffectiveness,
	)

	writeJSON(w, http.StatusOK, simulationResponse{
		graphResponse: graphResponse{
			Snapshot:  layout.Render(outcome.Dataset, outcome.After),
			Employees: outcome.Dataset.Employees,
			Edges:     outcome.Dataset.Edges,
		},
		Report:               outcome.Report,
		EmployeeID:           outcome.EmployeeID,
		FromUnit:             outcome.FromUnit,
		TargetUnit:           outcome.TargetUnit,
		EmployeeScore:        outcome.EmployeeScore,
		AverageEffectiveness: outcome.AverageEffectiveness,
		SiloCount:            outcome.SiloCount,
	})
}

func (s *Server) defaultDataset(w http.ResponseWriter, r *http.Request) (*orgraph.Dataset, bool) {
	ds, err := s.provider.DefaultGraph(r.Context())
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}

	g, err := orgraph.FromDataset(*ds)
	if err != nil {
		s.logger.Error("default graph is invalid", zap.Error(err))
		writeJSONError(w, http.StatusBadGateway, fmt.Sprintf("default graph is invalid: %v", err))
		return nil, false
	}

	out := g.SnapshotInput()
	return &out, true
}

func (s *Server) writeGraph(w http.ResponseWriter, source string, ds orgraph.Dataset) {
	snap, err := s.cache.render(source, ds)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, graphResponse{Snapshot: snap, Employees: ds.Employees, Edges: ds.Edges})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// writeError maps domain and provider errors to HTTP statuses. A provider
// error takes precedence over the validation error it wraps.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *orgraph.ValidationError
	var nerr *orgraph.NotFoundError
	var perr *provider.Error

	switch {
	case errors.As(err, &perr):
		s.metrics.RecordProviderError(perr.Provider)
		s.logger.Warn("graph provider failed", zap.Error(err))

		switch {
		case errors.Is(perr, orgraph.ErrInvalid):
			writeJSONError(w, http.StatusBadGateway, fmt.Sprintf("provider returned an invalid graph: %v", perr))
		case perr.Unreachable():
			writeJSONError(w, http.StatusServiceUnavailable, perr.Error())
		case perr.Status >= 400:
			writeJSONError(w, perr.Status, perr.Message)
		default:
			writeJSONError(w, http.StatusBadGateway, perr.Error())
		}
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Field: verr.Field})
	case errors.As(err, &nerr):
		writeJSONError(w, http.StatusNotFound, nerr.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// documentBytes accepts either embedded JSON or a JSON string holding the
// document, as the JSON editor sends text.
func documentBytes(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []byte("[]")
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return []byte(text)
		}
	}
	return trimmed
}

func idString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
