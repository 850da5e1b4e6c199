package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinicdesk/internal/clinical"
	"github.com/wolfman30/clinicdesk/internal/clinicapi"
	"github.com/wolfman30/clinicdesk/internal/gateway"
	"github.com/wolfman30/clinicdesk/internal/grouping"
	httpmiddleware "github.com/wolfman30/clinicdesk/internal/http/middleware"
	"github.com/wolfman30/clinicdesk/internal/navigation"
	"github.com/wolfman30/clinicdesk/internal/observability/metrics"
	"github.com/wolfman30/clinicdesk/internal/session"
	"github.com/wolfman30/clinicdesk/internal/views"
	"github.com/wolfman30/clinicdesk/pkg/logging"
)

// Grouped record kinds served by the console.
const (
	KindLabTests   = "lab-tests"
	KindLabResults = "lab-results"
)

// ConsoleHandler serves the local console: menu, grouped lab views and
// patient summaries. Expansion state is shared by every browser tab.
type ConsoleHandler struct {
	sessions session.Store
	service  *clinicapi.Service
	logger   *logging.Logger
	metrics  *metrics.GatewayMetrics
	now      func() time.Time

	expansion map[string]*grouping.ExpansionState
}

// NewConsoleHandler creates a console handler.
func NewConsoleHandler(sessions session.Store, service *clinicapi.Service, logger *logging.Logger, m *metrics.GatewayMetrics) *ConsoleHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConsoleHandler{
		sessions: sessions,
		service:  service,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		expansion: map[string]*grouping.ExpansionState{
			KindLabTests:   grouping.NewExpansionState(),
			KindLabResults: grouping.NewExpansionState(),
		},
	}
}

// HealthCheck reports liveness.
func (h *ConsoleHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type menuResponse struct {
	User  string            `json:"user"`
	Links []navigation.Link `json:"links"`
}

// Menu returns the navigation entries for the stored session.
func (h *ConsoleHandler) Menu(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpmiddleware.SessionFromContext(r.Context())
	if !ok {
		httpmiddleware.WriteLoginRequired(w)
		return
	}
	links := navigation.Menu(sess)
	if links == nil {
		links = []navigation.Link{}
	}
	writeJSON(w, http.StatusOK, menuResponse{User: sess.User.DisplayName(), Links: links})
}

type patientNode struct {
	Key       string `json:"key"`
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Expanded  bool   `json:"expanded"`
	Records   any    `json:"records"`
}

type dateNode struct {
	Date     string        `json:"date"`
	Expanded bool          `json:"expanded"`
	Patients []patientNode `json:"patients"`
}

type treeResponse struct {
	Kind  string     `json:"kind"`
	Dates []dateNode `json:"dates"`
}

func renderTree[R, P any](kind string, tree grouping.Tree[R, P], state *grouping.ExpansionState) treeResponse {
	resp := treeResponse{Kind: kind, Dates: make([]dateNode, 0, len(tree.Dates))}
	for _, d := range tree.Dates {
		node := dateNode{Date: d.Date, Expanded: state.DateExpanded(d.Date), Patients: make([]patientNode, 0, len(d.Patients))}
		for _, p := range d.Patients {
			node.Patients = append(node.Patients, patientNode{
				Key:       p.Key,
				PatientID: p.PatientID,
				Name:      p.Name,
				Expanded:  state.PatientExpanded(p.Key),
				Records:   p.Records,
			})
		}
		resp.Dates = append(resp.Dates, node)
	}
	return resp
}

func (h *ConsoleHandler) viewDeps() views.Deps {
	return views.Deps{Sessions: h.sessions, Logger: h.logger, Metrics: h.metrics}
}

// LabTestsGrouped returns lab tests grouped by date then patient.
func (h *ConsoleHandler) LabTestsGrouped(w http.ResponseWriter, r *http.Request) {
	state := h.expansion[KindLabTests]
	view := views.NewGroupedView(views.NewScope(), h.viewDeps(), h.service.ListLabTests, views.LabTestSource, state)
	if err := view.Load(r.Context()); err != nil {
		h.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderTree(KindLabTests, view.Tree(), state))
}

// LabResultsGrouped returns lab results grouped by date then patient.
func (h *ConsoleHandler) LabResultsGrouped(w http.ResponseWriter, r *http.Request) {
	state := h.expansion[KindLabResults]
	view := views.NewGroupedView(views.NewScope(), h.viewDeps(), h.service.ListLabResults, views.LabResultSource, state)
	if err := view.Load(r.Context()); err != nil {
		h.writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderTree(KindLabResults, view.Tree(), state))
}

type expandRequest struct {
	Key string `json:"key"`
}

type expandResponse struct {
	Kind     string   `json:"kind"`
	Key      string   `json:"key"`
	Expanded bool     `json:"expanded"`
	Dates    []string `json:"expanded_dates"`
	Patients []string `json:"expanded_patients"`
}

// Expand toggles a date or "date-patient" key for one grouped view.
func (h *ConsoleHandler) Expand(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	state, ok := h.expansion[kind]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown view " + kind})
		return
	}
	var req expandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	expanded := state.Toggle(key)
	writeJSON(w, http.StatusOK, expandResponse{
		Kind:     kind,
		Key:      key,
		Expanded: expanded,
		Dates:    state.Dates(),
		Patients: state.Patients(),
	})
}

type summaryResponse struct {
	Patient clinicapi.Patient `json:"patient"`
	Summary clinical.Summary  `json:"summary"`
}

// PatientSummary returns a patient with its derived detail fields.
func (h *ConsoleHandler) PatientSummary(w http.ResponseWriter, r *http.Request) {
	id := clinicapi.ID(chi.URLParam(r, "id"))
	view := views.NewListView(views.NewScope(), h.viewDeps(), func(ctx context.Context) ([]clinicapi.Patient, error) {
		p, err := h.service.GetPatient(ctx, id)
		if err != nil {
			return nil, err
		}
		return []clinicapi.Patient{p}, nil
	})
	if err := view.Load(r.Context()); err != nil {
		h.writeViewError(w, err)
		return
	}
	patient := view.State().Items[0]
	writeJSON(w, http.StatusOK, summaryResponse{
		Patient: patient,
		Summary: clinical.Summarize(patient, h.now()),
	})
}

// writeViewError maps a failed load onto a console response. Authorization
// failures have already cleared the session.
func (h *ConsoleHandler) writeViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrUnauthenticated), gateway.IsAuthorization(err):
		httpmiddleware.WriteLoginRequired(w)
	case gateway.Kind(err) == gateway.KindNetwork:
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": views.Message(err)})
	default:
		status := http.StatusBadGateway
		var re *gateway.RequestError
		if errors.As(err, &re) && re.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		var ve *gateway.ValidationError
		if errors.As(err, &ve) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]string{"error": views.Message(err)})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
