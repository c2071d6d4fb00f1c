package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vendorflow/internal/platform/middleware"
	"vendorflow/internal/sla"
	"vendorflow/internal/workflow"
	dErrors "vendorflow/pkg/domainerrors"
)

// WorkflowService is the engine surface the transport depends on.
type WorkflowService interface {
	Submit(ctx context.Context, vendorID, actorID string) (workflow.TransitionResult, error)
	StartReview(ctx context.Context, vendorID, reviewerID, notes string) (workflow.TransitionResult, error)
	Approve(ctx context.Context, vendorID, approverID, notes string) (workflow.TransitionResult, error)
	Reject(ctx context.Context, vendorID, reason, actorID string) (workflow.TransitionResult, error)
	RequestClarification(ctx context.Context, vendorID, requestText, actorID string) (workflow.TransitionResult, error)
	Suspend(ctx context.Context, vendorID, reason, actorID string, durationDays *int) (workflow.TransitionResult, error)
	RecomputePerformance(ctx context.Context, vendorID string) (workflow.PerformanceReview, error)
}

// SLAReporter serves the dashboard report.
type SLAReporter interface {
	Report(ctx context.Context) (sla.Report, error)
}

// SweepRunner triggers one escalation sweep on demand. The scheduler
// normally drives this; the endpoint exists for operators.
type SweepRunner interface {
	SweepOnce(ctx context.Context) (int, error)
}

// Handler is the thin HTTP layer. It decodes, delegates to the engine, and
// encodes; no business logic lives here.
type Handler struct {
	workflow WorkflowService
	monitor  SLAReporter
	sweeper  SweepRunner
	logger   *slog.Logger
}

func NewHandler(wf WorkflowService, monitor SLAReporter, sweeper SweepRunner, logger *slog.Logger) *Handler {
	return &Handler{
		workflow: wf,
		monitor:  monitor,
		sweeper:  sweeper,
		logger:   logger,
	}
}

// Register mounts the workflow routes on an already-authenticated router
// group; actor identity comes from the validated token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/vendors/{vendorID}", func(r chi.Router) {
		r.Post("/submit", h.handleSubmit)
		r.Post("/review", h.handleStartReview)
		r.Post("/approve", h.handleApprove)
		r.Post("/reject", h.handleReject)
		r.Post("/clarification", h.handleRequestClarification)
		r.Post("/suspend", h.handleSuspend)
		r.Post("/performance-review", h.handleRecomputePerformance)
	})
	r.Get("/sla/report", h.handleSLAReport)
	r.Post("/sla/sweep", h.handleSweep)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type clarificationRequest struct {
	RequestText string `json:"request_text"`
}

type suspendRequest struct {
	Reason       string `json:"reason"`
	DurationDays *int   `json:"duration_days,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	result, err := h.workflow.Submit(r.Context(), vendorID, middleware.GetActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleStartReview(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	var req notesRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.workflow.StartReview(r.Context(), vendorID, middleware.GetActorID(r.Context()), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	var req notesRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.workflow.Approve(r.Context(), vendorID, middleware.GetActorID(r.Context()), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	var req reasonRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.workflow.Reject(r.Context(), vendorID, req.Reason, middleware.GetActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRequestClarification(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	var req clarificationRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.workflow.RequestClarification(r.Context(), vendorID, req.RequestText, middleware.GetActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	var req suspendRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.workflow.Suspend(r.Context(), vendorID, req.Reason, middleware.GetActorID(r.Context()), req.DurationDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRecomputePerformance(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorID")
	review, err := h.workflow.RecomputePerformance(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *Handler) handleSLAReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.monitor.Report(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	escalated, err := h.sweeper.SweepOnce(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"escalated": escalated})
}

// decode reads a JSON body, tolerating an empty body for optional payloads.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, dErrors.New(dErrors.CodeValidation, "invalid JSON body"))
		return false
	}
	return true
}
