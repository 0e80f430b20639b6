// Package handler exposes the status, category and summary endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	platformMetrics "canvass/internal/platform/metrics"
	"canvass/internal/platform/middleware"
	"canvass/internal/tally"
	tallyMetrics "canvass/internal/tally/metrics"
	"canvass/internal/tally/service"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/httputil"
	"canvass/pkg/requestcontext"
)

// Service defines the tally operations the handler needs.
type Service interface {
	RecordStatus(ctx context.Context, callerID id.ActorID, input service.RecordStatusInput) (tally.StatusEntry, error)
	AssignCategory(ctx context.Context, callerID id.ActorID, input service.AssignCategoryInput) (tally.CategoryAssignment, error)
	CreateCategory(ctx context.Context, callerID id.ActorID, input service.CreateCategoryInput) (*tally.Category, error)
	ListCategories(ctx context.Context) ([]*tally.Category, error)
	LeaderSummary(ctx context.Context, callerID id.ActorID) (tally.Summary, error)
	SupervisorDashboard(ctx context.Context, callerID id.ActorID) (*service.Dashboard, error)
	BatchStatusCategory(ctx context.Context, callerID id.ActorID, memberIDs []id.MemberID) ([]service.MemberStatus, error)
}

// Handler handles tally endpoints.
type Handler struct {
	logger    *slog.Logger
	tally     Service
	metrics   *tallyMetrics.Metrics
	platform  *platformMetrics.Metrics
	validator middleware.Validator
}

// New creates a tally Handler.
func New(
	tallySvc Service,
	logger *slog.Logger,
	m *tallyMetrics.Metrics,
	platform *platformMetrics.Metrics,
	validator middleware.Validator) *Handler {
	return &Handler{
		logger:    logger,
		tally:     tallySvc,
		metrics:   m,
		platform:  platform,
		validator: validator,
	}
}

// Register attaches the tally routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Latency(h.platform, "tally"))
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/summary", h.handleSummary)
		r.Post("/members/status-batch", h.handleStatusBatch)
		r.Post("/members/{id}/status", h.handleRecordStatus)
		r.Post("/members/{id}/category", h.handleAssignCategory)
		r.Get("/categories", h.handleListCategories)
		r.Post("/categories", h.handleCreateCategory)
	})
}

type recordStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *Handler) handleRecordStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return
	}
	req, ok := httputil.Decode[recordStatusRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	status, err := id.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid status"))
		return
	}

	entry, err := h.tally.RecordStatus(ctx, callerID, service.RecordStatusInput{
		MemberID: memberID,
		Status:   status,
		Note:     req.Note,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record status failed",
			"request_id", requestID,
			"member_id", memberID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.EntriesRecorded.Inc()
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

type assignCategoryRequest struct {
	CategoryID string `json:"category_id"`
}

func (h *Handler) handleAssignCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	memberID, err := id.ParseMemberID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id"))
		return
	}
	req, ok := httputil.Decode[assignCategoryRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	categoryID, err := id.ParseCategoryID(req.CategoryID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid category id"))
		return
	}

	assignment, err := h.tally.AssignCategory(ctx, callerID, service.AssignCategoryInput{
		MemberID:   memberID,
		CategoryID: categoryID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "assign category failed",
			"request_id", requestID,
			"member_id", memberID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	h.metrics.AssignmentsRecorded.Inc()
	httputil.WriteJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "leader"
	}
	h.metrics.SummaryRequests.WithLabelValues(scope).Inc()
	start := time.Now()
	defer func() { h.metrics.SummaryDuration.Observe(time.Since(start).Seconds()) }()

	switch scope {
	case "leader":
		summary, err := h.tally.LeaderSummary(ctx, callerID)
		if err != nil {
			h.logger.WarnContext(ctx, "leader summary failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, summary)
	case "supervisor":
		dashboard, err := h.tally.SupervisorDashboard(ctx, callerID)
		if err != nil {
			h.logger.WarnContext(ctx, "supervisor dashboard failed",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, dashboard)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "scope must be leader or supervisor"))
	}
}

type statusBatchRequest struct {
	MemberIDs []string `json:"member_ids"`
}

type statusBatchResponse struct {
	Members []service.MemberStatus `json:"members"`
}

func (h *Handler) handleStatusBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	req, ok := httputil.Decode[statusBatchRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	memberIDs := make([]id.MemberID, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		memberID, err := id.ParseMemberID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member id: "+raw))
			return
		}
		memberIDs = append(memberIDs, memberID)
	}

	members, err := h.tally.BatchStatusCategory(ctx, callerID, memberIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "status batch failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statusBatchResponse{Members: members})
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	req, ok := httputil.Decode[createCategoryRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	category, err := h.tally.CreateCategory(ctx, callerID, service.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create category failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, category)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.tally.ListCategories(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list categories failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}
