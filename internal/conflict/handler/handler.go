// Package handler exposes the conflict review and notification endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"canvass/internal/conflict/models"
	"canvass/internal/conflict/service"
	platformMetrics "canvass/internal/platform/metrics"
	"canvass/internal/platform/middleware"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/httputil"
	"canvass/pkg/requestcontext"
)

// Service defines the conflict operations the handler needs.
type Service interface {
	List(ctx context.Context, callerID id.ActorID, resolved *bool) ([]service.ConflictDetail, error)
	Resolve(ctx context.Context, callerID id.ActorID, input service.ResolveInput) (*models.StatusConflict, error)
	Notifications(ctx context.Context, callerID id.ActorID) ([]*models.ConflictNotification, error)
	MarkRead(ctx context.Context, callerID id.ActorID, notificationID id.NotificationID) error
	MarkAllRead(ctx context.Context, callerID id.ActorID) error
}

// Handler handles conflict endpoints.
type Handler struct {
	logger    *slog.Logger
	conflicts Service
	platform  *platformMetrics.Metrics
	validator middleware.Validator
}

// New creates a conflict Handler.
func New(
	conflicts Service,
	logger *slog.Logger,
	platform *platformMetrics.Metrics,
	validator middleware.Validator) *Handler {
	return &Handler{
		logger:    logger,
		conflicts: conflicts,
		platform:  platform,
		validator: validator,
	}
}

// Register attaches the conflict routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Latency(h.platform, "conflict"))
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Get("/conflicts", h.handleList)
		r.Put("/conflicts/resolve", h.handleResolve)
		r.Get("/notifications", h.handleNotifications)
		r.Post("/notifications/{id}/read", h.handleMarkRead)
		r.Post("/notifications/read-all", h.handleMarkAllRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.ActorID(ctx)

	var resolved *bool
	if raw := r.URL.Query().Get("resolved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "resolved must be true or false"))
			return
		}
		resolved = &value
	}

	conflicts, err := h.conflicts.List(ctx, callerID, resolved)
	if err != nil {
		h.logger.WarnContext(ctx, "list conflicts failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, conflicts)
}

type resolveRequest struct {
	ConflictID string   `json:"conflict_id"`
	KeepIDs    []string `json:"keep_ids"`
	Notes      string   `json:"notes"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	req, ok := httputil.Decode[resolveRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	conflictID, err := id.ParseConflictID(req.ConflictID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid conflict id"))
		return
	}
	keepIDs := make([]id.EntryID, 0, len(req.KeepIDs))
	for _, raw := range req.KeepIDs {
		entryID, err := id.ParseEntryID(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid entry id: "+raw))
			return
		}
		keepIDs = append(keepIDs, entryID)
	}

	conflict, err := h.conflicts.Resolve(ctx, callerID, service.ResolveInput{
		ConflictID: conflictID,
		KeepIDs:    keepIDs,
		Notes:      req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "resolve conflict failed",
			"request_id", requestID,
			"conflict_id", conflictID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, conflict)
}

func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.ActorID(ctx)

	notifications, err := h.conflicts.Notifications(ctx, callerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list notifications failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.ActorID(ctx)

	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	if err := h.conflicts.MarkRead(ctx, callerID, notificationID); err != nil {
		h.logger.WarnContext(ctx, "mark notification read failed",
			"request_id", requestcontext.RequestID(ctx),
			"notification_id", notificationID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.ActorID(ctx)

	if err := h.conflicts.MarkAllRead(ctx, callerID); err != nil {
		h.logger.ErrorContext(ctx, "mark notifications read failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
