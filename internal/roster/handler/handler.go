// Package handler exposes the actor and member endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	platformMetrics "canvass/internal/platform/metrics"
	"canvass/internal/platform/middleware"
	"canvass/internal/roster/models"
	"canvass/internal/roster/service"
	id "canvass/pkg/domain"
	dErrors "canvass/pkg/domain-errors"
	"canvass/pkg/platform/httputil"
	"canvass/pkg/requestcontext"
)

// Service defines the roster operations the handler needs.
type Service interface {
	CreateActor(ctx context.Context, callerID id.ActorID, input service.CreateActorInput) (*models.Actor, error)
	ListActors(ctx context.Context, callerID id.ActorID) ([]*models.Actor, error)
	CreateMember(ctx context.Context, callerID id.ActorID, input service.CreateMemberInput) (*models.Member, error)
	ListMembers(ctx context.Context) ([]*models.Member, error)
}

// Handler handles roster endpoints.
type Handler struct {
	logger    *slog.Logger
	roster    Service
	platform  *platformMetrics.Metrics
	validator middleware.Validator
}

// New creates a roster Handler.
func New(
	roster Service,
	logger *slog.Logger,
	platform *platformMetrics.Metrics,
	validator middleware.Validator) *Handler {
	return &Handler{
		logger:    logger,
		roster:    roster,
		platform:  platform,
		validator: validator,
	}
}

// Register attaches the roster routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Latency(h.platform, "roster"))
		r.Use(middleware.RequireAuth(h.validator, h.logger))
		r.Post("/actors", h.handleCreateActor)
		r.Get("/actors", h.handleListActors)
		r.Post("/members", h.handleCreateMember)
		r.Get("/members", h.handleListMembers)
	})
}

type createActorRequest struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	SupervisorID string `json:"supervisor_id,omitempty"`
}

func (h *Handler) handleCreateActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	req, ok := httputil.Decode[createActorRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	role, err := id.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid role"))
		return
	}
	input := service.CreateActorInput{Name: req.Name, Role: role}
	if req.SupervisorID != "" {
		supervisorID, err := id.ParseActorID(req.SupervisorID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid supervisor id"))
			return
		}
		input.SupervisorID = &supervisorID
	}

	actor, err := h.roster.CreateActor(ctx, callerID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create actor failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, actor)
}

func (h *Handler) handleListActors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callerID := requestcontext.ActorID(ctx)

	actors, err := h.roster.ListActors(ctx, callerID)
	if err != nil {
		h.logger.WarnContext(ctx, "list actors failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, actors)
}

type createMemberRequest struct {
	DisplayName  string `json:"display_name"`
	MemberNumber string `json:"member_number"`
}

func (h *Handler) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	callerID := requestcontext.ActorID(ctx)

	req, ok := httputil.Decode[createMemberRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}
	member, err := h.roster.CreateMember(ctx, callerID, service.CreateMemberInput{
		DisplayName:  req.DisplayName,
		MemberNumber: req.MemberNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create member failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	members, err := h.roster.ListMembers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list members failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}
