// Package handler exposes the audit trail to reviewers.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"realtyvest/internal/audit"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
	"realtyvest/pkg/platform/httputil"
	"realtyvest/pkg/requestcontext"
)

// Reader lists recorded audit events for a user, oldest first.
type Reader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
}

type Handler struct {
	logger *slog.Logger
	events Reader
}

func New(events Reader, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, events: events}
}

// RegisterAdmin registers the audit trail route. The caller mounts it behind
// the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/verification/{user_id}/audit", h.handleList)
}

type eventsResponse struct {
	Events []audit.Event `json:"events"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := id.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.events.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"user_id", userID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, eventsResponse{Events: events})
}
