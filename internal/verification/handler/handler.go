package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"realtyvest/internal/verification/models"
	"realtyvest/internal/verification/service"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
	"realtyvest/pkg/platform/httputil"
	"realtyvest/pkg/requestcontext"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 1 << 20

// Service defines the verification operations exposed over HTTP.
type Service interface {
	Get(ctx context.Context, userID id.UserID) (*service.View, error)
	SelectDocumentType(ctx context.Context, userID id.UserID, documentType string) (*service.View, error)
	UploadDocument(ctx context.Context, userID id.UserID, field models.DocumentField, up service.Upload) (*service.View, error)
	UpdatePersonalInfo(ctx context.Context, userID id.UserID, fields map[models.PersonalField]string) (*service.View, error)
	Next(ctx context.Context, userID id.UserID) (*service.View, error)
	Previous(ctx context.Context, userID id.UserID) (*service.View, error)
	Submit(ctx context.Context, userID id.UserID) (*service.SubmitOutcome, error)
	Skip(ctx context.Context, userID id.UserID) (*service.View, error)
	Reset(ctx context.Context, userID id.UserID) (*service.View, error)
	Approve(ctx context.Context, userID id.UserID) (*service.View, error)
	Reject(ctx context.Context, userID id.UserID, reason string) (*service.View, error)
	SetStatus(ctx context.Context, userID id.UserID, status string) (*service.View, error)
	ReviewQueue(ctx context.Context, statuses []models.Status) ([]service.ReviewItem, error)
}

// Handler serves the verification endpoints.
type Handler struct {
	logger         *slog.Logger
	verification   Service
	validate       *validator.Validate
	maxUploadBytes int64
}

// New creates a verification Handler. Upload bodies larger than twice
// maxUploadBytes are refused before parsing.
func New(verification Service, logger *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		logger:         logger,
		verification:   verification,
		validate:       newValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register registers the user routes. The caller mounts them behind
// authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verification", h.handleGet)
	r.Put("/verification/document-type", h.handleSelectDocumentType)
	r.Post("/verification/uploads/{field}", h.handleUpload)
	r.Patch("/verification/personal-info", h.handleUpdatePersonalInfo)
	r.Post("/verification/wizard/next", h.handleNext)
	r.Post("/verification/wizard/previous", h.handlePrevious)
	r.Post("/verification/submit", h.handleSubmit)
	r.Post("/verification/skip", h.handleSkip)
	r.Post("/verification/reset", h.handleReset)
}

// RegisterAdmin registers the reviewer routes. The caller mounts them behind
// the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/verification", h.handleReviewQueue)
	r.Post("/admin/verification/{user_id}/approve", h.handleApprove)
	r.Post("/admin/verification/{user_id}/reject", h.handleReject)
	r.Put("/admin/verification/{user_id}/status", h.handleSetStatus)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, "get verification", h.verification.Get)
}

func (h *Handler) handleSelectDocumentType(w http.ResponseWriter, r *http.Request) {
	var req selectDocumentTypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.withUser(w, r, "select document type", func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.verification.SelectDocumentType(ctx, userID, req.DocumentType)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	field := models.DocumentField(chi.URLParam(r, "field"))

	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(ctx, w, "upload", dErrors.New(dErrors.CodeBadRequest, "upload exceeds the request size limit"))
			return
		}
		h.writeError(ctx, w, "upload", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(ctx, w, "upload", dErrors.Wrap(err, dErrors.CodeBadRequest, "missing file part"))
		return
	}
	defer file.Close()

	up := service.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if up.Size <= h.maxUploadBytes {
		up.Content, err = io.ReadAll(file)
		if err != nil {
			h.writeError(ctx, w, "upload", dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload"))
			return
		}
	}

	h.withUser(w, r, "upload", func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.verification.UploadDocument(ctx, userID, field, up)
	})
}

func (h *Handler) handleUpdatePersonalInfo(w http.ResponseWriter, r *http.Request) {
	var req personalInfoRequest
	if !h.decode(w, r, &req) {
		return
	}
	fields := req.fields()
	if len(fields) == 0 {
		h.writeError(r.Context(), w, "update personal info", dErrors.New(dErrors.CodeBadRequest, "no personal info fields provided"))
		return
	}
	h.withUser(w, r, "update personal info", func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.verification.UpdatePersonalInfo(ctx, userID, fields)
	})
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, "wizard next", h.verification.Next)
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, "wizard previous", h.verification.Previous)
}

// handleSubmit blocks until the external check finishes. A failed check is
// reported with 200 and success=false.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	outcome, err := h.verification.Submit(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, "submit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, submitResponse{
		Success:      outcome.Success,
		Error:        outcome.Error,
		Verification: toVerificationResponse(outcome.View),
	})
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, "skip", h.verification.Skip)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, "reset", h.verification.Reset)
}

func (h *Handler) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var statuses []models.Status
	for _, raw := range r.URL.Query()["status"] {
		for part := range strings.SplitSeq(raw, ",") {
			status, err := models.ParseStatus(strings.TrimSpace(part))
			if err != nil {
				h.writeError(ctx, w, "review queue", err)
				return
			}
			statuses = append(statuses, status)
		}
	}
	items, err := h.verification.ReviewQueue(ctx, statuses)
	if err != nil {
		h.writeError(ctx, w, "review queue", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReviewQueueResponse(items))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.withSubject(w, r, "approve", h.verification.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.withSubject(w, r, "reject", func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.verification.Reject(ctx, userID, req.Reason)
	})
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.withSubject(w, r, "set status", func(ctx context.Context, userID id.UserID) (*service.View, error) {
		return h.verification.SetStatus(ctx, userID, req.Status)
	})
}

type viewFunc func(ctx context.Context, userID id.UserID) (*service.View, error)

// withUser runs fn for the authenticated user and writes the resulting view.
func (h *Handler) withUser(w http.ResponseWriter, r *http.Request, op string, fn viewFunc) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, op, userID, fn)
}

// withSubject runs fn for the user named in the path.
func (h *Handler) withSubject(w http.ResponseWriter, r *http.Request, op string, fn viewFunc) {
	userID, err := id.ParseUserID(chi.URLParam(r, "user_id"))
	if err != nil {
		h.writeError(r.Context(), w, op, err)
		return
	}
	h.respond(w, r, op, userID, fn)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op string, userID id.UserID, fn viewFunc) {
	ctx := r.Context()
	view, err := fn(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, op, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(view))
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		// RequireAuth always sets the user; reaching here is a wiring bug.
		h.logger.ErrorContext(ctx, "userID missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.writeError(ctx, w, "decode request", err)
		return false
	}
	if err := h.validate.StructCtx(ctx, dst); err != nil {
		h.writeError(ctx, w, "validate request", validationError(err))
		return false
	}
	return true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "verification request failed",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, "verification request rejected",
			"op", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
