package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"realtyvest/internal/investment/models"
	id "realtyvest/pkg/domain"
	dErrors "realtyvest/pkg/domain-errors"
	"realtyvest/pkg/platform/httputil"
	"realtyvest/pkg/requestcontext"
)

// Service defines the investment operations exposed over HTTP.
type Service interface {
	List(f models.Filter) []models.Property
	Property(ctx context.Context, propertyID string) (models.Property, error)
	Summary(ctx context.Context, propertyID string, amount decimal.Decimal) (models.Summary, error)
	Invest(ctx context.Context, userID id.UserID, propertyID string, amount decimal.Decimal) (models.Investment, error)
	Portfolio(ctx context.Context, userID id.UserID) (models.Portfolio, error)
}

type Handler struct {
	logger     *slog.Logger
	investment Service
	validate   *validator.Validate
}

func New(investment Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		investment: investment,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterPublic registers the catalog routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/properties", h.handleList)
	r.Get("/properties/{id}", h.handleGet)
	r.Get("/properties/{id}/summary", h.handleSummary)
}

// Register registers the routes that need an authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Post("/properties/{id}/investments", h.handleInvest)
	r.Get("/me/investments", h.handlePortfolio)
}

type investRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

type propertiesResponse struct {
	Properties []models.Property `json:"properties"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.Filter{
		Type:     models.PropertyType(q.Get("type")),
		Location: strings.TrimSpace(q.Get("location")),
		Search:   strings.TrimSpace(q.Get("q")),
	}
	var err error
	if f.MinROI, err = optionalDecimal(q.Get("min_roi"), "min_roi"); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	if f.MinPrice, err = optionalDecimal(q.Get("min_price"), "min_price"); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	if f.MaxPrice, err = optionalDecimal(q.Get("max_price"), "max_price"); err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, propertiesResponse{Properties: h.investment.List(f)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.investment.Property(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	amount, err := parseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	summary, err := h.investment.Summary(ctx, chi.URLParam(r, "id"), amount)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleInvest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req investRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		h.writeError(ctx, w, dErrors.WithFields(dErrors.CodeValidation, "invalid request",
			map[string]string{"amount": "must be a decimal number"}))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	inv, err := h.investment.Invest(ctx, requestcontext.UserID(ctx), chi.URLParam(r, "id"), amount)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, inv)
}

func (h *Handler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	portfolio, err := h.investment.Portfolio(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, portfolio)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "investment request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, dErrors.WithFields(dErrors.CodeValidation, "invalid amount",
			map[string]string{"amount": "must be a decimal number"})
	}
	return amount, nil
}

func optionalDecimal(raw, name string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, dErrors.WithFields(dErrors.CodeValidation, "invalid filter",
			map[string]string{name: "must be a decimal number"})
	}
	return &d, nil
}
