// Package handler exposes vault operations over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prophecy/internal/platform/metrics"
	"prophecy/internal/platform/middleware"
	"prophecy/internal/transport/http/shared"
	"prophecy/internal/vault/models"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/requestcontext"
)

// Service defines the interface for vault operations.
type Service interface {
	Initialize(ctx context.Context, owner id.Identity) (*models.ReputationVault, error)
	Earn(ctx context.Context, owner id.Identity, amount id.Cred, method models.EarnMethod) (*models.ReputationVault, error)
	Get(ctx context.Context, owner id.Identity) (*models.ReputationVault, error)
}

// EarnRequest credits Cred to a vault. Executor authority only. Amount is a
// decimal string, e.g. "5.000000".
type EarnRequest struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
}

// VaultResponse is the wire shape of a vault record. Cred totals are decimal
// strings.
type VaultResponse struct {
	Address            string    `json:"address"`
	Owner              string    `json:"owner"`
	CredBalance        string    `json:"cred_balance"`
	TotalEarned        string    `json:"total_earned"`
	TotalStaked        string    `json:"total_staked"`
	ParticipationCount uint64    `json:"participation_count"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func toVaultResponse(v *models.ReputationVault) VaultResponse {
	return VaultResponse{
		Address:            v.Address.String(),
		Owner:              v.Owner.String(),
		CredBalance:        v.CredBalance.String(),
		TotalEarned:        v.TotalEarned.String(),
		TotalStaked:        v.TotalStaked.String(),
		ParticipationCount: v.ParticipationCount,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}

// Handler handles vault endpoints.
type Handler struct {
	logger       *slog.Logger
	vaults       Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a vault Handler.
func New(vaults Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		vaults:       vaults,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the vault routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Recovery(h.logger))
		gr.Use(middleware.RequestID)
		gr.Use(middleware.Logger(h.logger))
		gr.Use(middleware.Timeout(30 * time.Second))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.Latency(h.metrics))
		gr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		gr.Post("/vaults", h.handleInitialize)
		gr.Get("/vaults/{owner}", h.handleGet)
		gr.Post("/vaults/{owner}/earn", h.handleEarn)
	})
}

// handleInitialize creates the caller's own vault with the initial grant.
func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.CallerID(ctx)
	if caller.IsZero() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required"))
		return
	}
	vault, err := h.vaults.Initialize(ctx, caller)
	if err != nil {
		h.logger.WarnContext(ctx, "vault initialization failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toVaultResponse(vault))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, err := id.ParseIdentity(chi.URLParam(r, "owner"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	vault, err := h.vaults.Get(r.Context(), owner)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVaultResponse(vault))
}

func (h *Handler) handleEarn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseIdentity(chi.URLParam(r, "owner"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req EarnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := id.ParseCred(req.Amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	vault, err := h.vaults.Earn(ctx, owner, amount, models.EarnMethod(req.Method))
	if err != nil {
		h.logger.WarnContext(ctx, "earn failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toVaultResponse(vault))
}
