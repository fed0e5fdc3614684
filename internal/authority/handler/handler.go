// Package handler exposes system bootstrap and the singleton authority
// records over HTTP. Bootstrap is gated by an admin token instead of the
// caller JWT: it runs before any executor authority exists.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prophecy/internal/authority/models"
	mintmodels "prophecy/internal/mint/models"
	"prophecy/internal/platform/metrics"
	"prophecy/internal/platform/middleware"
	"prophecy/internal/transport/http/shared"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
	"prophecy/pkg/secrets"
)

// Service defines the interface for authority operations.
type Service interface {
	InitializeExecutor(ctx context.Context, authority id.Identity) (*models.AgentExecutor, error)
	InitializePool(ctx context.Context, authority id.Identity) (*models.InsightPool, error)
	GetExecutor(ctx context.Context) (*models.AgentExecutor, error)
	GetPool(ctx context.Context) (*models.InsightPool, error)
}

// Minter creates the mint config singleton. Bootstrap owns it because proof
// record minting needs the config before the first market resolves.
type Minter interface {
	Initialize(ctx context.Context, authority id.Identity) (*mintmodels.MinterConfig, error)
}

// BootstrapRequest creates both singleton records with the given authority.
type BootstrapRequest struct {
	Authority string `json:"authority"`
}

// ExecutorResponse is the wire shape of the executor record.
type ExecutorResponse struct {
	Address         string    `json:"address"`
	Authority       string    `json:"authority"`
	MarketsResolved uint64    `json:"markets_resolved"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PoolResponse is the wire shape of the pool record. TotalCredits is a
// decimal string.
type PoolResponse struct {
	Address            string    `json:"address"`
	Authority          string    `json:"authority"`
	TotalCredits       string    `json:"total_credits"`
	DistributionsCount uint64    `json:"distributions_count"`
	LastDistribution   time.Time `json:"last_distribution"`
	CreatedAt          time.Time `json:"created_at"`
}

// BootstrapResponse reports both created records.
type BootstrapResponse struct {
	Executor ExecutorResponse `json:"executor"`
	Pool     PoolResponse     `json:"pool"`
}

func toExecutorResponse(e *models.AgentExecutor) ExecutorResponse {
	return ExecutorResponse{
		Address:         e.Address.String(),
		Authority:       e.Authority.String(),
		MarketsResolved: e.MarketsResolved,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func toPoolResponse(p *models.InsightPool) PoolResponse {
	return PoolResponse{
		Address:            p.Address.String(),
		Authority:          p.Authority.String(),
		TotalCredits:       p.TotalCredits.String(),
		DistributionsCount: p.DistributionsCount,
		LastDistribution:   p.LastDistribution,
		CreatedAt:          p.CreatedAt,
	}
}

// Handler handles system endpoints.
type Handler struct {
	logger         *slog.Logger
	authority      Service
	minter         Minter
	metrics        *metrics.Metrics
	adminTokenHash string
}

// New creates an authority Handler. adminTokenHash is the bcrypt hash of the
// bootstrap admin token; when empty, bootstrap is disabled.
func New(authority Service, minter Minter, logger *slog.Logger, m *metrics.Metrics, adminTokenHash string) *Handler {
	return &Handler{
		logger:         logger,
		authority:      authority,
		minter:         minter,
		metrics:        m,
		adminTokenHash: adminTokenHash,
	}
}

// Register registers the system routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Recovery(h.logger))
		gr.Use(middleware.RequestID)
		gr.Use(middleware.Logger(h.logger))
		gr.Use(middleware.Timeout(30 * time.Second))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.Latency(h.metrics))

		gr.Post("/system/bootstrap", h.handleBootstrap)
		gr.Get("/system/executor", h.handleGetExecutor)
		gr.Get("/system/pool", h.handleGetPool)
	})
}

// handleBootstrap creates the executor, pool, and minter config singletons.
// Creating the executor first means a failure part-way leaves a retriable
// half-state that the conflict-tolerant retry below completes.
func (h *Handler) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.requireAdminToken(r); err != nil {
		h.logger.WarnContext(ctx, "bootstrap rejected",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	var req BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	authority, err := id.ParseIdentity(req.Authority)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	created := false
	executor, err := h.authority.InitializeExecutor(ctx, authority)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			shared.WriteError(w, err)
			return
		}
		executor, err = h.authority.GetExecutor(ctx)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
	} else {
		created = true
	}
	pool, err := h.authority.InitializePool(ctx, authority)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			shared.WriteError(w, err)
			return
		}
		pool, err = h.authority.GetPool(ctx)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
	} else {
		created = true
	}
	if _, err := h.minter.Initialize(ctx, authority); err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			shared.WriteError(w, err)
			return
		}
	} else {
		created = true
	}
	if !created {
		shared.WriteError(w, dErrors.New(dErrors.CodeConflict, "system already bootstrapped"))
		return
	}

	shared.WriteJSON(w, http.StatusCreated, BootstrapResponse{
		Executor: toExecutorResponse(executor),
		Pool:     toPoolResponse(pool),
	})
}

func (h *Handler) handleGetExecutor(w http.ResponseWriter, r *http.Request) {
	executor, err := h.authority.GetExecutor(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toExecutorResponse(executor))
}

func (h *Handler) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.authority.GetPool(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPoolResponse(pool))
}

func (h *Handler) requireAdminToken(r *http.Request) error {
	if h.adminTokenHash == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "bootstrap is disabled")
	}
	token := r.Header.Get("X-Admin-Token")
	if token == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "admin token is required")
	}
	if err := secrets.Verify(token, h.adminTokenHash); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid admin token")
	}
	return nil
}
