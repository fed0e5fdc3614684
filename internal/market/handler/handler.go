// Package handler exposes market operations over HTTP. It stays thin:
// decode, parse value types, delegate to the service, encode.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prophecy/internal/market/models"
	"prophecy/internal/platform/metrics"
	"prophecy/internal/platform/middleware"
	"prophecy/internal/transport/http/shared"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for market operations.
type Service interface {
	Create(ctx context.Context, marketID id.MarketID, claimRef string) (*models.Market, error)
	Stake(ctx context.Context, marketID id.MarketID, amount id.Cred, direction bool) (*models.CredStake, error)
	SubmitEvidence(ctx context.Context, marketID id.MarketID, cid string) (*models.Market, uint8, error)
	Resolve(ctx context.Context, marketID id.MarketID, outcome uint8, transcriptHash string) (*models.Market, error)
	Distribute(ctx context.Context, marketID id.MarketID, user id.Identity, amount id.Cred) (*models.CredStake, error)
	Dispute(ctx context.Context, marketID id.MarketID) (*models.Market, error)
	Get(ctx context.Context, marketID id.MarketID) (*models.Market, error)
	List(ctx context.Context) ([]*models.Market, error)
	GetStake(ctx context.Context, marketID id.MarketID, user id.Identity) (*models.CredStake, error)
	ListStakes(ctx context.Context, marketID id.MarketID) ([]*models.CredStake, error)
}

// Handler handles market endpoints.
type Handler struct {
	logger       *slog.Logger
	markets      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a market Handler.
func New(markets Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		markets:      markets,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the market routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Recovery(h.logger))
		gr.Use(middleware.RequestID)
		gr.Use(middleware.Logger(h.logger))
		gr.Use(middleware.Timeout(30 * time.Second))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.Latency(h.metrics))
		gr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		gr.Post("/markets", h.handleCreate)
		gr.Get("/markets", h.handleList)
		gr.Get("/markets/{marketID}", h.handleGet)
		gr.Post("/markets/{marketID}/stakes", h.handleStake)
		gr.Get("/markets/{marketID}/stakes", h.handleListStakes)
		gr.Get("/markets/{marketID}/stakes/{user}", h.handleGetStake)
		gr.Post("/markets/{marketID}/evidence", h.handleSubmitEvidence)
		gr.Post("/markets/{marketID}/resolve", h.handleResolve)
		gr.Post("/markets/{marketID}/distributions", h.handleDistribute)
		gr.Post("/markets/{marketID}/dispute", h.handleDispute)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	marketID, err := id.ParseMarketID(req.MarketID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	market, err := h.markets.Create(ctx, marketID, req.ClaimRef)
	if err != nil {
		h.logError(ctx, "create market failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toMarketResponse(market))
}

func (h *Handler) handleStake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := id.ParseCred(req.Amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	stake, err := h.markets.Stake(ctx, marketID, amount, req.Direction)
	if err != nil {
		h.logError(ctx, "stake failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toStakeResponse(stake))
}

func (h *Handler) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req SubmitEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	market, index, err := h.markets.SubmitEvidence(ctx, marketID, req.CID)
	if err != nil {
		h.logError(ctx, "submit evidence failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, EvidenceResponse{
		Market: toMarketResponse(market),
		Index:  index,
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	market, err := h.markets.Resolve(ctx, marketID, req.Outcome, req.TranscriptHash)
	if err != nil {
		h.logError(ctx, "resolve failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toMarketResponse(market))
}

func (h *Handler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	user, err := id.ParseIdentity(req.User)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	amount, err := id.ParseCred(req.Amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	stake, err := h.markets.Distribute(ctx, marketID, user, amount)
	if err != nil {
		h.logError(ctx, "distribute failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toStakeResponse(stake))
}

func (h *Handler) handleDispute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	market, err := h.markets.Dispute(ctx, marketID)
	if err != nil {
		h.logError(ctx, "dispute failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toMarketResponse(market))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	market, err := h.markets.Get(r.Context(), marketID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toMarketResponse(market))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	markets, err := h.markets.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]MarketResponse, 0, len(markets))
	for _, m := range markets {
		out = append(out, toMarketResponse(m))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetStake(w http.ResponseWriter, r *http.Request) {
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	user, err := id.ParseIdentity(chi.URLParam(r, "user"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	stake, err := h.markets.GetStake(r.Context(), marketID, user)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toStakeResponse(stake))
}

func (h *Handler) handleListStakes(w http.ResponseWriter, r *http.Request) {
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	stakes, err := h.markets.ListStakes(r.Context(), marketID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]StakeResponse, 0, len(stakes))
	for _, s := range stakes {
		out = append(out, toStakeResponse(s))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		return
	}
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}
