// Package handler exposes the minting subsystem over HTTP: proof record
// reads, minter status and authority rotation.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prophecy/internal/mint/models"
	"prophecy/internal/platform/metrics"
	"prophecy/internal/platform/middleware"
	"prophecy/internal/transport/http/shared"
	id "prophecy/pkg/domain"
	dErrors "prophecy/pkg/domain-errors"
)

// Service defines the interface for minting operations.
type Service interface {
	UpdateAuthority(ctx context.Context, newAuthority id.Identity) (*models.MinterConfig, error)
	GetConfig(ctx context.Context) (*models.MinterConfig, error)
	GetRecord(ctx context.Context, marketID id.MarketID) (*models.ProofRecord, error)
	ListRecords(ctx context.Context) ([]*models.ProofRecord, error)
}

// UpdateAuthorityRequest rotates the minter authority.
type UpdateAuthorityRequest struct {
	NewAuthority string `json:"new_authority"`
}

// ConfigResponse is the wire shape of the minter configuration.
type ConfigResponse struct {
	Address    string    `json:"address"`
	Authority  string    `json:"authority"`
	MintsCount uint64    `json:"mints_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecordResponse is the wire shape of a proof record.
type RecordResponse struct {
	Address        string    `json:"address"`
	Market         string    `json:"market"`
	MarketID       string    `json:"market_id"`
	Outcome        uint8     `json:"outcome"`
	TranscriptHash string    `json:"transcript_hash"`
	MetadataURI    string    `json:"metadata_uri"`
	MintedAt       time.Time `json:"minted_at"`
}

func toConfigResponse(c *models.MinterConfig) ConfigResponse {
	return ConfigResponse{
		Address:    c.Address.String(),
		Authority:  c.Authority.String(),
		MintsCount: c.MintsCount,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toRecordResponse(r *models.ProofRecord) RecordResponse {
	return RecordResponse{
		Address:        r.Address.String(),
		Market:         r.Market.String(),
		MarketID:       r.MarketID.String(),
		Outcome:        r.Outcome,
		TranscriptHash: r.TranscriptHash,
		MetadataURI:    r.MetadataURI,
		MintedAt:       r.MintedAt,
	}
}

// Handler handles minting endpoints.
type Handler struct {
	logger       *slog.Logger
	mint         Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a mint Handler.
func New(mint Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		mint:         mint,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register registers the minting routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Recovery(h.logger))
		gr.Use(middleware.RequestID)
		gr.Use(middleware.Logger(h.logger))
		gr.Use(middleware.Timeout(30 * time.Second))
		gr.Use(middleware.ContentTypeJSON)
		gr.Use(middleware.Latency(h.metrics))
		gr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		gr.Get("/minter", h.handleGetConfig)
		gr.Post("/minter/authority", h.handleUpdateAuthority)
		gr.Get("/proof-records", h.handleListRecords)
		gr.Get("/proof-records/{marketID}", h.handleGetRecord)
	})
}

func (h *Handler) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := h.mint.GetConfig(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toConfigResponse(config))
}

func (h *Handler) handleUpdateAuthority(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req UpdateAuthorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	newAuthority, err := id.ParseIdentity(req.NewAuthority)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	config, err := h.mint.UpdateAuthority(ctx, newAuthority)
	if err != nil {
		h.logger.WarnContext(ctx, "minter authority rotation failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toConfigResponse(config))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	marketID, err := id.ParseMarketID(chi.URLParam(r, "marketID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.mint.GetRecord(r.Context(), marketID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.mint.ListRecords(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toRecordResponse(record))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
