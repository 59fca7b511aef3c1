package credential

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/middleware"
	"github.com/boxdrop/service/internal/response"
)

// Handler holds HTTP handlers for provider connection endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new credential Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type connectRequest struct {
	AccessToken  string     `json:"accessToken"  example:"ya29.a0Af..."`
	RefreshToken string     `json:"refreshToken" example:"1//0g..."`
	ExpiresIn    int64      `json:"expiresIn"    example:"3599"`
	ExpiresAt    *time.Time `json:"expiresAt"    example:"2026-02-27T15:48:34Z"`
}

type connectData struct {
	Provider  string     `json:"provider"  example:"google"`
	ExpiresAt *time.Time `json:"expiresAt" example:"2026-02-27T15:48:34Z"`
}

// Connect godoc
//
//	@Summary		Connect storage provider
//	@Description	Store the provider token obtained at login. expiresIn (seconds) takes precedence over expiresAt.
//	@Tags			provider
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		connectRequest	true	"Provider tokens"
//	@Success		200		{object}	response.Envelope{data=connectData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/provider/connect [post]
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.ExpiresIn < 0 {
		response.BadRequest(w, "expiresIn must not be negative")
		return
	}

	in := ConnectInput{AccessToken: req.AccessToken, RefreshToken: req.RefreshToken, ExpiresAt: req.ExpiresAt}
	if req.ExpiresIn > 0 {
		at := time.Now().UTC().Add(time.Duration(req.ExpiresIn) * time.Second)
		in.ExpiresAt = &at
	}

	err := h.svc.Connect(r.Context(), ownerID, in)
	if errors.Is(err, ErrInvalid) {
		response.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		h.log.Error("store provider credential", zap.String("owner_id", ownerID), zap.Error(err))
		response.InternalError(w)
		return
	}

	response.OK(w, connectData{Provider: h.svc.Provider(), ExpiresAt: in.ExpiresAt})
}

// Disconnect godoc
//
//	@Summary		Disconnect storage provider
//	@Tags			provider
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/provider/connect [delete]
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}
	if err := h.svc.Disconnect(r.Context(), ownerID); err != nil {
		h.log.Error("delete provider credential", zap.String("owner_id", ownerID), zap.Error(err))
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]bool{"disconnected": true})
}

// Token godoc
//
//	@Summary		Get a valid provider access token
//	@Description	Returns an access token with at least the configured safety margin left, refreshing and persisting it if needed. 403 means no credential is stored.
//	@Tags			provider
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Token}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/provider/token [get]
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	tok, err := h.svc.ValidToken(r.Context(), ownerID)
	switch {
	case err == nil:
		response.OK(w, tok)
	case errors.Is(err, ErrNotConnected):
		response.Forbidden(w, "owner is not connected to storage")
	default:
		h.log.Warn("provider token unavailable", zap.String("owner_id", ownerID), zap.Error(err))
		response.BadGateway(w)
	}
}
