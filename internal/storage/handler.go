package storage

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/middleware"
	"github.com/boxdrop/service/internal/response"
)

// Handler serves provider account endpoints for the signed-in owner.
type Handler struct {
	connector Connector
	provider  string
	log       *zap.Logger
}

// NewHandler creates a new storage Handler.
func NewHandler(connector Connector, provider string, log *zap.Logger) *Handler {
	return &Handler{connector: connector, provider: provider, log: log}
}

// Profile godoc
//
//	@Summary		Get provider profile
//	@Description	Returns the storage-provider account the owner connected.
//	@Tags			provider
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Profile}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/provider/profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	fs := h.connector.Open(Session{OwnerID: ownerID, Provider: h.provider})
	profile, err := fs.Profile(r.Context())
	if err != nil {
		WriteError(w, h.log, err)
		return
	}
	response.OK(w, profile)
}

// WriteError maps a provider failure to its HTTP response: 403 when the
// owner must reconnect, 502 otherwise.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, ErrOwnerDisconnected) {
		response.Forbidden(w, "owner is not connected to storage")
		return
	}
	log.Warn("provider call failed", zap.Error(err))
	response.BadGateway(w)
}
