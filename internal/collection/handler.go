package collection

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/middleware"
	"github.com/boxdrop/service/internal/response"
	"github.com/boxdrop/service/internal/storage"
)

// Handler holds HTTP handlers for owner collection endpoints.
type Handler struct {
	svc *Service
	log *zap.Logger
}

// NewHandler creates a new collection Handler.
func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type createRequest struct {
	Name string `json:"name" example:"Anna & Tom, June 2026"`
}

// Create godoc
//
//	@Summary		Create collection
//	@Description	Creates a folder in the owner's storage account and a short public upload link for it.
//	@Tags			collections
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createRequest	true	"Collection name"
//	@Success		201		{object}	response.Envelope{data=View}
//	@Failure		400		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/collections [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	c, err := h.svc.Create(r.Context(), ownerID, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, h.svc.View(*c))
}

// List godoc
//
//	@Summary		List collections
//	@Tags			collections
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]View}
//	@Failure		401	{object}	response.Envelope
//	@Router			/collections [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	list, err := h.svc.List(r.Context(), ownerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	views := make([]View, 0, len(list))
	for _, c := range list {
		views = append(views, h.svc.View(c))
	}
	response.OK(w, views)
}

// Get godoc
//
//	@Summary		Get collection
//	@Tags			collections
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Collection ID"
//	@Success		200	{object}	response.Envelope{data=View}
//	@Failure		404	{object}	response.Envelope
//	@Router			/collections/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	c, err := h.svc.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, h.svc.View(*c))
}

// Delete godoc
//
//	@Summary		Delete collection
//	@Description	Deletes the collection and its link. The folder stays in the owner's account unless purge=true.
//	@Tags			collections
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string	true	"Collection ID"
//	@Param			purge	query		bool	false	"Also delete the provider folder"
//	@Success		200		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/collections/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	purge := r.URL.Query().Get("purge") == "true"
	if err := h.svc.Delete(r.Context(), ownerID, chi.URLParam(r, "id"), purge); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]bool{"deleted": true})
}

// Files godoc
//
//	@Summary		List collection files
//	@Tags			collections
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Collection ID"
//	@Success		200	{object}	response.Envelope{data=[]storage.File}
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		502	{object}	response.Envelope
//	@Router			/collections/{id}/files [get]
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	files, err := h.svc.Files(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, files)
}

// FileContent godoc
//
//	@Summary		Download collection file
//	@Description	Streams one file of the collection's folder from the storage provider.
//	@Tags			collections
//	@Produce		octet-stream
//	@Security		BearerAuth
//	@Param			id		path		string	true	"Collection ID"
//	@Param			fileId	path		string	true	"Provider file ID"
//	@Success		200		{file}		binary
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Router			/collections/{id}/files/{fileId}/content [get]
func (h *Handler) FileContent(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	content, err := h.svc.FileContent(r.Context(), ownerID, chi.URLParam(r, "id"), chi.URLParam(r, "fileId"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	if content.ContentType != "" {
		w.Header().Set("Content-Type", content.ContentType)
	}
	if content.File.Name != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": content.File.Name}))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content.Data); err != nil {
		h.log.Debug("file download interrupted", zap.String("file_id", content.File.ID), zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var upstream *storage.UpstreamError
	switch {
	case errors.Is(err, ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "collection not found")
	case errors.Is(err, ErrAllocationExhausted):
		response.Conflict(w, "could not allocate a link, try again")
	case errors.Is(err, storage.ErrOwnerDisconnected), errors.As(err, &upstream):
		storage.WriteError(w, h.log, err)
	default:
		h.log.Error("collection request failed", zap.Error(err))
		response.InternalError(w)
	}
}
