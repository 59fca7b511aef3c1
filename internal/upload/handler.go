package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/collection"
	"github.com/boxdrop/service/internal/response"
	"github.com/boxdrop/service/internal/storage"
)

// multipartMemory is kept in memory while parsing; larger parts spill to
// temporary files.
const multipartMemory = 32 << 20

// Limits bound a single public upload request.
type Limits struct {
	MaxFileBytes int64
	MaxFiles     int
}

// Handler holds the public upload endpoints.
type Handler struct {
	gateway *Gateway
	limits  Limits
	log     *zap.Logger
}

// NewHandler creates a new upload Handler.
func NewHandler(gateway *Gateway, limits Limits, log *zap.Logger) *Handler {
	return &Handler{gateway: gateway, limits: limits, log: log}
}

// Resolve godoc
//
//	@Summary		Resolve upload link
//	@Description	Returns the name, expiry and item count of the collection behind a link code.
//	@Tags			public
//	@Produce		json
//	@Param			code			path		string	true	"Link code"
//	@Param			X-Upload-Secret	header		string	false	"Upload gate secret"
//	@Success		200				{object}	response.Envelope{data=Box}
//	@Failure		400				{object}	response.Envelope
//	@Failure		401				{object}	response.Envelope
//	@Failure		404				{object}	response.Envelope
//	@Failure		410				{object}	response.Envelope
//	@Router			/public/boxes/{code} [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	box, err := h.gateway.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, box)
}

// Upload godoc
//
//	@Summary		Upload photos
//	@Description	Stores image files in the collection behind the link code. Responds 200 with per-file results when at least one file was stored, 502 with the results when every file failed upstream.
//	@Tags			public
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			code			path		string	true	"Link code"
//	@Param			files			formData	file	true	"Image files"
//	@Param			X-Upload-Secret	header		string	false	"Upload gate secret"
//	@Success		200				{object}	response.Envelope{data=Outcome}
//	@Failure		400				{object}	response.Envelope
//	@Failure		401				{object}	response.Envelope
//	@Failure		403				{object}	response.Envelope
//	@Failure		404				{object}	response.Envelope
//	@Failure		410				{object}	response.Envelope
//	@Failure		413				{object}	response.Envelope
//	@Failure		502				{object}	response.Envelope{data=Outcome}
//	@Router			/public/boxes/{code}/files [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxFileBytes*int64(h.limits.MaxFiles)+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		response.BadRequest(w, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		response.BadRequest(w, "no files submitted")
		return
	}
	if len(headers) > h.limits.MaxFiles {
		response.BadRequest(w, fmt.Sprintf("at most %d files per request", h.limits.MaxFiles))
		return
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > h.limits.MaxFileBytes {
			response.Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("%q is larger than %d bytes", fh.Filename, h.limits.MaxFileBytes))
			return
		}
		data, err := readPart(fh, h.limits.MaxFileBytes)
		if err != nil {
			response.BadRequest(w, "could not read uploaded file")
			return
		}
		files = append(files, File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data})
	}

	outcome, err := h.gateway.Upload(r.Context(), chi.URLParam(r, "code"), files, r.RemoteAddr)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if outcome.Completed == 0 {
		response.ErrorWithData(w, http.StatusBadGateway, "storage provider unavailable, try again later", outcome)
		return
	}
	response.OK(w, outcome)
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var upstream *storage.UpstreamError
	switch {
	case errors.Is(err, ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, collection.ErrNotFound):
		response.NotFound(w, "invalid link")
	case errors.Is(err, ErrExpired):
		response.Gone(w, "link has expired")
	case errors.Is(err, storage.ErrOwnerDisconnected), errors.As(err, &upstream):
		storage.WriteError(w, h.log, err)
	default:
		h.log.Error("public upload failed", zap.Error(err))
		response.InternalError(w)
	}
}
