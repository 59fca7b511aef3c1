// Package response writes the JSON envelope every endpoint answers with.
// Raw file downloads are the only responses that bypass it.
package response

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps every JSON body. Data is set on success and, for partial
// failures, alongside Error.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Messages shared by several handlers.
const (
	msgInternal   = "internal server error"
	msgBadGateway = "storage provider unavailable, try again later"
)

// JSON encodes payload as the body of a status response.
func JSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Error answers status with a failed envelope; message is shown to clients
// as is, so it must not carry internal detail.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Error: message})
}

// ErrorWithData is Error for requests that partly succeeded, such as an
// upload batch in which every file failed upstream.
func ErrorWithData(w http.ResponseWriter, status int, message string, data interface{}) {
	JSON(w, status, Envelope{Error: message, Data: data})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// Gone marks a link whose collection has expired.
func Gone(w http.ResponseWriter, message string) {
	Error(w, http.StatusGone, message)
}

// BadGateway reports a storage provider failure without its detail.
func BadGateway(w http.ResponseWriter) {
	Error(w, http.StatusBadGateway, msgBadGateway)
}

// InternalError hides the cause; callers log it first.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, msgInternal)
}
