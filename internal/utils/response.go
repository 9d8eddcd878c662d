package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ms-campus/internal/models"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Fields    []string    `json:"fields,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeConflict        = "conflict"
	CodeInvalidInput    = "invalid_input"
	CodeInvalidBody     = "invalid_request_body"
	CodeValidation      = "validation_failed"
	CodeUnauthorized    = "unauthorized"
	CodeInternalError   = "internal_error"
	CodeServiceDisabled = "service_disabled"
)

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload, err := json.Marshal(body)
	if err != nil {
		_, _ = w.Write([]byte(`{"success":false,"message":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, SuccessResponse(message, data))
}

// WriteErrorCode writes an error body with an explicit status and code.
func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse(message, http.StatusText(status))
	resp.Code = code
	WriteJSON(w, status, resp)
}

// StatusForError maps a domain error to an HTTP status and machine code.
// Unknown errors are internal.
func StatusForError(err error) (int, string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidInput
	default:
		return http.StatusInternalServerError, CodeInternalError
	}
}

// WriteError writes err using StatusForError. Internal errors never leak
// their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	status, code := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	resp := ErrorResponse(message, http.StatusText(status))
	resp.Code = code
	var verr *ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	WriteJSON(w, status, resp)
}
