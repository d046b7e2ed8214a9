package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/promptree/pkg/errors"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

var statusByCode = map[errors.Code]int{
	errors.ErrCodeInvalidInput:    http.StatusBadRequest,
	errors.ErrCodeInvalidFormat:   http.StatusBadRequest,
	errors.ErrCodeImportParse:     http.StatusBadRequest,
	errors.ErrCodeDanglingEdge:    http.StatusBadRequest,
	errors.ErrCodeNotFound:        http.StatusNotFound,
	errors.ErrCodeFileNotFound:    http.StatusNotFound,
	errors.ErrCodeDuplicateID:     http.StatusConflict,
	errors.ErrCodeTooLarge:        http.StatusRequestEntityTooLarge,
	errors.ErrCodeUnauthorized:    http.StatusUnauthorized,
	errors.ErrCodeUnsupported:     http.StatusNotImplemented,
	errors.ErrCodeGenerationBatch: http.StatusBadGateway,
	errors.ErrCodeInvalidConfig:   http.StatusInternalServerError,
	errors.ErrCodeInternal:        http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for an error.
func StatusFor(err error) int {
	if status, ok := statusByCode[errors.GetCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestIDFrom(r.Context()), "err", err)
		if code == errors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	s.respondJSON(w, status, ErrorResponse{Code: code, Message: msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
