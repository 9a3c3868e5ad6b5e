package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/rollover-fees/internal/errors"
	"github.com/rollover-fees/internal/logging"
)

// ErrorResponse is the body of every failed request. Error mirrors the
// exchange's own error list shape so callers handle one format.
type ErrorResponse struct {
	Error []string `json:"error"`
	Code  string   `json:"code,omitempty"`
}

// Common error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// encodingFailureBody is written when a response cannot be encoded
const encodingFailureBody = `{"error":["failed to encode response"],"code":"` + ErrCodeInternalError + `"}` + "\n"

// respondJSON sends a JSON response. The body is encoded before the status is
// written so an unencodable value still turns into a 500.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	var buf bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&buf).Encode(data); err != nil {
			logging.GetGlobalLogger().WithError(err).Error("Failed to encode response")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(encodingFailureBody))
			return
		}
	}

	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: []string{message},
		Code:  code,
	})
}

// respondServiceError maps a service error onto its HTTP status and logs it
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	catErr := apperrors.Categorize(err)

	logger := logging.FromContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"code":     catErr.Code,
		"category": string(catErr.Category),
	})
	if apperrors.IsSystemError(catErr) {
		logger.Error("Request failed")
	} else {
		logger.Warn("Request failed")
	}

	respondError(w, apperrors.GetHTTPStatusCode(catErr), catErr.Code, catErr.Message)
}
