// Package handlers implements the dashboard-facing HTTP endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dealershipai/visibility-engine/pkg/errors"
)

// maskedMessage replaces internal failure detail in client responses.
// Dashboards never see provider names, SQL text, or stack context.
const maskedMessage = "data unavailable"

// Envelope is the uniform response body: success carries data, failure
// carries an error record.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody is the client-visible error record.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// writeAppError maps the error code to a status.  Client-caused failures
// (bad input, unknown dealer) keep their message; everything else is
// masked.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := maskedMessage
	if status < http.StatusInternalServerError {
		message = err.Error()
	}
	writeJSON(w, status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: string(code), Message: message},
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: string(errors.ErrCodeBadRequest), Message: message},
	})
}
