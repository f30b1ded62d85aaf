package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/playperu/qrhunt/internal/hunt"
)

// ErrorResponse is returned for all error responses. Code and Retriable are
// set for hunt rule rejections.
type ErrorResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code,omitempty"`
	Retriable         *bool  `json:"retriable,omitempty"`
	RetryAfterSeconds int    `json:"retryAfterSeconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func statusFor(code hunt.Code) int {
	switch code {
	case hunt.CodeDisqualified, hunt.CodeEventInactive, hunt.CodeHuntNotStarted, hunt.CodeHuntTimedOut:
		return http.StatusForbidden
	case hunt.CodeInvalidToken, hunt.CodeInvalidInput:
		return http.StatusBadRequest
	case hunt.CodeHuntAlreadyComplete, hunt.CodeAlreadyScanned, hunt.CodeHintNotYetAvailable, hunt.CodeNoCluesConfigured,
		hunt.CodeHuntInProgress, hunt.CodeConflict:
		return http.StatusConflict
	case hunt.CodeWrongClue:
		return http.StatusUnprocessableEntity
	case hunt.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeHuntError renders an engine error. Persistence failures are opaque.
func writeHuntError(w http.ResponseWriter, err error) {
	code := hunt.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error")
		return
	}

	retriable := code.Retriable()
	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      string(code),
		Retriable: &retriable,
	}

	var he *hunt.Error
	if errors.As(err, &he) {
		resp.Error = he.Message
		if he.Wait > 0 {
			secs := int(math.Ceil(he.Wait.Seconds()))
			resp.RetryAfterSeconds = secs
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	}
	writeJSON(w, status, resp)
}
