package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ibeckermayer/leadscout/internal/app"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Debug("[http] failed to write response", "error", err)
	}
}

// writeResult writes any boundary result, choosing the status from its code
func writeResult(w http.ResponseWriter, res any, r app.Result) {
	writeJSON(w, statusFor(r), res)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, app.Result{Message: message, Code: code})
}

func statusFor(r app.Result) int {
	if r.Success {
		return http.StatusOK
	}
	switch r.Code {
	case app.CodeValidation:
		return http.StatusBadRequest
	case app.CodeNotFound:
		return http.StatusNotFound
	case app.CodeNotAuthenticated:
		return http.StatusUnauthorized
	case app.CodeRateLimited:
		return http.StatusTooManyRequests
	case app.CodeNetwork, app.CodeGeneration:
		return http.StatusBadGateway
	case app.CodeBusy, app.CodeDraftState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
