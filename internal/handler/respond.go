package handler

import (
	"encoding/json"
	"mime"
	"net/http"

	"camdetect/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, logger *logger.Logger, status int, message string) {
	writeJSON(w, logger, status, errorResponse{Error: message})
}

// allowMethod rejects requests whose method is not the expected one.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// requireJSON rejects state-changing requests that are not sent as JSON.
// Plain HTML forms and simple cross-site requests cannot set this content type.
func requireJSON(w http.ResponseWriter, r *http.Request, logger *logger.Logger) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, logger, http.StatusUnsupportedMediaType, "content type must be application/json")
		return false
	}
	return true
}
