package handler

import (
	"errors"
	"net/http"
	"strconv"

	"camdetect/internal/dto"
	"camdetect/internal/logger"
	"camdetect/internal/repository"
)

// GetSessionsHandler lists finished sessions, newest first.
func GetSessionsHandler(sessionRepo repository.SessionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		limit := atoiDefault(r.URL.Query().Get("limit"), 50)
		sessions, err := sessionRepo.GetAll(limit)
		if err != nil {
			logger.Error("Error querying sessions from database: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "could not load sessions")
			return
		}
		writeJSON(w, logger, http.StatusOK, sessions)
	}
}

// GetSessionDetectionsHandler returns the record of one session in export format.
func GetSessionDetectionsHandler(sessionRepo repository.SessionRepository, detectionRepo repository.DetectionRepository,
	logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, logger, http.StatusBadRequest, "session id required")
			return
		}
		if _, err := sessionRepo.GetByID(id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, logger, http.StatusNotFound, err.Error())
				return
			}
			logger.Error("Error loading session %s: %v", id, err)
			writeError(w, logger, http.StatusInternalServerError, "could not load session")
			return
		}

		record, err := detectionRepo.GetBySessionID(id)
		if err != nil {
			logger.Error("Error loading detections for session %s: %v", id, err)
			writeError(w, logger, http.StatusInternalServerError, "could not load detections")
			return
		}
		writeJSON(w, logger, http.StatusOK, dto.NewRecordEntries(record))
	}
}

// GetClassNamesHandler returns every class recorded in any session.
func GetClassNamesHandler(detectionRepo repository.DetectionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		names, err := detectionRepo.GetAllClassNames()
		if err != nil {
			logger.Error("Error querying class names: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "could not load classes")
			return
		}
		writeJSON(w, logger, http.StatusOK, names)
	}
}

// GetClassTotalsHandler returns, per class, the number of sessions that recorded it.
func GetClassTotalsHandler(detectionRepo repository.DetectionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		totals, err := detectionRepo.GetClassTotals()
		if err != nil {
			logger.Error("Error querying class totals: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "could not load class totals")
			return
		}
		writeJSON(w, logger, http.StatusOK, totals)
	}
}

// DeleteSessionHandler removes a session and its detections from history.
func DeleteSessionHandler(sessionRepo repository.SessionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) || !requireJSON(w, r, logger) {
			return
		}

		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, logger, http.StatusBadRequest, "session id required")
			return
		}
		if err := sessionRepo.Delete(id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, logger, http.StatusNotFound, err.Error())
				return
			}
			logger.Error("Failed to delete session %s: %v", id, err)
			writeError(w, logger, http.StatusInternalServerError, "could not delete session")
			return
		}
		logger.Info("Deleted session %s", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
