package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"camdetect/internal/config"
	"camdetect/internal/dto"
	"camdetect/internal/logger"
	"camdetect/internal/service/detection"
)

// Controller is the part of the detection loop the HTTP API drives.
type Controller interface {
	LoadModel(path string) error
	Start() error
	Stop(picker detection.DestinationPicker) (*detection.StopResult, error)
	State() dto.StateInfo
	StatusHistory() []dto.StatusEntry
}

var modelExtensions = map[string]bool{
	".onnx": true,
	".pb":   true,
}

// ListModelsHandler lists loadable model files under the model directory.
func ListModelsHandler(cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		dir, err := filepath.Abs(cfg.ModelDirectory)
		if err != nil {
			writeError(w, logger, http.StatusInternalServerError, "could not read model directory")
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading model directory: %v", err)
			writeError(w, logger, http.StatusInternalServerError, "could not read model directory")
			return
		}

		models := make([]dto.ModelFile, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !modelExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			models = append(models, dto.ModelFile{
				Name: entry.Name(),
				Path: filepath.Join(dir, entry.Name()),
				Size: info.Size(),
			})
		}
		sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

		writeJSON(w, logger, http.StatusOK, models)
	}
}

// LoadModelHandler handles POST /api/model. Paths are resolved against the
// model directory and must stay inside it.
func LoadModelHandler(ctrl Controller, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) || !requireJSON(w, r, logger) {
			return
		}

		var req dto.LoadModelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
			writeError(w, logger, http.StatusBadRequest, "model path required")
			return
		}

		path, err := resolvePath(cfg.ModelDirectory, req.Path)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, err.Error())
			return
		}
		if err := ctrl.LoadModel(path); err != nil {
			writeError(w, logger, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, logger, http.StatusOK, ctrl.State())
	}
}

// StartDetectionHandler handles POST /api/detection/start.
func StartDetectionHandler(ctrl Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) || !requireJSON(w, r, logger) {
			return
		}

		if err := ctrl.Start(); err != nil {
			switch {
			case errors.Is(err, detection.ErrNoModel):
				writeError(w, logger, http.StatusPreconditionFailed, err.Error())
			case errors.Is(err, detection.ErrAlreadyRunning):
				writeError(w, logger, http.StatusConflict, err.Error())
			default:
				writeError(w, logger, http.StatusServiceUnavailable, err.Error())
			}
			return
		}
		writeJSON(w, logger, http.StatusOK, ctrl.State())
	}
}

// StopDetectionHandler handles POST /api/detection/stop. The body names the
// export destinations; an empty or missing path skips that export.
// Paths are resolved against the export directory and must stay inside it.
func StopDetectionHandler(ctrl Controller, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) || !requireJSON(w, r, logger) {
			return
		}

		var req dto.StopRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, logger, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		picker := detection.Destinations{}
		for _, dest := range []struct {
			requested string
			resolved  *string
		}{
			{req.RecordsPath, &picker.RecordsPath},
			{req.ChartPath, &picker.ChartPath},
		} {
			if dest.requested == "" {
				continue
			}
			path, err := resolvePath(cfg.ExportDirectory, dest.requested)
			if err != nil {
				writeError(w, logger, http.StatusBadRequest, err.Error())
				return
			}
			*dest.resolved = path
		}

		result, err := ctrl.Stop(picker)
		if err != nil {
			writeError(w, logger, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// DetectionStateHandler returns the loop state, elapsed time and current record.
func DetectionStateHandler(ctrl Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, logger, http.StatusOK, ctrl.State())
	}
}

// StatusHistoryHandler returns the processing details log.
func StatusHistoryHandler(ctrl Controller, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, logger, http.StatusOK, ctrl.StatusHistory())
	}
}

var errOutsideDir = errors.New("path outside the allowed directory")

// resolvePath joins a relative path onto dir and checks that the result,
// like any absolute path given, is a file inside dir.
func resolvePath(dir, path string) (string, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errOutsideDir, path)
	}
	return path, nil
}
