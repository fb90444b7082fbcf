package route

import (
	"net/http"
	"os"
	"path/filepath"

	"camdetect/internal/config"
	"camdetect/internal/handler"
	"camdetect/internal/logger"
	"camdetect/internal/metrics"
	"camdetect/internal/middleware"
	"camdetect/internal/repository"
	"camdetect/internal/service/websocket"
)

// Dependencies groups what the HTTP layer needs from the application.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	Controller    handler.Controller
	Hub           *websocket.HubService
	Metrics       *metrics.Metrics
	SessionRepo   repository.SessionRepository
	DetectionRepo repository.DetectionRepository
	StaticDir     string
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(deps Dependencies) http.Handler {
	cfg, log, ctrl := deps.Config, deps.Logger, deps.Controller
	staticDir := deps.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}

	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// Detection loop
	mux.HandleFunc("/api/models", handler.ListModelsHandler(cfg, log))
	mux.HandleFunc("/api/model", handler.LoadModelHandler(ctrl, cfg, log))
	mux.HandleFunc("/api/detection/start", handler.StartDetectionHandler(ctrl, log))
	mux.HandleFunc("/api/detection/stop", handler.StopDetectionHandler(ctrl, cfg, log))
	mux.HandleFunc("/api/detection/state", handler.DetectionStateHandler(ctrl, log))
	mux.HandleFunc("/api/status", handler.StatusHistoryHandler(ctrl, log))
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(deps.Hub, log))

	// Session history
	mux.HandleFunc("/api/sessions", handler.GetSessionsHandler(deps.SessionRepo, log))
	mux.HandleFunc("/api/sessions/detections", handler.GetSessionDetectionsHandler(deps.SessionRepo, deps.DetectionRepo, log))
	mux.HandleFunc("/api/sessions/classes", handler.GetClassNamesHandler(deps.DetectionRepo, log))
	mux.HandleFunc("/api/sessions/totals", handler.GetClassTotalsHandler(deps.DetectionRepo, log))
	mux.HandleFunc("/api/sessions/delete", handler.DeleteSessionHandler(deps.SessionRepo, log))

	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(log, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, log))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /login -> /static/login.html
	mux.HandleFunc("/", dynamicHTMLHandler(staticDir))

	// Apply middleware
	return middleware.AuthMiddleware(cfg.Password, mux)
}

// dynamicHTMLHandler serves /path as <staticDir>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}
