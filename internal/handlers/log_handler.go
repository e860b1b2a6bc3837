package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iyunix/go-lostfound/internal/middleware"
)

// FrontendLogPayload defines the structure for logs coming from the browser.
type FrontendLogPayload struct {
	Level   string `json:"level"`             // "debug", "info", "warn" or "error"
	Message string `json:"message"`           // The main log message
	Context any    `json:"context,omitempty"` // Optional extra data (e.g., stack trace)
}

const maxClientLogBytes = 16 << 10

// LogHandler is the sink for client-side errors such as failed toasts.
type LogHandler struct {
	logger *slog.Logger
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger.With(slog.String("source", "client"))}
}

// LogFrontendEvent records one client log line at the level it names.
func (h *LogHandler) LogFrontendEvent(w http.ResponseWriter, r *http.Request) {
	var payload FrontendLogPayload
	r.Body = http.MaxBytesReader(w, r.Body, maxClientLogBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Message) == "" {
		writeError(w, http.StatusBadRequest, "Error", "Invalid request body")
		return
	}

	h.logger.Log(r.Context(), clientLevel(payload.Level), "CLIENT_LOG",
		slog.String("message", payload.Message),
		slog.String("user_id", middleware.UserIDFrom(r.Context())),
		slog.Any("context", payload.Context),
	)
	w.WriteHeader(http.StatusNoContent)
}

func clientLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
