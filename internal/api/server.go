// Package api exposes the narrator over HTTP: the game's event endpoint,
// narrator settings, memory inspection, the session log and a websocket
// narration feed.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/raphaelgruber/brogue-dm/internal/app"
	"github.com/raphaelgruber/brogue-dm/internal/models"
	"github.com/raphaelgruber/brogue-dm/internal/settings"
)

const (
	defaultRecentCount  = 5
	defaultHistoryLimit = 20
	maxBodyBytes        = 1 << 20
	healthMessage       = "Brogue Dungeon Master AI server is running"
)

// Server routes HTTP requests to the narrator components.
type Server struct {
	app    *app.App
	log    *SessionLog
	hub    *Hub
	logger *slog.Logger
	now    func() time.Time
	mux    *http.ServeMux
}

// New creates the HTTP API. hub may be nil to disable the narration feed.
func New(a *app.App, log *SessionLog, hub *Hub) *Server {
	s := &Server{
		app:    a,
		log:    log,
		hub:    hub,
		logger: a.Logger,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.logger, s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleHealth)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/event", s.handleEvent)

	s.mux.HandleFunc("GET /api/narrator/settings", s.handleGetSettings)
	s.mux.HandleFunc("POST /api/narrator/settings", s.handleUpdateSettings)
	s.mux.HandleFunc("GET /api/narrator/preview", s.handlePreview)

	s.mux.HandleFunc("GET /api/memory/recent", s.handleRecent)
	s.mux.HandleFunc("GET /api/memory/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/knowledge/{category}", s.handleKnowledgeList)
	s.mux.HandleFunc("GET /api/knowledge/{category}/{name}", s.handleKnowledge)

	s.mux.HandleFunc("GET /api/logs/current", s.handleLog)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)

	if s.hub != nil {
		s.mux.Handle("GET /ws/narrations", s.hub)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    models.StatusOK,
		Message:   healthMessage,
		SessionID: s.sessionID(),
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if ev.Type == "" {
		writeError(w, http.StatusBadRequest, "Missing eventType in request")
		return
	}

	s.journal(func(l *SessionLog) error { return l.Event(ev) })

	res := s.app.Narrator.HandleEvent(r.Context(), ev)
	if !res.Enhanced {
		writeJSON(w, http.StatusOK, models.EventResponse{Status: models.StatusSuccess, Message: "Event recorded"})
		return
	}

	s.journal(func(l *SessionLog) error { return l.Narrative(res.Narrative) })
	if s.hub != nil {
		s.hub.Publish(models.Narration{EventType: ev.Type, Narrative: res.Narrative, Timestamp: s.now()})
	}

	writeJSON(w, http.StatusOK, models.EventResponse{Status: models.StatusSuccess, Narrative: res.Narrative})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	v := s.app.Settings.View()
	writeJSON(w, http.StatusOK, models.SettingsResponse{
		Status:           models.StatusSuccess,
		PresetName:       v.PresetName,
		Attributes:       v.Attributes,
		SignaturePhrases: v.SignaturePhrases,
		AvailablePresets: v.AvailablePresets,
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req models.SettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ok, known := s.app.Settings.Apply(req)
	if !known {
		writeError(w, http.StatusBadRequest, "Unknown action")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Failed to update settings")
		return
	}
	s.journal(func(l *SessionLog) error { return l.Note(describeAction(req)) })

	v := s.app.Settings.View()
	writeJSON(w, http.StatusOK, models.SettingsResponse{
		Status:           models.StatusSuccess,
		Message:          "Narrator settings updated",
		CurrentPreset:    v.PresetName,
		Attributes:       v.Attributes,
		SignaturePhrases: v.SignaturePhrases,
	})
}

func describeAction(req models.SettingsRequest) string {
	switch req.Action {
	case models.ActionApplyPreset:
		return fmt.Sprintf("Applied narrator preset: %s", req.PresetName)
	case models.ActionSavePreset:
		return fmt.Sprintf("Saved custom narrator preset: %s", req.PresetName)
	case models.ActionDeletePreset:
		return fmt.Sprintf("Deleted custom narrator preset: %s", req.PresetName)
	case models.ActionSetAttribute:
		return fmt.Sprintf("Set narrator attribute %s to %v", req.AttributeName, req.AttributeValue)
	case models.ActionAddPhrase:
		return fmt.Sprintf("Added signature phrase: %q", req.Phrase)
	case models.ActionRemovePhrase:
		return fmt.Sprintf("Removed signature phrase at index %d", *req.PhraseIndex)
	default:
		return "Reset narrator to default preset"
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p := s.app.Settings.Personality()
	writeJSON(w, http.StatusOK, models.PreviewResponse{
		Status:     models.StatusSuccess,
		PresetName: s.app.Settings.CurrentPresetName(),
		Preview:    settings.Preview(p),
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", defaultRecentCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.MemoriesResponse{
		Status:   models.StatusSuccess,
		Memories: s.app.Memory.RecentMemories(n),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.app.Memory.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read event history", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read event history")
		return
	}
	writeJSON(w, http.StatusOK, models.MemoriesResponse{Status: models.StatusSuccess, Memories: entries})
}

func (s *Server) handleKnowledgeList(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	records, err := s.app.Memory.ListKnowledge(r.Context(), category)
	if err != nil {
		s.logger.Error("failed to list knowledge", "category", category, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list knowledge")
		return
	}

	byName := make(map[string]models.KnowledgeRecord, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}
	writeJSON(w, http.StatusOK, models.KnowledgeListResponse{
		Status:   models.StatusSuccess,
		Category: category,
		Records:  byName,
	})
}

func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	name := r.PathValue("name")

	rec, ok := s.app.Memory.Knowledge(r.Context(), category, name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Nothing known about %s", name))
		return
	}
	writeJSON(w, http.StatusOK, models.KnowledgeResponse{
		Status:   models.StatusSuccess,
		Category: category,
		Name:     name,
		Record:   rec,
	})
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	if s.log == nil {
		writeError(w, http.StatusNotFound, "Log file not found")
		return
	}
	content, err := s.log.Read()
	if err != nil {
		s.logger.Error("failed to read session log", "path", s.log.Path(), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read log file")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(content)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Metrics.Snapshot())
}

func (s *Server) sessionID() string {
	if s.log == nil {
		return ""
	}
	return s.log.ID()
}

// journal writes to the session log, logging failures.
func (s *Server) journal(write func(*SessionLog) error) {
	if s.log == nil {
		return
	}
	if err := write(s.log); err != nil {
		s.logger.Warn("failed to write session log", "path", s.log.Path(), "error", err)
	}
}

var errBadParam = errors.New("invalid query parameter")

func intParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadParam, key)
	}
	return n, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Status: models.StatusError, Message: message})
}
