package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"markestedt/pastemd/config"
	"markestedt/pastemd/hotkey"
	"markestedt/pastemd/storage"
)

type configView struct {
	Hotkey               string `json:"hotkey"`
	HotkeyDisplay        string `json:"hotkeyDisplay"`
	Enabled              bool   `json:"enabled"`
	Action               string `json:"action"`
	SaveDir              string `json:"saveDir"`
	KeepFile             bool   `json:"keepFile"`
	PandocPath           string `json:"pandocPath"`
	ReferenceDocx        string `json:"referenceDocx"`
	NormalizeMarkdown    bool   `json:"normalizeMarkdown"`
	LatexSupport         bool   `json:"latexSupport"`
	FixSingleDollarBlock bool   `json:"fixSingleDollarBlock"`
	ConvertStrikethrough bool   `json:"convertStrikethrough"`
	RemoveSVG            bool   `json:"removeSvg"`
	ExcelEnabled         bool   `json:"excelEnabled"`
	ExcelKeepFormat      bool   `json:"excelKeepFormat"`
	HTMLWaitMs           int    `json:"htmlWaitMs"`
	PollIntervalMs       int    `json:"pollIntervalMs"`
	WebEnabled           bool   `json:"webEnabled"`
	WebPort              int    `json:"webPort"`
	LogLevel             string `json:"logLevel"`
}

type configUpdate struct {
	Hotkey               *string `json:"hotkey"`
	Enabled              *bool   `json:"enabled"`
	Action               *string `json:"action"`
	SaveDir              *string `json:"saveDir"`
	KeepFile             *bool   `json:"keepFile"`
	PandocPath           *string `json:"pandocPath"`
	ReferenceDocx        *string `json:"referenceDocx"`
	NormalizeMarkdown    *bool   `json:"normalizeMarkdown"`
	LatexSupport         *bool   `json:"latexSupport"`
	FixSingleDollarBlock *bool   `json:"fixSingleDollarBlock"`
	ConvertStrikethrough *bool   `json:"convertStrikethrough"`
	RemoveSVG            *bool   `json:"removeSvg"`
	ExcelEnabled         *bool   `json:"excelEnabled"`
	ExcelKeepFormat      *bool   `json:"excelKeepFormat"`
	HTMLWaitMs           *int    `json:"htmlWaitMs"`
	PollIntervalMs       *int    `json:"pollIntervalMs"`
	WebEnabled           *bool   `json:"webEnabled"`
	WebPort              *int    `json:"webPort"`
	LogLevel             *string `json:"logLevel"`
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (u configUpdate) apply(cfg *config.Config) {
	setIf(&cfg.Hotkey, u.Hotkey)
	setIf(&cfg.Enabled, u.Enabled)
	setIf(&cfg.Output.Action, u.Action)
	setIf(&cfg.Output.SaveDir, u.SaveDir)
	setIf(&cfg.Output.KeepFile, u.KeepFile)
	setIf(&cfg.Conversion.PandocPath, u.PandocPath)
	setIf(&cfg.Conversion.ReferenceDocx, u.ReferenceDocx)
	setIf(&cfg.Conversion.NormalizeMarkdown, u.NormalizeMarkdown)
	setIf(&cfg.Conversion.LatexSupport, u.LatexSupport)
	setIf(&cfg.Conversion.FixSingleDollarBlock, u.FixSingleDollarBlock)
	setIf(&cfg.Conversion.ConvertStrikethrough, u.ConvertStrikethrough)
	setIf(&cfg.Conversion.RemoveSVG, u.RemoveSVG)
	setIf(&cfg.Excel.Enabled, u.ExcelEnabled)
	setIf(&cfg.Excel.KeepFormat, u.ExcelKeepFormat)
	setIf(&cfg.Clipboard.HTMLWaitMs, u.HTMLWaitMs)
	setIf(&cfg.Clipboard.PollIntervalMs, u.PollIntervalMs)
	setIf(&cfg.Web.Enabled, u.WebEnabled)
	setIf(&cfg.Web.Port, u.WebPort)
	setIf(&cfg.Log.Level, u.LogLevel)
}

func newConfigView(cfg *config.Config) configView {
	display := cfg.Hotkey
	if combo, err := cfg.HotkeyCombination(); err == nil {
		display = combo.Display()
	}
	return configView{
		Hotkey:               cfg.Hotkey,
		HotkeyDisplay:        display,
		Enabled:              cfg.Enabled,
		Action:               cfg.Output.Action,
		SaveDir:              cfg.Output.SaveDir,
		KeepFile:             cfg.Output.KeepFile,
		PandocPath:           cfg.Conversion.PandocPath,
		ReferenceDocx:        cfg.Conversion.ReferenceDocx,
		NormalizeMarkdown:    cfg.Conversion.NormalizeMarkdown,
		LatexSupport:         cfg.Conversion.LatexSupport,
		FixSingleDollarBlock: cfg.Conversion.FixSingleDollarBlock,
		ConvertStrikethrough: cfg.Conversion.ConvertStrikethrough,
		RemoveSVG:            cfg.Conversion.RemoveSVG,
		ExcelEnabled:         cfg.Excel.Enabled,
		ExcelKeepFormat:      cfg.Excel.KeepFormat,
		HTMLWaitMs:           cfg.Clipboard.HTMLWaitMs,
		PollIntervalMs:       cfg.Clipboard.PollIntervalMs,
		WebEnabled:           cfg.Web.Enabled,
		WebPort:              cfg.Web.Port,
		LogLevel:             cfg.Log.Level,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleConfig handles GET and PUT requests for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, newConfigView(s.GetConfig()))
	case http.MethodPut:
		s.handlePutConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handlePutConfig validates, saves and applies a partial update
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req configUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	old := s.GetConfig()
	cfg := old.Clone()
	req.apply(cfg)

	if req.Hotkey != nil {
		// Store the canonical form of whatever notation was sent
		if combo, err := hotkey.ParseCombination(cfg.Hotkey); err == nil {
			cfg.Hotkey = combo.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := cfg.Save(); err != nil {
		slog.Error("Failed to save config", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save configuration")
		return
	}

	s.mu.Lock()
	s.config = cfg
	onChange := s.onConfigChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(old, cfg)
	}

	writeJSON(w, http.StatusOK, newConfigView(cfg))
}

func queryInt(r *http.Request, key string, def, minimum int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < minimum {
		return def
	}
	return v
}

// handleStats returns statistics for the specified time range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	days := queryInt(r, "days", 7, 1)

	overall, err := s.db.GetOverallStats(days)
	if err != nil {
		slog.Error("Failed to get overall stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	daily, err := s.db.GetDailyStats(days)
	if err != nil {
		slog.Error("Failed to get daily stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	targets, err := s.db.GetTargetStats(days)
	if err != nil {
		slog.Error("Failed to get target stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get statistics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":      days,
		"overall":   overall,
		"totalSize": humanize.Bytes(uint64(max(overall.TotalBytes, 0))),
		"daily":     daily,
		"targets":   targets,
	})
}

type historyEntry struct {
	storage.Paste
	Size string `json:"size"`
	When string `json:"when"`
}

// handleHistory handles GET and DELETE requests for paste history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetHistory(w, r)
	case http.MethodDelete:
		s.handleDeleteHistory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetHistory returns paginated paste history
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1)
	offset := queryInt(r, "offset", 0, 0)

	pastes, err := s.db.GetPastes(limit, offset)
	if err != nil {
		slog.Error("Failed to get pastes", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}

	total, err := s.db.GetPasteCount()
	if err != nil {
		slog.Error("Failed to get paste count", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get history")
		return
	}

	entries := make([]historyEntry, 0, len(pastes))
	for _, p := range pastes {
		entries = append(entries, historyEntry{
			Paste: p,
			Size:  humanize.Bytes(uint64(max(p.OutputBytes, 0))),
			When:  humanize.Time(p.Timestamp),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pastes": entries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleDeleteHistory deletes a paste by ID (/api/history/123)
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if idStr == r.URL.Path || idStr == "" {
		writeError(w, http.StatusBadRequest, "Invalid path")
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := s.db.DeletePaste(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Paste not found")
			return
		}
		slog.Error("Failed to delete paste", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Failed to delete paste")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleStatus returns the agent status and the converter in use
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	status := s.status
	cfg := s.config
	pandoc := s.pandoc
	s.mu.RUnlock()

	resp := map[string]any{
		"status":    status,
		"enabled":   cfg.Enabled,
		"hotkey":    cfg.Hotkey,
		"recording": s.recorder != nil && s.recorder.Recording(),
	}

	if pandoc == nil {
		resp["pandoc"] = "not found"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if v, err := pandoc.Version(ctx); err != nil {
			resp["pandoc"] = "unavailable"
			resp["pandocError"] = err.Error()
		} else {
			resp["pandoc"] = v
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleHotkeyRecord starts (POST) or cancels (DELETE) a recording session.
// Progress and the result are pushed over the websocket.
func (s *Server) handleHotkeyRecord(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "Hotkey recording unavailable")
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.startRecording(w)
	case http.MethodDelete:
		s.recorder.Stop()
		writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) startRecording(w http.ResponseWriter) {
	s.recMu.Lock()
	defer s.recMu.Unlock()

	session, err := s.recorder.Start()
	if errors.Is(err, hotkey.ErrAlreadyRecording) {
		writeJSON(w, http.StatusConflict, map[string]string{"id": s.sessionID, "error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Failed to start hotkey recording", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	id := uuid.NewString()
	s.sessionID = id
	go s.forwardSession(id, session)

	slog.Info("Hotkey recording started", "session", id)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) forwardSession(id string, session *hotkey.Session) {
	for display := range session.Updates() {
		s.hub.BroadcastMessage(Message{
			Type: MessageTypeHotkeyUpdate,
			Data: HotkeyUpdateMessage{ID: id, Display: display},
		})
	}

	res := <-session.Done()
	msg := HotkeyResultMessage{ID: id}
	if res.Err != nil {
		msg.Error = res.Err.Error()
	} else {
		msg.Hotkey = res.Combo.String()
	}
	s.hub.BroadcastMessage(Message{Type: MessageTypeHotkeyResult, Data: msg})
	slog.Info("Hotkey recording finished", "session", id, "hotkey", msg.Hotkey, "error", msg.Error)
}
