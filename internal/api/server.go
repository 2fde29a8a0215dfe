// Package api serves the admin HTTP surface: read-only status plus website
// registration, both backed by the same registry the bot uses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"seat_tracker/internal/bot"
	"seat_tracker/internal/model"
	"seat_tracker/internal/registry"
	"seat_tracker/internal/status"
)

const (
	serviceName     = "CENT-S Seat Tracker"
	maxRequestBody  = 64 * 1024
	shutdownTimeout = 5 * time.Second
)

var chatIDPattern = regexp.MustCompile(`^-?[0-9]+$`)

// Sender is the interface for sending Telegram messages.
type Sender interface {
	SendMessage(chatID, text string) error
}

// Authorizer reports whether a chat may subscribe. *config.Config satisfies it.
type Authorizer interface {
	IsUserAllowed(chatID int64) bool
}

// Server is the admin HTTP server.
type Server struct {
	registry *registry.Registry
	status   *status.Tracker
	sender   Sender
	auth     Authorizer
	log      *slog.Logger
	srv      *http.Server
}

// New creates a Server listening on addr.
func New(addr string, reg *registry.Registry, st *status.Tracker, sender Sender, auth Authorizer, log *slog.Logger) *Server {
	s := &Server{
		registry: reg,
		status:   st,
		sender:   sender,
		auth:     auth,
		log:      log,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler with all routes mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/unregister", s.handleUnregister)
	return cors(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("admin server listening", "addr", s.srv.Addr)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	m := s.status.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"service":    serviceName,
		"status":     m.Status,
		"checks":     m.Checks,
		"last_check": lastCheck(m),
		"users":      s.registry.Count(),
		"alerts":     m.AlertsSent,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	m := s.status.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"checks": m.Checks,
		"status": m.Status,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	m := s.status.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":               true,
		"checks":           m.Checks,
		"last_check":       lastCheck(m),
		"status":           m.Status,
		"available_now":    m.Available,
		"alerts_sent":      m.AlertsSent,
		"registered_users": s.registry.Count(),
		"seen_keys":        m.SeenKeys,
	})
}

type registerRequest struct {
	ChatID any    `json:"chat_id"`
	Pref   string `json:"pref"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chatID, err := validChatID(req.ChatID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pref, err := model.ParsePreference(req.Pref)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pref")
		return
	}
	// Chats outside the allow list could not /stop from Telegram.
	if id, _ := strconv.ParseInt(chatID, 10, 64); !s.auth.IsUserAllowed(id) {
		s.log.Warn("registration rejected", "chat_id", chatID)
		writeError(w, http.StatusForbidden, "chat not allowed")
		return
	}

	s.registry.Upsert(chatID, pref)
	s.log.Info("registered via website", "chat_id", chatID, "pref", pref)

	if err := s.sender.SendMessage(chatID, bot.FormatRegistered(pref)); err != nil {
		s.log.Error("send registration message", "chat_id", chatID, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	chatID, err := validChatID(req.ChatID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.registry.Remove(chatID) {
		s.log.Info("unregistered via website", "chat_id", chatID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (registerRequest, error) {
	var req registerRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return registerRequest{}, errors.New("invalid request body")
	}
	return req, nil
}

// validChatID accepts a JSON string or integer made of digits with an
// optional leading minus that fits a Telegram chat id (int64).
func validChatID(v any) (string, error) {
	var s string
	switch id := v.(type) {
	case string:
		s = strings.TrimSpace(id)
	case json.Number:
		s = id.String()
	}
	if !chatIDPattern.MatchString(s) {
		return "", errors.New("invalid chat_id")
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", errors.New("invalid chat_id")
	}
	return s, nil
}

func lastCheck(m model.RunMetrics) any {
	if m.LastCheck.IsZero() {
		return nil
	}
	return bot.FormatLastCheck(m.LastCheck)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": msg})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
