package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"telegram-card-counter/internal/domain/model"
)

// dashboardHandler always answers 200; store failures are shown on the page.
func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var storeErr string

	st, err := s.statusUC.Current(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("dashboard: status unavailable")
		storeErr = err.Error()
		st = &model.BotStatus{}
	}
	chats, err := s.countingUC.ListChats(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("dashboard: chats unavailable")
		storeErr = err.Error()
		chats = nil
	}

	data := newDashboardData(st, chats, s.now())
	data.StoreError = storeErr

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		s.log.Error().Err(err).Msg("dashboard render failed")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Bot de Comptage de Cartes: tableau de bord indisponible"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type statusResponse struct {
	Running     bool      `json:"running"`
	LastMessage string    `json:"last_message"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.statusUC.Current(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("status api failed")
		http.Error(w, "Failed to get status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Running:     st.Running,
		LastMessage: st.LastMessage,
		Error:       st.Error,
		UpdatedAt:   st.UpdatedAt,
	})
}

func (s *Server) chatsHandler(w http.ResponseWriter, r *http.Request) {
	chats, err := s.countingUC.ListChats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("chats api failed")
		http.Error(w, "Failed to list chats", http.StatusInternalServerError)
		return
	}
	if chats == nil {
		chats = []model.ChatCounts{}
	}
	writeJSON(w, http.StatusOK, struct {
		Chats []model.ChatCounts `json:"chats"`
	}{Chats: chats})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
