package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Response string           `json:"response"`
	History  []models.Message `json:"history"`
	State    string           `json:"state"`
	Alert    string           `json:"alert,omitempty"`
}

// alertRecorder keeps the latest alert of a request.
type alertRecorder struct {
	mu  sync.Mutex
	msg string
}

func (a *alertRecorder) Alert(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msg = msg
}

func (a *alertRecorder) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.msg
}

// handleGenerate answers a prompt without streaming.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.allow(clientKey(r)) {
		writeJSON(w, http.StatusTooManyRequests, generateResponse{State: controller.Idle.String(), Alert: RateLimitAlert})
		return
	}
	id, cookie := sessionID(r)
	if cookie != nil {
		http.SetCookie(w, cookie)
	}

	var req promptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	conf := s.sessionConfig(ctx, id)
	conf.Streaming = false
	alerts := &alertRecorder{}
	ctrl := controller.New(s.source, nil, alerts, conf)
	ctrl.SetHistory(s.loadHistory(ctx, id))

	err := ctrl.Submit(ctx, req.Prompt)
	resp := generateResponse{
		Response: ctrl.Response(),
		History:  ctrl.History(),
		State:    ctrl.State().String(),
		Alert:    alerts.last(),
	}
	if resp.History == nil {
		resp.History = []models.Message{}
	}
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, controller.ErrEmptyPrompt):
		status = http.StatusBadRequest
	case errors.Is(err, controller.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusBadGateway
		if s.debug {
			ancli.PrintWarn(fmt.Sprintf("generate failed for session '%v': %v\n", id, err))
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleResetHistory(w http.ResponseWriter, r *http.Request) {
	id, cookie := sessionID(r)
	if cookie != nil {
		// Fresh session, nothing to reset
		http.SetCookie(w, cookie)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.store.Reset(r.Context(), id); err != nil {
		http.Error(w, "failed to reset history", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
