package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/baalimago/charadex/internal/controller"
	"github.com/baalimago/charadex/internal/models"
	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/gorilla/websocket"
)

const (
	frameResponse = "response"
	frameAlert    = "alert"
	frameDone     = "done"

	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

type frame struct {
	Type    string           `json:"type"`
	Text    string           `json:"text,omitempty"`
	History []models.Message `json:"history,omitempty"`
	State   string           `json:"state,omitempty"`
}

// wsPeer is the display and alerter of one websocket connection.
type wsPeer struct {
	mu    sync.Mutex
	conn  *websocket.Conn
	debug bool
}

func (p *wsPeer) write(f frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := p.conn.WriteJSON(f); err != nil && p.debug {
		ancli.PrintWarn(fmt.Sprintf("failed to write %v frame: %v\n", f.Type, err))
	}
}

func (p *wsPeer) Render(response string) {
	p.write(frame{Type: frameResponse, Text: response})
}

// ScrollToBottom is done client side on every response frame.
func (p *wsPeer) ScrollToBottom() {}

func (p *wsPeer) Alert(msg string) {
	p.write(frame{Type: frameAlert, Text: msg})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id, cookie := sessionID(r)
	var hdr http.Header
	if cookie != nil {
		hdr = http.Header{"Set-Cookie": []string{cookie.String()}}
	}
	conn, err := upgrader.Upgrade(w, r, hdr)
	if err != nil {
		if s.debug {
			ancli.PrintWarn(fmt.Sprintf("ws upgrade failed: %v\n", err))
		}
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxBodyBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	peer := &wsPeer{conn: conn, debug: s.debug}
	ctrl := controller.New(s.source, peer, peer, s.sessionConfig(ctx, id))
	history := s.loadHistory(ctx, id)
	ctrl.SetHistory(history)
	peer.write(frame{Type: frameDone, History: history, State: ctrl.State().String()})

	// The reader cancels ctx when the client goes away, which also stops a
	// generation in flight.
	prompts := make(chan string)
	go func() {
		defer cancel()
		for {
			var req promptRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			select {
			case prompts <- req.Prompt:
			case <-ctx.Done():
				return
			}
		}
	}()

	key := clientKey(r)
	for {
		select {
		case <-ctx.Done():
			return
		case prompt := <-prompts:
			if !s.limiter.allow(key) {
				peer.Alert(RateLimitAlert)
				continue
			}
			// The store is the source of truth, it may have been reset by
			// another request since the last turn
			ctrl.SetHistory(s.loadHistory(ctx, id))
			ctrl.SetPrompt(prompt)
			if err := ctrl.Submit(ctx, prompt); err != nil && s.debug {
				ancli.PrintWarn(fmt.Sprintf("submit for session '%v': %v\n", id, err))
			}
			peer.write(frame{Type: frameDone, History: ctrl.History(), State: ctrl.State().String()})
		}
	}
}
