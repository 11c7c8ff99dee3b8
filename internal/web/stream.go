// pattern: Imperative Shell

package web

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const streamWriteTimeout = 5 * time.Second

// handleStream upgrades to a websocket and pushes the full tree as JSON on
// connect and after every state change. Client messages are ignored.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.coordinator == nil {
		writeError(w, http.StatusServiceUnavailable, "sidebar not available")
		return
	}

	// Restrict to localhost origins to prevent cross-origin WebSocket attacks.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"127.0.0.1:*", "localhost:*"},
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	// CloseRead discards client frames and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(context.Background())

	s.logger.Debug("stream connected", "remote", r.RemoteAddr)
	defer s.logger.Debug("stream disconnected", "remote", r.RemoteAddr)

	if err := s.pushTree(ctx, conn); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := s.pushTree(ctx, conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) pushTree(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, buildTreeResponse(s.coordinator.State()))
}
