package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/alextanhongpin/go-fitmate/domain"
	"github.com/alextanhongpin/go-fitmate/pkg/socket"
	"github.com/alextanhongpin/go-fitmate/usecase"
)

// MessageConnected is the first message on every notice stream.
const MessageConnected = "connected"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleNotices streams the caller's store notices over a websocket.
// Browsers cannot set headers on websocket requests, so the ticket comes in
// the token query parameter.
func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	owner, err := s.issuer.Verify(r.URL.Query().Get("token"))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws: upgrade failed", zap.Error(err))
		return
	}

	client := socket.NewClient(ws, owner)
	s.hub.Register(client)
	defer s.hub.Deregister(client)

	client.Emit(socket.Message{Type: MessageConnected})

	logger := s.logger.With(zap.String("owner", owner), zap.String("client", client.ID))
	logger.Info("ws: connected")
	if err := client.Serve(); err != nil {
		logger.Debug("ws: write failed", zap.Error(err))
	}
	logger.Info("ws: disconnected")
}

// PublishNotice forwards n to the owner's open notice streams. It satisfies
// eventbus.Handler so it can be registered on the store's notice bus.
func (s *Server) PublishNotice(n usecase.Notice) error {
	payload := make(map[string]any)
	if n.Friend != (domain.Friend{}) {
		payload["friend"] = n.Friend
	}
	if n.Message != "" {
		payload["message"] = n.Message
	}
	if n.Err != nil {
		payload["error"] = n.Err.Error()
	}

	s.hub.Publish(n.Owner, socket.Message{Type: n.Event, Payload: payload})

	return nil
}
