package socket

import (
	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

const namespace = "/"

// Server wraps a Socket.IO server that streams workflow progress to browser clients.
// Clients emit "join" with {"invasion": "<name>"} and receive "progress" events for it.
type Server struct {
	*socketio.Server
	logger *zap.Logger
}

// NewSocketServer initializes and returns a new Socket.IO server
func NewSocketServer(log *zap.Logger) *Server {
	server := socketio.NewServer(nil)
	s := &Server{Server: server, logger: log}

	server.OnConnect(namespace, func(c socketio.Conn) error {
		log.Debug("socket connected", zap.String("id", c.ID()))
		return nil
	})

	server.OnEvent(namespace, "join", func(c socketio.Conn, data map[string]string) {
		invasion := data["invasion"]
		if invasion == "" {
			log.Warn("join without invasion", zap.String("id", c.ID()))
			return
		}
		log.Info("socket joined invasion", zap.String("id", c.ID()), zap.String("invasion", invasion))
		c.Join(invasion)
	})

	server.OnEvent(namespace, "leave", func(c socketio.Conn, data map[string]string) {
		if invasion := data["invasion"]; invasion != "" {
			c.Leave(invasion)
		}
	})

	server.OnError(namespace, func(c socketio.Conn, err error) {
		log.Warn("socket error", zap.Error(err))
	})

	server.OnDisconnect(namespace, func(c socketio.Conn, reason string) {
		log.Debug("socket disconnected", zap.String("id", c.ID()), zap.String("reason", reason))
	})

	return s
}

// Publish broadcasts an event to every client in room.
func (s *Server) Publish(room, event string, payload interface{}) {
	if !s.BroadcastToRoom(namespace, room, event, payload) {
		s.logger.Debug("no listeners for progress", zap.String("room", room), zap.String("event", event))
	}
}
