package broadcast

import (
	"log/slog"
	"net/http"

	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// Path is where the socket.io handler is mounted.
const Path = "/socket.io/"

// Server is a socket.io server that broadcasts lifecycle events to every
// connected client.
type Server struct {
	io      *socket.Server
	logger  *slog.Logger
	handler http.Handler
}

// NewServer creates a socket.io server. It does not listen on its own; mount
// Handler on an HTTP server.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	io := socket.NewServer(nil, nil)
	io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		logger.Info("🔌 Editor client connected.", "sid", client.Id())
		client.On("disconnect", func(reason ...any) {
			logger.Info("Editor client disconnected.", "sid", client.Id(), "reason", reason)
		})
	})

	opts := socket.DefaultServerOptions()
	opts.SetCors(&types.Cors{Origin: "*"})
	return &Server{io: io, logger: logger, handler: io.ServeHandler(opts)}
}

// Handler returns the socket.io HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Emit broadcasts an event to every connected client. It satisfies EmitFunc.
func (s *Server) Emit(event string, p Payload) {
	s.logger.Debug("Broadcasting event.", "event", event, "step_id", p.StepID, "status", p.Status)
	s.io.Emit(event, p)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.io.Close(nil)
}
