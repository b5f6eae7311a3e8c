// Package api exposes the editor over HTTP. Every request runs under one
// mutex, since the controller and the coordinator are single-threaded.
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vk/pipecanvas/internal/broadcast"
	"github.com/vk/pipecanvas/internal/runner"
	"github.com/vk/pipecanvas/internal/workflow"
)

// Config wires a Server.
type Config struct {
	Controller  *workflow.Controller
	Coordinator *runner.Coordinator
	// Broadcast is optional. When set, its socket.io handler is mounted on
	// broadcast.Path.
	Broadcast    *broadcast.Server
	Logger       *slog.Logger
	ServiceName  string
	Version      string
	AllowOrigins []string
}

// Server is the editor HTTP API.
type Server struct {
	mu       sync.Mutex
	logger   *slog.Logger
	ctrl     *workflow.Controller
	coord    *runner.Coordinator
	notes    *notes
	health   *HealthHandler
	engine   *gin.Engine
	realtime *broadcast.Server
}

// New builds the router. The controller's notifier is replaced so that
// rejections and rename requests can be reported in responses.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:   logger,
		ctrl:     cfg.Controller,
		coord:    cfg.Coordinator,
		notes:    &notes{},
		health:   NewHealthHandler(cfg.ServiceName, cfg.Version),
		realtime: cfg.Broadcast,
	}
	s.ctrl.SetNotifier(s.notes)

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	r.Use(cors.New(corsCfg))

	s.health.RegisterRoutes(r)
	s.register(r.Group("/api"))

	if s.realtime != nil {
		h := gin.WrapH(s.realtime.Handler())
		r.GET(broadcast.Path+"*any", h)
		r.POST(broadcast.Path+"*any", h)
	}
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) register(rg *gin.RouterGroup) {
	rg.GET("/plugins", s.locked(s.listPlugins))

	rg.GET("/steps", s.locked(s.listSteps))
	rg.POST("/steps", s.locked(s.addStep))
	rg.PATCH("/steps/:id", s.locked(s.updateStep))
	rg.DELETE("/steps/:id", s.locked(s.removeStep))
	rg.POST("/steps/:id/expand", s.locked(s.expandStep))
	rg.POST("/steps/:id/collapse", s.locked(s.collapseStep))
	rg.PUT("/steps/:id/detectors", s.locked(s.selectDetectors))
	rg.GET("/steps/:id/output", s.locked(s.stepOutput))
	rg.GET("/steps/:id/detections", s.locked(s.stepDetections))
	rg.POST("/steps/:id/rollback", s.locked(s.rollback))

	rg.POST("/connectors", s.locked(s.connect))
	rg.DELETE("/connectors", s.locked(s.disconnect))

	rg.POST("/pointer/:action", s.locked(s.pointer))
	rg.GET("/canvas", s.locked(s.canvas))

	rg.GET("/snapshot", s.locked(s.getSnapshot))
	rg.PUT("/snapshot", s.locked(s.putSnapshot))

	rg.POST("/run", s.locked(s.run))
	rg.POST("/next", s.locked(s.next))
	rg.POST("/resume", s.locked(s.resume))
	rg.POST("/reset", s.locked(s.reset))
}

// locked serialises access to the controller and coordinator, and clears
// the notes collected during the previous request.
func (s *Server) locked(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.notes.reset()
		h(c)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("Handled request.",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}
