package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vk/pipecanvas/internal/api"
	"github.com/vk/pipecanvas/internal/broadcast"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Version is reported by the health endpoint.
var Version = "dev"

// serve runs the editor API and the socket.io event hub until ctx is done.
func (a *App) serve(ctx context.Context) error {
	ctrl, coord, err := a.newEditor(ctx)
	if err != nil {
		return err
	}

	setGinMode(a.config.LogLevel)
	hub := broadcast.NewServer(a.logger)
	defer hub.Close()
	coord.AddListener(broadcast.NewObserver(hub.Emit, coord.RunID))

	editor := api.New(api.Config{
		Controller:   ctrl,
		Coordinator:  coord,
		Broadcast:    hub,
		Logger:       a.logger,
		ServiceName:  "pipecanvas",
		Version:      Version,
		AllowOrigins: a.config.AllowOrigins,
	})

	ln, err := net.Listen("tcp", a.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.ListenAddr, err)
	}
	httpServer := &http.Server{
		Handler:           editor.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("🌐 Editor server starting.", "address", ln.Addr().String())
		if a.onListen != nil {
			a.onListen(ln.Addr().String())
		}
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("editor server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.logger.Info("Shutting down editor server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Editor server shutdown failed.", "error", err)
			return err
		}
		a.logger.Debug("Editor server shut down gracefully.")
		return nil
	})
	return g.Wait()
}

// setGinMode keeps gin's route dump and debug warnings for debug logging only.
func setGinMode(level string) {
	if level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
}
