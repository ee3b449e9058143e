package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bisect/internal/config"
)

// ListenAndServe поднимает HTTP-сервер и гасит его при отмене ctx
func ListenAndServe(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	httpServer := &http.Server{
		Addr:        cfg.Addr,
		Handler:     NewServer(cfg, log),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
		// WriteTimeout не задаём: SSE-стримы долгие
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("сервер запущен", "addr", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("остановка сервера")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
