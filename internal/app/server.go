package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoArmGo/UserManagerApp/internal/handler"
)

// runServer запускает HTTP-сервер и блокируется до отмены контекста
func (a *App) runServer(ctx context.Context) error {
	authHandler := handler.NewAuthHandler(a.authService, a.logger)
	userHandler := handler.NewUserHandler(a.registry, a.fetcher, a.exportPublisher, a.logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(a.Config.RequestTimeout))
	r.Use(handler.RequestLogger(a.logger))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.With(handler.Authenticate(a.authService, a.logger)).Get("/verify", authHandler.Verify)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(handler.Authenticate(a.authService, a.logger))

		r.Get("/", userHandler.ListUsers)
		r.Get("/api", userHandler.FetchFromAPI)
		r.Post("/save", userHandler.SaveUsers)
		r.Get("/search", userHandler.SearchUsers)
		r.Get("/download/csv", userHandler.DownloadCSV)
		r.Post("/sync/csv", userHandler.SyncCSV)
		r.Post("/export", userHandler.ExportCSV)
		r.Get("/{id}", userHandler.GetUserByID)
		r.Put("/{id}", userHandler.UpdateUser)
		r.Delete("/{id}", userHandler.DeleteUser)
	})

	serverAddr := fmt.Sprintf(":%s", a.Config.ServerPort)
	server := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("ошибка HTTP-сервера: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, stopping http server")

	ctxServer, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("http server stopped")
	return nil
}
