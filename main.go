// backend/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	initLogger(cfg.LogLevel)

	store, err := OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}
	if err := store.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	app, err := NewApp(cfg, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("portfolio backend listening", "addr", srv.Addr, "db", cfg.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", a.Login)
	mux.HandleFunc("GET /me", a.auth.RequireAuth(a.Me))
	mux.HandleFunc("GET /healthz", a.Healthz)

	// Public reads
	mux.HandleFunc("GET /home", a.GetHome)
	mux.HandleFunc("GET /about", a.GetAbout)
	mux.HandleFunc("GET /contacts", a.GetContacts)
	mux.HandleFunc("GET /skills", a.GetSkills)
	mux.HandleFunc("GET /skills/{id}", a.GetSkill)
	mux.HandleFunc("GET /projects", a.GetProjects)
	mux.HandleFunc("GET /projects/{id}", a.GetProject)
	mux.Handle("GET /uploads/", a.uploads.Handler())

	// Writes need a bearer token
	mux.HandleFunc("POST /home", a.auth.RequireAuth(a.SaveHome))
	mux.HandleFunc("POST /about", a.auth.RequireAuth(a.SaveAbout))
	mux.HandleFunc("POST /contacts", a.auth.RequireAuth(a.SaveContacts))
	mux.HandleFunc("POST /skills", a.auth.RequireAuth(a.CreateSkill))
	mux.HandleFunc("DELETE /skills", a.auth.RequireAuth(a.DeleteSkill))
	mux.HandleFunc("POST /projects", a.auth.RequireAuth(a.CreateProject))
	mux.HandleFunc("DELETE /projects", a.auth.RequireAuth(a.DeleteProject))

	// An empty origin list allows every origin.
	c := cors.New(cors.Options{
		AllowedOrigins: a.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
	})

	return withRequestID(withRequestLog(c.Handler(mux)))
}
