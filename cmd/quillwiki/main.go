package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/quillwiki/quillwiki/internal/server"
)

func main() {
	app := server.Setup()

	router := mux.NewRouter().StrictSlash(true)

	router.Use(app.SessionMiddleware)

	fs := http.FileServer(http.Dir("./static"))
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", fs))

	router.HandleFunc("/", app.HomeHandler).Methods("GET")
	router.HandleFunc("/search", app.SearchHandler).Methods("GET")

	router.HandleFunc("/pages/new", app.NewPageHandler).Methods("GET")
	router.HandleFunc("/pages/new", app.NewPagePostHandler).Methods("POST")
	router.HandleFunc("/wiki/{slug}", app.PageDispatcher).Methods("GET", "POST")

	router.HandleFunc("/user/register", app.RegisterHandler).Methods("GET")
	router.HandleFunc("/user/register", app.RegisterPostHandler).Methods("POST")
	router.HandleFunc("/user/login", app.LoginHandler).Methods("GET")
	router.HandleFunc("/user/login", app.LoginPostHandler).Methods("POST")
	router.HandleFunc("/user/logout", app.LogoutPostHandler).Methods("POST")

	router.HandleFunc("/moderation", app.ModerationQueueHandler).Methods("GET")
	router.HandleFunc("/moderation/submissions", app.MySubmissionsHandler).Methods("GET")
	router.HandleFunc("/moderation/{id:[0-9]+}", app.ModerationItemHandler).Methods("GET")
	router.HandleFunc("/moderation/{id:[0-9]+}/review", app.ModerationReviewPostHandler).Methods("POST")

	router.HandleFunc("/manage/dashboard", app.DashboardHandler).Methods("GET")
	router.HandleFunc("/manage/users", app.ManageUsersHandler).Methods("GET")
	router.HandleFunc("/manage/users/{id:[0-9]+}/role", app.ManageUserRoleHandler).Methods("POST")
	router.HandleFunc("/manage/settings", app.ManageSettingsHandler).Methods("GET")
	router.HandleFunc("/manage/settings", app.ManageSettingsPostHandler).Methods("POST")

	handler := handlers.RecoveryHandler()(server.SlogLoggingMiddleware(router))

	srv := &http.Server{
		Addr:    app.Config.Host,
		Handler: handler,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server starting", "url", "http://"+app.Config.Host)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
