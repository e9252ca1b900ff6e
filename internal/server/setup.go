package server

import (
	"log/slog"
	"os"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/microcosm-cc/bluemonday"
	"github.com/quillwiki/quillwiki/internal/config"
	"github.com/quillwiki/quillwiki/internal/storage"
	"github.com/quillwiki/quillwiki/templater"
	"github.com/quillwiki/quillwiki/wiki"
	"github.com/quillwiki/quillwiki/wiki/service"
	_ "modernc.org/sqlite"
)

// Setup initializes the application and returns the App instance.
func Setup() *App {
	modelConf := config.SetupConfig()

	bm := bluemonday.UGCPolicy()
	bm.AllowAttrs("class").Globally()
	bm.AllowAttrs("style").OnElements("ins", "del")
	bm.AllowAttrs("style").Matching(regexp.MustCompile(`^text-align:\s+(left|right|center);$`)).OnElements("td", "th")

	t := templater.New()
	if err := t.Load("templates/layouts/*.html", "templates/*.html"); err != nil {
		slog.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	conn, err := sqlx.Open("sqlite", modelConf.DatabaseFile)
	if err != nil {
		slog.Error("failed to open database", "file", modelConf.DatabaseFile, "error", err)
		os.Exit(1)
	}

	if err := storage.RunMigrations(conn); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	runtimeConfig, err := wiki.LoadRuntimeConfig(conn.DB)
	if err != nil {
		slog.Error("failed to load runtime config", "error", err)
		os.Exit(1)
	}

	database, err := storage.Init(conn, runtimeConfig)
	check(err)

	renderingService := service.NewRenderingService(bm)
	sessionService := service.NewSessionService(database)
	userService := service.NewUserService(database, runtimeConfig)
	pageService := service.NewPageService(database, renderingService)
	moderationService := service.NewModerationService(database, database, renderingService)
	statsService := service.NewStatsService(database, database, database)

	return &App{
		Templater:     t,
		Pages:         pageService,
		Users:         userService,
		Sessions:      sessionService,
		Rendering:     renderingService,
		Moderation:    moderationService,
		Stats:         statsService,
		Config:        modelConf,
		RuntimeConfig: runtimeConfig,
		DB:            conn.DB,
	}
}
