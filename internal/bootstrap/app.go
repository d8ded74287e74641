package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"audit-backend/internal/audit"
	"audit-backend/internal/charts"
	"audit-backend/internal/email"
	"audit-backend/internal/jobs"
	"audit-backend/internal/llm"
	"audit-backend/internal/llm/groq"
	"audit-backend/internal/shared/config"
	"audit-backend/internal/shared/server"
	"audit-backend/internal/shared/telemetry"
	"audit-backend/internal/uploads"
)

// App holds the assembled service and the resources it owns.
type App struct {
	Router *gin.Engine
	Jobs   jobs.Store

	closers []func() error
}

// Close releases resources owned by the app, such as the Redis connection.
func (a *App) Close() error {
	var firstErr error
	for _, fn := range a.closers {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build wires the full dependency graph from configuration. A missing model
// provider key yields a nil client so requests surface 503 rather than
// failing startup; mail and Redis are likewise optional.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	telemetry.Configure(cfg.LogFile, cfg.LogLevel)

	app := &App{}

	var client llm.Client
	if cfg.GroqAPIKey != "" {
		gc, err := groq.NewClient(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqTimeout)
		if err != nil {
			return nil, fmt.Errorf("build groq client: %w", err)
		}
		client = gc
	} else {
		telemetry.Warn("bootstrap.no_provider_key", map[string]any{
			"hint": "set GROQ_API_KEY to enable analysis",
		})
	}
	adapter := audit.NewAdapter(client, cfg.GroqModel, cfg.AnalyzeMaxAttempts, cfg.AnalyzeRetryBackoff)

	renderer, err := charts.NewRenderer(cfg.ChartOutputDir)
	if err != nil {
		return nil, fmt.Errorf("init chart renderer: %w", err)
	}

	var mailer audit.Mailer
	if cfg.MailConfigured() {
		if cfg.ResendAPIKey != "" {
			mailer = email.NewResendMailer(cfg.ResendAPIKey, cfg.EmailFrom)
		} else {
			mailer = email.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)
		}
	} else {
		telemetry.Info("bootstrap.mail_disabled", nil)
	}

	var store jobs.Store
	if cfg.RedisURL != "" {
		rs, err := jobs.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.closers = append(app.closers, rs.Close)
		store = rs
	} else {
		store = jobs.NewMemoryStore()
	}
	app.Jobs = store

	pipeline := &audit.Pipeline{
		Adapter: adapter,
		Charts:  renderer,
		Mailer:  mailer,
		Jobs:    store,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Env:         cfg.Env,
		CORSOrigins: cfg.CORSAllowOrigin,
		Mounters: []server.RouteMounter{
			audit.NewHandler(pipeline),
			uploads.NewHandler(pipeline, store, renderer),
		},
	})

	return app, nil
}
