package main

import (
	"context"
	"fmt"
	"os"

	"audit-backend/internal/bootstrap"
	"audit-backend/internal/shared/config"
	"audit-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	addr := ":" + cfg.Port
	telemetry.Info("server.listen", map[string]any{
		"addr": addr,
		"env":  cfg.Env,
	})
	if err := app.Router.Run(addr); err != nil {
		telemetry.Error("server.exit", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
