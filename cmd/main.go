package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/desertthunder/mgx/internal/auth"
	"github.com/desertthunder/mgx/internal/services"
	"github.com/desertthunder/mgx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	httpClient := &http.Client{Timeout: config.Engine.Timeout()}
	engine := services.NewEngineService(config.Engine, httpClient)
	raw := services.NewRawService(config.Engine.BaseURL, httpClient)
	channel := auth.NewChannel(config.Engine.BaseURL, config.Callback, nil, logger)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Engine:  engine,
		Raw:     raw,
		Channel: channel,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "mgx",
		Usage:    "Migrate music libraries between streaming providers",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
