package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/server"
)

func main() {
	app := &cli.App{
		Name:  "cterminal-bridge",
		Usage: "serve the CTerminal backend over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file applied over environment settings",
			},
			&cli.StringFlag{
				Name:  "port",
				Usage: "Gateway port (overrides PORT)",
			},
			&cli.StringFlag{
				Name:  "admin-port",
				Usage: "Health and metrics port (overrides ADMIN_PORT)",
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "Backend working directory (overrides BACKEND_ROOT)",
			},
			&cli.StringFlag{
				Name:  "bin",
				Usage: "Backend executable, relative to root unless absolute (overrides BACKEND_BIN)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "One of [debug,info,warn,error] (overrides LOG_LEVEL)",
			},
			&cli.BoolFlag{
				Name:  "dev",
				Usage: "Colored console logs at debug level",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	if path := c.String("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return fmt.Errorf("setting config file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logCfg.Level = cfg.Logging.Level

	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("port") {
		cfg.Server.Port = c.String("port")
	}
	if c.IsSet("admin-port") {
		cfg.Admin.Port = c.String("admin-port")
	}
	if c.IsSet("root") {
		cfg.Backend.Root = c.String("root")
	}
	if c.IsSet("bin") {
		cfg.Backend.Executable = c.String("bin")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.Bool("dev") {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
}
