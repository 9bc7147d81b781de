// Package main is the entry point for the ML platform MCP server.
//
// The server lets a client upload a tabular dataset, execute user scripts
// against it inside an embedded, time-budgeted sandbox, and tune numeric
// script parameters through extracted bindings. It supports both stdio and
// HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Acteus/Base-ML-Platform/config"
	"github.com/Acteus/Base-ML-Platform/engine"
	"github.com/Acteus/Base-ML-Platform/logger"
	"github.com/Acteus/Base-ML-Platform/mcpserver"
	"github.com/Acteus/Base-ML-Platform/params"
)

// newEngine builds the execution engine from configuration.
func newEngine(cfg *config.Config, log *zap.Logger) *engine.Engine {
	return engine.New(log,
		engine.WithDefaultTimeout(cfg.GetTimeout()),
		engine.WithMaxOutputBytes(cfg.GetMaxOutputBytes()),
		engine.WithMaxSteps(cfg.Engine.MaxSteps),
	)
}

// newCatalog loads the parameter pattern catalog, falling back to the
// built-in rules when none is configured.
func newCatalog(cfg *config.Config) (*params.Catalog, error) {
	if cfg.Params.CatalogPath == "" {
		return params.DefaultCatalog(), nil
	}
	return params.LoadCatalog(cfg.Params.CatalogPath)
}

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Script execution engine based on config
			newEngine,

			// Parameter pattern catalog
			newCatalog,

			// MCP Server
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, server *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "stdio":
					// Use fx to run this as a background task
					go func() {
						if err := server.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := server.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}
