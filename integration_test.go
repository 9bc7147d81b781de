package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Acteus/Base-ML-Platform/config"
	"github.com/Acteus/Base-ML-Platform/dataset"
	"github.com/Acteus/Base-ML-Platform/engine"
	"github.com/Acteus/Base-ML-Platform/logger"
	"github.com/Acteus/Base-ML-Platform/mcpserver"
	"github.com/Acteus/Base-ML-Platform/params"
)

// TestIntegrationConfigLoggerEngine tests the integration between the config,
// logger and engine packages
func TestIntegrationConfigLoggerEngine(t *testing.T) {
	t.Run("ConfigAndLoggerIntegration", func(t *testing.T) {
		cfg := &config.Config{
			Server: config.ServerConfig{
				Transport: "stdio",
				HTTPPort:  8080,
			},
			Engine: config.EngineConfig{
				TimeoutSec:  30,
				MaxOutputKB: 256,
				DatasetName: "df",
			},
			Logging: config.LoggingConfig{
				Mode:  "development",
				Level: "debug",
			},
		}

		// Create logger using config
		testLogger, err := logger.NewFromConfig(cfg)
		require.NoError(t, err)
		require.NotNil(t, testLogger)

		testLogger.Info("Integration test started")
		_ = testLogger.Sync()
	})

	t.Run("FullMCPIntegration", func(t *testing.T) {
		cfg := &config.Config{
			Server: config.ServerConfig{
				Transport: "stdio",
				HTTPPort:  8080,
			},
			Engine: config.EngineConfig{
				TimeoutSec:  5, // Short timeout for tests
				MaxOutputKB: 64,
				DatasetName: "df",
			},
			Logging: config.LoggingConfig{
				Mode:  "development",
				Level: "info",
			},
		}

		mcpLogger, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
		require.NoError(t, err)

		eng := engine.New(mcpLogger,
			engine.WithDefaultTimeout(cfg.GetTimeout()),
			engine.WithMaxOutputBytes(cfg.GetMaxOutputBytes()),
		)

		server, err := mcpserver.New(cfg, mcpLogger, eng, params.DefaultCatalog())
		require.NoError(t, err)
		require.NotNil(t, server)

		// Test that tools are registered
		mcpServer := server.GetMCPServer()
		require.NotNil(t, mcpServer)
	})
}

// TestIntegrationAnalysisLoop exercises the load / run / extract / edit / run
// cycle end to end through the library packages
func TestIntegrationAnalysisLoop(t *testing.T) {
	testLogger := zaptest.NewLogger(t)
	ctx := context.Background()

	// Load a dataset the way the load_dataset tool does
	csvData := []byte("feature,target\n1.0,2.0\n2.0,4.1\n3.0,5.9\n4.0,8.2\n")
	tbl, err := dataset.Load(csvData, dataset.FormatCSV)
	require.NoError(t, err)
	require.Equal(t, 4, tbl.NumRows())

	eng := engine.New(testLogger, engine.WithDefaultTimeout(5*time.Second))
	catalog := params.DefaultCatalog()

	script := "n_bins = 2\n" +
		"values = df.column(\"target\")\n" +
		"total = 0.0\n" +
		"for v in values:\n" +
		"    total += v\n" +
		"mean = total / df.num_rows\n" +
		"print(\"mean:\", mean)\n" +
		"result_df = df.head(n_bins)\n" +
		"fig = plot.hist(values, bins=n_bins)\n"

	t.Run("RunScriptAgainstDataset", func(t *testing.T) {
		env := engine.NewEnvironment("df", tbl)
		res := eng.Run(ctx, script, env, 0)

		require.Nil(t, res.Err)
		assert.Equal(t, engine.StatusSuccess, res.Status)
		assert.Contains(t, res.Stdout, "mean:")

		require.Len(t, res.Tables, 1)
		assert.Equal(t, "result_df", res.Tables[0].Name)
		require.Len(t, res.Figures, 1)
		assert.Equal(t, "fig", res.Figures[0].Name)

		mean, ok := res.Variable("mean")
		require.True(t, ok)
		assert.InDelta(t, 5.05, mean.Value.(float64), 0.001)
	})

	t.Run("TuneParameterAndRerun", func(t *testing.T) {
		bindings := params.Extract(script, catalog)
		require.NotEmpty(t, bindings)
		assert.Equal(t, "n_bins", bindings[0].Name)

		edited, err := params.ApplyEdit(script, bindings[0], 3)
		require.NoError(t, err)
		assert.Contains(t, edited, "n_bins = 3")

		env := engine.NewEnvironment("df", tbl)
		res := eng.Run(ctx, edited, env, 0)
		require.Nil(t, res.Err)

		require.Len(t, res.Tables, 1)
		assert.Equal(t, 3, res.Tables[0].Table.NumRows())
	})

	t.Run("DatasetSurvivesRuns", func(t *testing.T) {
		// The loaded table is immutable: runs never change it
		assert.Equal(t, 4, tbl.NumRows())
		assert.Equal(t, []string{"feature", "target"}, tbl.Columns())
	})
}
