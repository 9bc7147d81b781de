package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/Acteus/Base-ML-Platform/config"
	"github.com/Acteus/Base-ML-Platform/dataset"
	"github.com/Acteus/Base-ML-Platform/engine"
	"github.com/Acteus/Base-ML-Platform/notebook"
	"github.com/Acteus/Base-ML-Platform/params"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	engine    *engine.Engine
	catalog   *params.Catalog
	sessions  *sessionStore
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, eng *engine.Engine, catalog *params.Catalog) (*MCPServer, error) {
	s := &MCPServer{
		config:   cfg,
		logger:   logger,
		engine:   eng,
		catalog:  catalog,
		sessions: newSessionStore(),
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.Int("engine.timeout_sec", cfg.Engine.TimeoutSec),
		zap.Int("engine.max_output_kb", cfg.Engine.MaxOutputKB),
		zap.Uint64("engine.max_steps", cfg.Engine.MaxSteps),
		zap.String("engine.dataset_name", cfg.Engine.DatasetName),
		zap.String("params.catalog_path", cfg.Params.CatalogPath),
	)

	s.mcpServer = server.NewMCPServer("ml-platform", "Dataset analysis platform: script execution and parameter tuning")

	s.registerLoadDatasetTool()
	s.registerLoadNotebookTool()
	s.registerRunScriptTool()
	s.registerExtractParametersTool()
	s.registerApplyParameterEditTool()

	return s, nil
}

// registerLoadDatasetTool registers the load_dataset tool
func (s *MCPServer) registerLoadDatasetTool() {
	tool := mcp.Tool{
		Name:        "load_dataset",
		Description: "Load a tabular dataset from file bytes and open a session for it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"format": map[string]any{
					"type":        "string",
					"description": "Dataset file format",
					"enum":        []string{"csv", "json", "jsonl", "xlsx", "xls", "parquet"},
				},
				"data_base64": map[string]any{
					"type":        "string",
					"description": "Base64-encoded file contents",
				},
			},
			Required: []string{"format", "data_base64"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleLoadDataset)
}

func (s *MCPServer) handleLoadDataset(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := request.RequireString("format")
	if err != nil {
		return nil, fmt.Errorf("format parameter is required: %w", err)
	}
	encoded, err := request.RequireString("data_base64")
	if err != nil {
		return nil, fmt.Errorf("data_base64 parameter is required: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data_base64: %w", err)
	}

	tbl, err := dataset.Load(data, dataset.Format(format))
	if err != nil {
		s.logger.Warn("dataset load failed", zap.String("format", format), zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to load dataset: %v", err)), nil
	}

	id := s.sessions.Put(tbl)
	s.logger.Info("dataset loaded",
		zap.String("session_id", id),
		zap.String("format", format),
		zap.Int("rows", tbl.NumRows()),
		zap.Int("cols", tbl.NumCols()))

	return jsonResult(map[string]any{
		"session_id": id,
		"info":       tbl.Info(),
	})
}

// registerLoadNotebookTool registers the load_notebook tool
func (s *MCPServer) registerLoadNotebookTool() {
	tool := mcp.Tool{
		Name:        "load_notebook",
		Description: "Extract the code cells of a Jupyter notebook as a runnable script",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"data_base64": map[string]any{
					"type":        "string",
					"description": "Base64-encoded .ipynb contents",
				},
			},
			Required: []string{"data_base64"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleLoadNotebook)
}

func (s *MCPServer) handleLoadNotebook(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded, err := request.RequireString("data_base64")
	if err != nil {
		return nil, fmt.Errorf("data_base64 parameter is required: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data_base64: %w", err)
	}

	nb, err := notebook.Parse(data)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to parse notebook: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"script":  nb.Code(),
		"summary": nb.Summary(),
	})
}

// registerRunScriptTool registers the run_script tool
func (s *MCPServer) registerRunScriptTool() {
	tool := mcp.Tool{
		Name:        "run_script",
		Description: "Execute a user script against a loaded dataset in the sandboxed engine",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session id returned by load_dataset",
				},
				"script": map[string]any{
					"type":        "string",
					"description": "User-provided script text",
				},
				"timeout_sec": map[string]any{
					"type":        "number",
					"description": "Wall-clock budget in seconds (optional, defaults to the configured budget)",
				},
			},
			Required: []string{"session_id", "script"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleRunScript)
}

func (s *MCPServer) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return nil, fmt.Errorf("session_id parameter is required: %w", err)
	}
	script, err := request.RequireString("script")
	if err != nil {
		return nil, fmt.Errorf("script parameter is required: %w", err)
	}

	tbl, ok := s.sessions.Get(sessionID)
	if !ok {
		return errorResult(fmt.Sprintf("Unknown session: %s", sessionID)), nil
	}

	timeout := s.config.GetTimeout()
	if sec := request.GetFloat("timeout_sec", 0); sec > 0 {
		timeout = time.Duration(sec * float64(time.Second))
	}

	s.logger.Info("script execution requested",
		zap.String("session_id", sessionID),
		zap.Int("script_bytes", len(script)),
		zap.Duration("timeout", timeout))

	// A fresh environment per run: nothing leaks between runs or sessions.
	env := engine.NewEnvironment(s.config.Engine.DatasetName, tbl)
	result := s.engine.Run(ctx, script, env, timeout)

	s.logger.Info("script execution completed",
		zap.String("session_id", sessionID),
		zap.String("run_id", result.RunID),
		zap.String("status", string(result.Status)))

	return jsonResult(result)
}

// registerExtractParametersTool registers the extract_parameters tool
func (s *MCPServer) registerExtractParametersTool() {
	tool := mcp.Tool{
		Name:        "extract_parameters",
		Description: "Detect tunable numeric parameters in a script and suggest control bounds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"script": map[string]any{
					"type":        "string",
					"description": "Script text to scan",
				},
			},
			Required: []string{"script"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleExtractParameters)
}

// parameterJSON is a Binding with its derived control hint attached.
type parameterJSON struct {
	params.Binding
	Hint params.Hint `json:"hint"`
}

func (s *MCPServer) handleExtractParameters(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	script, err := request.RequireString("script")
	if err != nil {
		return nil, fmt.Errorf("script parameter is required: %w", err)
	}

	bindings := params.Extract(script, s.catalog)
	out := make([]parameterJSON, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, parameterJSON{Binding: b, Hint: b.Hint()})
	}

	return jsonResult(map[string]any{"parameters": out})
}

// registerApplyParameterEditTool registers the apply_parameter_edit tool
func (s *MCPServer) registerApplyParameterEditTool() {
	tool := mcp.Tool{
		Name:        "apply_parameter_edit",
		Description: "Rewrite one tunable parameter's literal value in a script, leaving everything else unchanged",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"script": map[string]any{
					"type":        "string",
					"description": "Script text to edit",
				},
				"name": map[string]any{
					"type":        "string",
					"description": "Parameter identifier",
				},
				"value": map[string]any{
					"type":        "number",
					"description": "New parameter value",
				},
			},
			Required: []string{"script", "name", "value"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleApplyParameterEdit)
}

func (s *MCPServer) handleApplyParameterEdit(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	script, err := request.RequireString("script")
	if err != nil {
		return nil, fmt.Errorf("script parameter is required: %w", err)
	}
	name, err := request.RequireString("name")
	if err != nil {
		return nil, fmt.Errorf("name parameter is required: %w", err)
	}
	value, err := request.RequireFloat("value")
	if err != nil {
		return nil, fmt.Errorf("value parameter is required: %w", err)
	}

	var target *params.Binding
	for _, b := range params.Extract(script, s.catalog) {
		if b.Name == name {
			bb := b
			target = &bb
			break
		}
	}
	if target == nil {
		return errorResult(fmt.Sprintf("No tunable parameter named %q", name)), nil
	}

	edited, err := params.ApplyEdit(script, *target, value)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to apply edit: %v", err)), nil
	}

	return jsonResult(map[string]any{"script": edited})
}

// jsonResult marshals v as the textual content of a successful tool call.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: string(data)},
		},
	}, nil
}

// errorResult reports a domain failure as tool output rather than a
// protocol error.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server for fx
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
