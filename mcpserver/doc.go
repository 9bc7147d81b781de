// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package is the presentation boundary of the platform. It
// uses the mark3labs/mcp-go library to expose the core as tools:
// load_dataset and load_notebook for input, run_script for sandboxed
// execution, and extract_parameters / apply_parameter_edit for the
// interactive parameter controls. Uploaded datasets live in an in-memory
// session store; each run builds a fresh execution environment from the
// session's immutable table.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(cfg, logger, eng, catalog)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
