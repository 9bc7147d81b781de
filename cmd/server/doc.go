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
