// Package mcp provides an MCP (Model Context Protocol) server adapter for Athena.
// It lets AI assistants search the policy index and pull assembled context.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
