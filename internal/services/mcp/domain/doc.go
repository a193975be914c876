// Package domain translates MCP tool calls into dice roller operations.
//
// Each tool pairs a definition (name and description) with a typed handler.
// Handlers talk to a roller, local or remote, and return structured outputs
// that MCP clients can render.
package domain
