// Package mcp exposes grid search sessions to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes one REST request against
// a running server and the JSON reply is formatted as text.
//
// MCP Tools:
//   - create_session, generate_board, list_sessions: session management
//   - show_board, toggle_wall, set_start, set_end: board editing
//   - search, compare, search_history: running algorithms
//   - list_boards, list_algorithms, search_instructions: reference
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
