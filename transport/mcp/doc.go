// Package mcp exposes the game to AI agents over the Model Context Protocol.
//
// Client registers one MCP tool per game operation and forwards each call to
// the REST API, formatting the JSON replies as plain text an agent can read.
// Because it only speaks HTTP, the same tools work against a local server or
// a remote one.
//
// Tools:
//   - list_question_sets, create_session, list_sessions, get_session
//   - game_state, square_prompt, attempt_square
//   - guess_obstacle, final_guess, reset_game, action_history
//   - list_results, game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
