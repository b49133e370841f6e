// Package service provides the business logic layer for the obstacle course game.
//
// The service package implements:
//   - Multi-session game management
//   - Question set loading and listing
//   - Square attempts, obstacle guesses and the final guess
//   - Tile rendering for revealed squares
//   - Archiving of finished games
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// QuestionBank loads question sets and their pictures.
// ResultStore archives the scoreboard of finished games.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Every session owns its own engine and every mutation holds
// the service lock, so one action is fully applied before the next one starts.
//
// Usage:
//
//	sessions := session.NewManager(logger)
//	bank, _ := config.NewManager("problems", tiles.DefaultCanvasSize)
//	gameService := service.NewGameService(sessions, bank, store, logger)
//
//	info, err := gameService.CreateSession(ctx, "001")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	prompt, _ := gameService.GetPrompt(ctx, info.ID, 13)
//	resp, err := gameService.Attempt(ctx, info.ID, 13, answer)
package service
