// Package session provides in-memory session management for the obstacle course game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Each session owns one game engine playing one question set, plus the tiles
// of that set's picture. Sessions use 4-character hex IDs generated from
// crypto/rand and are looked up case-insensitively. Game state is never
// written to disk: when the process exits the running games are gone.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	sess, err := manager.Create("", set, tileSet)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
package session
