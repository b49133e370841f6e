// Package results archives the final scoreboard of finished games.
//
// Only completed games are recorded; live game state is never persisted.
// Three backends implement Store: FileStore (one JSON file per game),
// SQLiteStore (pure Go SQLite) and PostgresStore (pgx connection pool).
// Open picks one from Options.Driver.
package results
