// Package logging builds the zap loggers used across the server.
package logging

import "go.uber.org/zap"

// New returns a JSON production logger for the production environment and a
// human-readable development logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// NewStdio returns a logger that never writes to stdout, for use when stdout
// carries the MCP protocol.
func NewStdio(env string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
