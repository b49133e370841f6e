// Command obstacle-course runs the Obstacle Course quiz server.
//
// It supports two modes:
//  1. "serve" (default) runs the HTTP server exposing the REST API, the
//     WebSocket feed and an /mcp endpoint
//  2. "mcp" serves MCP over stdio, reusing a running server or starting an
//     internal one on a loopback port
//
// Settings come from obstacle.yaml, OBSTACLE_* environment variables and the
// flags below, in increasing order of precedence.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/obstacle-course/api"
	"github.com/wricardo/obstacle-course/appconfig"
	"github.com/wricardo/obstacle-course/game/config"
	"github.com/wricardo/obstacle-course/game/results"
	"github.com/wricardo/obstacle-course/game/service"
	"github.com/wricardo/obstacle-course/game/session"
	"github.com/wricardo/obstacle-course/logging"
	"github.com/wricardo/obstacle-course/transport/mcp"
	"github.com/wricardo/obstacle-course/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Obstacle Course Server"
)

func main() {
	// A missing .env file is fine
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "obstacle-course",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a config file (default: ./obstacle.yaml if present)"},
			&cli.StringFlag{Name: "env", Usage: "development or production"},
			&cli.StringFlag{Name: "host", Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "problems-dir", Usage: "directory with questions_<id>.json and image_<id>.png"},
			&cli.IntFlag{Name: "canvas-size", Usage: "square canvas the picture is resized to, 0 keeps native size"},
			&cli.StringFlag{Name: "results-driver", Usage: "none, file, sqlite or postgres"},
			&cli.StringFlag{Name: "results-path", Usage: "directory or database file for the file and sqlite drivers"},
			&cli.StringFlag{Name: "results-dsn", Usage: "PostgreSQL connection string"},
			&cli.BoolFlag{Name: "ngrok", Usage: "expose the server through an ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain"},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "serve MCP over stdio",
				Action: runStdioMCP,
			},
		},
	}
}

// loadConfig reads the config file and environment, then applies flags
func loadConfig(cmd *cli.Command) (*appconfig.Config, error) {
	cfg, err := appconfig.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("env") {
		cfg.Env = cmd.String("env")
	}
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("problems-dir") {
		cfg.ProblemsDir = cmd.String("problems-dir")
	}
	if cmd.IsSet("canvas-size") {
		cfg.Image.CanvasSize = int(cmd.Int("canvas-size"))
	}
	if cmd.IsSet("results-driver") {
		cfg.Results.Driver = cmd.String("results-driver")
	}
	if cmd.IsSet("results-path") {
		cfg.Results.Path = cmd.String("results-path")
	}
	if cmd.IsSet("results-dsn") {
		cfg.Results.DSN = cmd.String("results-dsn")
	}
	if cmd.IsSet("ngrok") {
		cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-domain") {
		cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wired components of a running server
type app struct {
	cfg      *appconfig.Config
	logger   *zap.Logger
	sessions *session.Manager
	store    results.Store
	service  service.GameService
	hub      *websocket.Hub
	api      *api.Server
}

// newApp wires the question bank, sessions, results archive, game service,
// WebSocket hub and REST API.
func newApp(ctx context.Context, cfg *appconfig.Config, logger *zap.Logger) (*app, error) {
	bank, err := config.NewManager(cfg.ProblemsDir, cfg.Image.CanvasSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create question bank: %w", err)
	}

	store, err := results.Open(ctx, results.Options{
		Driver: cfg.Results.Driver,
		Path:   cfg.Results.Path,
		DSN:    cfg.Results.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open results archive: %w", err)
	}

	sessions := session.NewManager(logger)

	var resultStore service.ResultStore
	if store != nil {
		resultStore = store
	}
	gameService := service.NewGameService(sessions, bank, resultStore, logger)

	hub := websocket.NewHub(logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		sessions: sessions,
		store:    store,
		service:  gameService,
		hub:      hub,
		api:      api.NewServer(gameService, hub, logger),
	}, nil
}

// handler mounts the REST API at the root and the MCP endpoint at /mcp
func (a *app) handler(baseURL string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", a.api)
	mux.Handle("/mcp", mcp.NewClient(baseURL))
	return mux
}

// startCleanup schedules removal of sessions idle longer than session.max_age
func (a *app) startCleanup() (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(a.cfg.Session.CleanupSchedule, func() {
		if removed := a.sessions.CleanupExpiredSessions(a.cfg.Session.MaxAge); removed > 0 {
			a.logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule: %w", err)
	}
	c.Start()
	return c, nil
}

func (a *app) close() {
	a.hub.Stop()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close results archive", zap.Error(err))
		}
	}
}

// localURL is the address this process uses to reach its own API
func localURL(s appconfig.Server) string {
	host := s.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(s.Port)))
}

// runServe starts the HTTP server and, when enabled, an ngrok tunnel.
// It returns after SIGINT or SIGTERM once everything has shut down.
func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()
	go a.hub.Run()

	scheduler, err := a.startCleanup()
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	addr := cfg.Server.Addr()
	handler := a.handler(localURL(cfg.Server))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", localURL(cfg.Server)+"/api"),
			zap.String("mcp", localURL(cfg.Server)+"/mcp"),
			zap.String("problems_dir", cfg.ProblemsDir),
			zap.String("results_driver", cfg.Results.Driver))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runTunnel(ctx, cfg.Ngrok, handler, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")
	return nil
}

// runTunnel serves handler through ngrok until ctx is cancelled
func runTunnel(ctx context.Context, cfg appconfig.Ngrok, handler http.Handler, logger *zap.Logger) {
	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	logger.Info("ngrok tunnel established",
		zap.String("url", tun.URL()),
		zap.String("websocket", tun.URL()+"/ws?session=<session_id>"))

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// runStdioMCP serves MCP over stdio. It reuses a server already listening on
// the configured port and otherwise starts an internal API on a random
// loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.NewStdio(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	baseURL := localURL(cfg.Server)
	if !apiAvailable(ctx, baseURL) {
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()
		go a.hub.Run()

		scheduler, err := a.startCleanup()
		if err != nil {
			return err
		}
		defer func() { <-scheduler.Stop().Done() }()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		internal := &http.Server{Handler: a.api}
		go func() {
			if err := internal.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer internal.Close()

		logger.Info("started internal HTTP server for MCP stdio", zap.String("url", baseURL))
	} else {
		logger.Info("using external API server for MCP stdio", zap.String("url", baseURL))
	}

	client := mcp.NewClient(baseURL)
	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a healthy server answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
