// Command mergeblocks starts the Merge Blocks game server.
//
// It supports two commands:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config and session directories, the records
// store, debug logging, and optional ngrok tunneling for easy external
// access during development. Every flag can also be set from the
// environment or a .env file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/mergeblocks/api"
	"github.com/wricardo/mcp-training/mergeblocks/game/config"
	"github.com/wricardo/mcp-training/mergeblocks/game/engine"
	"github.com/wricardo/mcp-training/mergeblocks/game/records"
	"github.com/wricardo/mcp-training/mergeblocks/game/service"
	"github.com/wricardo/mcp-training/mergeblocks/game/session"
	"github.com/wricardo/mcp-training/mergeblocks/transport/mcp"
	"github.com/wricardo/mcp-training/mergeblocks/transport/websocket"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Version information
const (
	Version = "1.0.0"
	AppName = "Merge Blocks Server"
)

const (
	sessionMaxAge        = 24 * time.Hour
	sessionCleanupPeriod = time.Hour
	filesystemSyncPeriod = 5 * time.Second
	comboTickPeriod      = 250 * time.Millisecond
	externalAPIURL       = "http://localhost:8080"
)

// main loads .env, builds the command tree and runs it.
func main() {
	// Load .env before flags read their environment sources
	envErr := godotenv.Load()

	cmd := newCommand()
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", envErr)
	}
}

// newCommand builds the root command with its flags and subcommands.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "mergeblocks",
		Usage:   "Merge Blocks game server with REST, WebSocket and MCP interfaces",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "Directory where sessions are persisted",
				Sources: cli.EnvVars("SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Usage:   "Optional directory served at / for a browser client",
				Sources: cli.EnvVars("STATIC_DIR"),
			},
			&cli.StringFlag{
				Name:    "store",
				Value:   "memory",
				Usage:   "Records store: memory, sqlite or redis",
				Sources: cli.EnvVars("RECORDS_STORE"),
			},
			&cli.StringFlag{
				Name:    "sqlite-path",
				Value:   "data/records.db",
				Usage:   "SQLite database file for --store=sqlite",
				Sources: cli.EnvVars("SQLITE_PATH"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Value:   "localhost:6379",
				Usage:   "Redis address for --store=redis",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioMCP,
			},
		},
	}
}

// settings is the resolved flag set shared by every command.
type settings struct {
	Host        string
	Port        int
	ConfigDir   string
	SessionsDir string
	StaticDir   string
	Store       string
	SQLitePath  string
	RedisAddr   string
	Debug       bool
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

func settingsFrom(cmd *cli.Command) settings {
	return settings{
		Host:        cmd.String("host"),
		Port:        cmd.Int("port"),
		ConfigDir:   cmd.String("config-dir"),
		SessionsDir: cmd.String("sessions-dir"),
		StaticDir:   cmd.String("static-dir"),
		Store:       cmd.String("store"),
		SQLitePath:  cmd.String("sqlite-path"),
		RedisAddr:   cmd.String("redis-addr"),
		Debug:       cmd.Bool("debug"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokAuth:   cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
	}
}

func (s settings) addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// newLogger returns a development logger with --debug, a production one otherwise.
// Both write to stderr, which keeps stdout free for the MCP stdio transport.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// services bundles everything the commands need to serve the game.
type services struct {
	Game        service.GameService
	Sessions    *session.Manager
	Configs     *config.Manager
	Persistence *session.FilePersistence
	Store       records.Store
	logger      *zap.Logger
}

// Close flushes sessions to disk and releases the records store.
func (s *services) Close() {
	if err := s.Sessions.SaveAllSessions(); err != nil {
		s.logger.Warn("failed to save sessions on shutdown", zap.Error(err))
	}
	if err := s.Store.Close(); err != nil {
		s.logger.Warn("failed to close records store", zap.Error(err))
	}
}

// initializeServices wires config and session managers, the records store
// and the game service.
func initializeServices(ctx context.Context, cfg settings, logger *zap.Logger) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(cfg.ConfigDir, config.WithLogger(logger.Named("config")))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(cfg.SessionsDir, configManager,
		engine.WithLogger(logger.Named("engine")))
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence, session.WithLogger(logger.Named("session")))
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn("failed to load persisted sessions", zap.Error(err))
	}

	store, err := records.Open(ctx, records.Options{
		Kind:       cfg.Store,
		SQLitePath: cfg.SQLitePath,
		RedisAddr:  cfg.RedisAddr,
		Logger:     logger.Named("records"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open records store: %w", err)
	}

	gameService := service.NewGameService(sessionManager, configManager, store,
		service.WithLogger(logger.Named("service")))

	return &services{
		Game:        gameService,
		Sessions:    sessionManager,
		Configs:     configManager,
		Persistence: persistence,
		Store:       store,
		logger:      logger,
	}, nil
}

// startBackground launches the maintenance routines. They stop when ctx is done.
func startBackground(ctx context.Context, wg *sync.WaitGroup, svc *services, hub *websocket.Hub) {
	routines := []func(context.Context){
		func(ctx context.Context) { sessionCleanupRoutine(ctx, svc.Sessions, svc.logger, sessionCleanupPeriod) },
		func(ctx context.Context) {
			filesystemSyncRoutine(ctx, svc.Sessions, svc.Persistence, svc.logger, filesystemSyncPeriod)
		},
		func(ctx context.Context) { comboTickRoutine(ctx, svc.Game, hub, comboTickPeriod) },
		func(ctx context.Context) {
			if err := svc.Configs.Watch(ctx); err != nil {
				svc.logger.Warn("config hot reload disabled", zap.Error(err))
			}
		},
	}
	for _, routine := range routines {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(routine)
	}
}

// newMainRouter mounts the API server at / and the MCP proxy at /mcp.
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mainRouter
}

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, cmd *cli.Command) error {
	cfg := settingsFrom(cmd)
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "server"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := initializeServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	var wg sync.WaitGroup

	hub := websocket.NewHub(websocket.WithLogger(logger.Named("websocket")))
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	startBackground(ctx, &wg, svc, hub)

	apiOpts := []api.Option{api.WithLogger(logger.Named("api"))}
	if cfg.StaticDir != "" {
		apiOpts = append(apiOpts, api.WithStaticDir(cfg.StaticDir))
	}
	apiServer := api.NewServer(svc.Game, hub, apiOpts...)

	addr := cfg.addr()
	mcpClient := mcp.NewClient("http://" + addr)
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?session=<session_id>"),
			zap.String("mcp", "http://"+addr+"/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cfg.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, mainRouter, logger.Named("ngrok"))
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("HTTP server failed: %w", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("server stopped")
	return runErr
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done.
func runNgrokTunnel(ctx context.Context, cfg settings, handler http.Handler, logger *zap.Logger) {
	if cfg.NgrokAuth == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logger.Info("using custom ngrok domain", zap.String("domain", cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	ngrokURL := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("api", ngrokURL+"/api"),
		zap.String("mcp", ngrokURL+"/mcp"))

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()
	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within sessionMaxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, logger *zap.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				logger.Info("cleaned up expired sessions", zap.Int("count", removed))
			}
		}
	}
}

// filesystemSyncRoutine periodically removes sessions from memory when their
// files were deleted from the sessions directory.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, logger *zap.Logger, every time.Duration) {
	if persistence == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := syncWithFilesystem(manager, persistence, logger); pruned > 0 {
				logger.Info("filesystem sync pruned orphaned sessions", zap.Int("count", pruned))
			}
		}
	}
}

func syncWithFilesystem(manager *session.Manager, persistence session.SessionPersistence, logger *zap.Logger) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Debug("pruned session from memory (file deleted)", zap.String("session", sess.ID))
		}
	}
	return pruned
}

// comboTickRoutine expires combo chains whose window passed and pushes the
// combo_ended event to the session's WebSocket clients.
func comboTickRoutine(ctx context.Context, svc service.GameService, hub *websocket.Hub, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, result := range svc.TickAll(ctx) {
				if hub != nil {
					hub.BroadcastEvents(result.SessionID, result.Events, result.GameState)
				}
			}
		}
	}
}

// runStdioMCP runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	cfg := settingsFrom(cmd)
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("mode", "stdio-mcp"))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := externalAPIURL
	if !apiAvailable(ctx, externalAPIURL) {
		logger.Info("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer svc.Close()

		internalURL, shutdown, err := startInternalServer(ctx, svc, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	} else {
		logger.Info("external API server found, using it for MCP", zap.String("url", externalAPIURL))
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiAvailable reports whether a game API answers at baseURL.
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// startInternalServer serves the API on a random loopback port and returns its
// base URL together with a shutdown func.
func startInternalServer(ctx context.Context, svc *services, logger *zap.Logger) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	hub := websocket.NewHub(websocket.WithLogger(logger.Named("websocket")))
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	startBackground(ctx, &wg, svc, hub)

	httpServer := &http.Server{Handler: api.NewServer(svc.Game, hub, api.WithLogger(logger.Named("api")))}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("internal HTTP server error", zap.Error(err))
		}
	}()

	baseURL := "http://" + listener.Addr().String()
	logger.Info("internal HTTP server started", zap.String("url", baseURL))

	shutdown := func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		httpServer.Shutdown(shutdownCtx)
		wg.Wait()
	}
	return baseURL, shutdown, nil
}
