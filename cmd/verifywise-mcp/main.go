// ABOUTME: Entry point for the verifywise-mcp server.
// ABOUTME: Exposes the VerifyWise AI-governance platform as MCP tools.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/verifywise-oss/verifywise-mcp/internal/client"
	"github.com/verifywise-oss/verifywise-mcp/internal/config"
	"github.com/verifywise-oss/verifywise-mcp/internal/mcp"
	"github.com/verifywise-oss/verifywise-mcp/internal/packs"
	"github.com/verifywise-oss/verifywise-mcp/internal/session"
	"github.com/verifywise-oss/verifywise-mcp/internal/tools"
	"github.com/verifywise-oss/verifywise-mcp/internal/vwerr"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                 _  __                   _
__   _____ _ __(_)/ _|_   ___      _(_)___  ___
\ \ / / _ \ '__| | |_| | | \ \ /\ / / / __|/ _ \
 \ V /  __/ |  | |  _| |_| |\ V  V /| \__ \  __/
  \_/ \___|_|  |_|_|  \__, | \_/\_/ |_|___/\___|
                      |___/
`

// getConfigPath returns the path to the config file.
// Priority: VERIFYWISE_CONFIG env var > XDG_CONFIG_HOME/verifywise-mcp/config.yaml
// > ~/.config/verifywise-mcp/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("VERIFYWISE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "verifywise-mcp", "config.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: verifywise-mcp <command>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  serve      Start the MCP server")
		fmt.Fprintln(os.Stderr, "  health     Check connectivity to the VerifyWise API")
		fmt.Fprintln(os.Stderr, "  tools      List the registered tools")
		fmt.Fprintln(os.Stderr, "  version    Print the version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "tools":
		err = runTools()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildServer wires config through session manager, access layer, tool
// packs, and the MCP server.
func buildServer(cfg *config.Config, logger *slog.Logger) (*mcp.Server, *session.Manager, error) {
	sessions, err := session.NewManager(session.Config{
		BaseURL:              cfg.VerifyWise.BaseURL,
		Email:                cfg.VerifyWise.Email,
		Password:             cfg.VerifyWise.Password,
		ExpiryMargin:         cfg.VerifyWise.TokenExpiryMargin,
		AuthTimeout:          cfg.VerifyWise.RequestTimeout,
		RefreshFallbackLogin: cfg.VerifyWise.RefreshFallbackLogin,
		Logger:               logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating session manager: %w", err)
	}

	api, err := client.New(client.Config{
		BaseURL:        cfg.VerifyWise.BaseURL,
		Sessions:       sessions,
		Timeout:        cfg.VerifyWise.RequestTimeout,
		MaxAttempts:    cfg.VerifyWise.MaxRetries,
		RetryBaseDelay: cfg.VerifyWise.RetryBaseDelay,
		RetryMaxDelay:  cfg.VerifyWise.RetryMaxDelay,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating API client: %w", err)
	}

	registry := packs.NewRegistry(logger)
	if err := tools.RegisterAll(registry, api); err != nil {
		return nil, nil, err
	}
	dispatcher := packs.NewDispatcher(packs.DispatcherConfig{
		Registry: registry,
		Logger:   logger,
	})

	server, err := mcp.NewServer(mcp.Config{
		Registry:   registry,
		Dispatcher: dispatcher,
		Logger:     logger,
		Version:    version,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating MCP server: %w", err)
	}
	return server, sessions, nil
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Everything user-facing goes to stderr: on the stdio transport,
	// stdout belongs to the protocol.
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Fprint(os.Stderr, banner)
	gray.Fprintf(os.Stderr, "    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green.Fprint(os.Stderr, "    ▶ ")
	fmt.Fprintf(os.Stderr, "Config:     %s\n", configPath)
	green.Fprint(os.Stderr, "    ▶ ")
	fmt.Fprintf(os.Stderr, "VerifyWise: %s\n", cfg.VerifyWise.BaseURL)
	green.Fprint(os.Stderr, "    ▶ ")
	fmt.Fprintf(os.Stderr, "Transport:  %s", cfg.Server.Transport)
	if cfg.Server.Transport == "http" {
		fmt.Fprintf(os.Stderr, " (%s)", cfg.Server.HTTPAddr)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr)

	server, sessions, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}

	// Fail fast on bad credentials; anything else (platform down, network
	// hiccup) is left to lazy reauthentication on the first tool call.
	if _, err := sessions.Login(ctx); err != nil {
		if vwerr.IsAuth(err) {
			return fmt.Errorf("verifying credentials: %w", err)
		}
		logger.Warn("startup login failed, will retry on first tool call", "error", err)
	} else {
		logger.Info("authenticated with VerifyWise", "base_url", cfg.VerifyWise.BaseURL)
	}

	logger.Info("starting verifywise-mcp",
		"version", version,
		"transport", cfg.Server.Transport,
	)

	switch cfg.Server.Transport {
	case "stdio":
		return server.ServeStdio(ctx, os.Stdin, os.Stdout)
	case "http":
		return serveHTTP(ctx, cfg.Server.HTTPAddr, server, logger)
	default:
		return fmt.Errorf("unknown transport %q", cfg.Server.Transport)
	}
}

// serveHTTP runs the Streamable HTTP transport until ctx is cancelled.
func serveHTTP(ctx context.Context, addr string, server *mcp.Server, logger *slog.Logger) error {
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP transport listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// runHealth verifies credentials and API reachability end to end.
func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sessions, err := session.NewManager(session.Config{
		BaseURL:              cfg.VerifyWise.BaseURL,
		Email:                cfg.VerifyWise.Email,
		Password:             cfg.VerifyWise.Password,
		ExpiryMargin:         cfg.VerifyWise.TokenExpiryMargin,
		AuthTimeout:          cfg.VerifyWise.RequestTimeout,
		RefreshFallbackLogin: cfg.VerifyWise.RefreshFallbackLogin,
		Logger:               logger,
	})
	if err != nil {
		return err
	}

	if _, err := sessions.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	api, err := client.New(client.Config{
		BaseURL:  cfg.VerifyWise.BaseURL,
		Sessions: sessions,
		Timeout:  cfg.VerifyWise.RequestTimeout,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if _, err := api.Get(ctx, "/api/projects"); err != nil {
		return fmt.Errorf("API check failed: %w", err)
	}

	fmt.Println("healthy")
	return nil
}

// runTools prints the registered tool table. No credentials are needed:
// handlers are never invoked.
func runTools() error {
	registry := packs.NewRegistry(slog.New(slog.DiscardHandler))
	var api *client.Client
	if err := tools.RegisterAll(registry, api); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	for _, pack := range registry.ListPacks() {
		cyan.Printf("%s\n", pack.ID)
		for _, name := range pack.ToolNames {
			fmt.Printf("  %s\n", name)
		}
	}
	gray.Printf("\n%d tools in %d packs\n", registry.ToolCount(), len(registry.ListPacks()))
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Logs always go to stderr: stdout is the stdio transport's wire.
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output on stderr with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(os.Stderr, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}
