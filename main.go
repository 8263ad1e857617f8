package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/Arbasante/proyecto-easyworship/internal/app"
	"github.com/Arbasante/proyecto-easyworship/internal/bible"
	"github.com/Arbasante/proyecto-easyworship/internal/browser"
	"github.com/Arbasante/proyecto-easyworship/internal/config"
	"github.com/Arbasante/proyecto-easyworship/internal/db"
	"github.com/Arbasante/proyecto-easyworship/internal/dialog"
	"github.com/Arbasante/proyecto-easyworship/internal/handlers"
	"github.com/Arbasante/proyecto-easyworship/internal/media"
	"github.com/Arbasante/proyecto-easyworship/internal/paths"
	"github.com/Arbasante/proyecto-easyworship/internal/probe"
	"github.com/Arbasante/proyecto-easyworship/internal/projector"
	"github.com/Arbasante/proyecto-easyworship/internal/settings"
	"github.com/Arbasante/proyecto-easyworship/internal/songs"
	"github.com/Arbasante/proyecto-easyworship/internal/sse"
)

// version is set at build time with -ldflags "-X main.version=…".
var version = "dev"

var (
	v   = config.New()
	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var pe *db.ProvisionError
		if errors.As(err, &pe) {
			color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "cannot prepare the %s database\n", pe.Store)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "easypresenter",
	Short: "EasyPresenter presentation server",
	Long: `EasyPresenter serves the operator console and the projector output for
songs, bible verses, images, videos and PDFs from local SQLite stores.
Run without a subcommand to start the server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the presentation server (default)",
	RunE:  runServe,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("addr", config.DefaultAddr, "HTTP listen address")
	f.String("data-dir", "", "directory for the writable databases (default: per-user data dir)")
	f.String("resource-dir", "", "directory holding the seed databases (default: resources next to the executable)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("log-format", "text", "log format: text or json")
	f.Bool("debug", false, "enable debug logging")
	f.Bool("no-browser", false, "do not open the operator console on startup")
	f.String("decode-policy", db.DecodeSkip.String(), "undecodable rows: skip or strict")
	f.Int("displays", 1, "number of displays; the projector goes fullscreen on the second")

	for key, flag := range map[string]string{
		config.KeyAddr:         "addr",
		config.KeyDataDir:      "data-dir",
		config.KeyResourceDir:  "resource-dir",
		config.KeyLogLevel:     "log-level",
		config.KeyLogFormat:    "log-format",
		config.KeyDebug:        "debug",
		config.KeyNoBrowser:    "no-browser",
		config.KeyDecodePolicy: "decode-policy",
		config.KeyDisplays:     "displays",
	} {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(serveCmd, provisionCmd, pathsCmd, exportCmd, importCmd, versionCmd)
}

// setup resolves directories, loads config.yaml and installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	dataDir, err := paths.ResolveDataDir(v.GetString(config.KeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	resourceDir, err := paths.ResolveResourceDir(v.GetString(config.KeyResourceDir))
	if err != nil {
		return fmt.Errorf("resolve resource dir: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	wrote, err := config.WriteDefaultFile(dataDir)
	if err != nil {
		return err
	}
	if err := config.ReadFile(v, dataDir); err != nil {
		return err
	}

	cfg = config.FromViper(v)
	cfg.DataDir = dataDir
	cfg.ResourceDir = resourceDir
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetDefault(cfg.NewLogger())
	if wrote {
		slog.Info("default config written", "path", filepath.Join(dataDir, config.FileName))
	}
	return nil
}

// openStores provisions and registers every database.
func openStores(ctx context.Context) (*db.Registry, error) {
	reg := db.NewRegistry(cfg.Policy())
	p := &db.Provisioner{DataDir: cfg.DataDir, ResourceDir: cfg.ResourceDir}
	if err := p.EnsureAll(ctx, reg, db.Specs()); err != nil {
		return nil, err
	}
	return reg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	reg, err := openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer reg.Close()

	// ── Services ────────────────────────────────────────
	hub := sse.NewHub()
	go hub.Run()

	probeCache := probe.NewCache(reg)
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		probeCache.Cleanup()
	}()
	defer func() { <-cleanupDone }()

	baseURL := "http://" + browserHost(cfg.Addr)
	st := settings.New(reg)
	bridge := projector.New(projector.NewBrowserShell(baseURL, hub, cfg.Displays), hub, st)

	cmds := &app.Commands{
		Songs:     songs.NewStore(reg),
		Bible:     bible.NewStore(reg),
		Media:     media.NewStore(reg, probeCache),
		Projector: bridge,
		Picker:    dialog.NewNative(),
		Settings:  st,
	}

	// ── Routes ──────────────────────────────────────────
	r := chi.NewRouter()
	if cfg.Level() <= slog.LevelDebug {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	handlers.New(cmds, hub).RegisterRoutes(r)

	// ── HTTP Server ─────────────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs unlimited write time
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	printBanner(baseURL)
	if !cfg.NoBrowser {
		slog.Info("opening operator console in browser", "url", baseURL+"/")
		browser.Open(baseURL + "/")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		hub.Close()
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Close()
	return srv.Shutdown(shutdownCtx)
}

// browserHost turns a listen address into a host:port a browser can reach.
func browserHost(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

func printBanner(baseURL string) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	gray := color.New(color.FgHiBlack)

	cyan.Println("  EasyPresenter")
	gray.Printf("    version: %s\n\n", version)
	green.Print("    ▶ ")
	fmt.Printf("Console:   %s/\n", baseURL)
	green.Print("    ▶ ")
	fmt.Printf("Projector: %s%s\n", baseURL, projector.Route)
	green.Print("    ▶ ")
	fmt.Printf("Data:      %s\n\n", cfg.DataDir)
}
