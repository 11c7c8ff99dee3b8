// pattern: Imperative Shell
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"plantree/internal/cli"
	"plantree/internal/config"
	"plantree/internal/instance"
	"plantree/internal/logging"
	"plantree/internal/project"
	"plantree/internal/scm"
	"plantree/internal/sidebar"
	"plantree/internal/tree"
	"plantree/internal/tui"
	"plantree/internal/web"
)

var version = "dev"

func main() {
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	flag.CommandLine.SetInterspersed(false)

	configDir := flag.StringP("config-dir", "c", "", "config directory (default: ~/.config/plantree)")

	// Override flag.Usage before Parse so --help uses the CLI app's help
	flag.Usage = func() {
		app := cli.BuildApp(version, *configDir)
		app.PrintHelp(os.Stderr)
		flag.PrintDefaults()
	}

	flag.Parse()

	app := cli.BuildApp(version, *configDir)
	if app.Execute(flag.Args()) {
		runTUI(*configDir)
	}
}

// loadConfig loads the configuration from the specified directory or default location.
func loadConfig(configDir string) (config.Config, error) {
	if configDir != "" {
		return config.LoadFromDir(configDir)
	}
	return config.Load()
}

// newLogManager opens the rotated log file in dataDir.
func newLogManager(dataDir, level string) (*logging.Manager, error) {
	return logging.NewManager(logging.Config{
		FilePath:       filepath.Join(dataDir, "plantree.log"),
		MaxSizeMB:      10,
		MaxBackups:     3,
		MaxAgeDays:     7,
		ChannelBufSize: 1000,
		Level:          level,
	})
}

// app holds the long-lived pieces runTUI wires together.
type app struct {
	provider    *project.Provider
	coordinator *sidebar.Coordinator
	router      *tui.Router
}

// wire builds the provider, the tree builder and the coordinator, and
// connects provider updates to coordinator rebuilds.
func wire(ctx context.Context, cfg *config.Config, dataDir string, logs logging.LoggerProvider) *app {
	provider := project.NewProvider(project.NewStore(dataDir), logs.For("project.provider"))
	git := scm.NewGit(logs.For("scm"), cfg.IsIgnoredDir)
	loader := project.NewLoader(cfg, git, logs.For("project.loader"))
	builder := tree.NewBuilder(loader, logs.For("tree"))
	router := tui.NewRouter(logs.For("tui"))

	coordinator := sidebar.New(sidebar.Config{
		Lister:        provider,
		Builder:       builder,
		Router:        router,
		Dialog:        router,
		Remover:       provider,
		Reporter:      router,
		Logger:        logs.For("sidebar"),
		ClearDangling: cfg.Selection.ClearDangling,
	})
	coordinator.Subscribe(router.StateChanged)

	logger := logs.For("app")
	provider.AddUpdatedListener(func(evt project.AttachedProjectsUpdated) {
		// The generation is taken here, in event order; the build runs off
		// the mutating goroutine.
		rebuild := coordinator.DispatchProjectsUpdated(evt)
		go func() {
			rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := rebuild(rctx); err != nil {
				logger.Debug("rebuild after update failed", "error", err)
			}
		}()
	})

	return &app{provider: provider, coordinator: coordinator, router: router}
}

// runTUI launches the interactive TUI.
func runTUI(configDir string) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}

	dataDir := cli.ResolveDataDir(configDir)

	// Acquire single-instance lock
	fl, err := instance.Lock(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer instance.Cleanup(dataDir, fl)

	logManager, err := newLogManager(dataDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logManager.Close() }()

	appLogger := logManager.For("app")
	appLogger.Info("application starting", "version", version, "data_dir", dataDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := wire(ctx, &cfg, dataDir, logManager)

	go func() {
		if err := a.provider.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Warn("project watcher stopped", "error", err)
		}
	}()

	var webURL string
	if cfg.Web.IsEnabled() {
		webServer := web.New(
			web.Config{Bind: cfg.Web.Bind, Port: cfg.Web.Port},
			a.coordinator,
			a.provider,
			logManager,
		)
		ln, err := webServer.Listen()
		if err != nil {
			appLogger.Error("web server listen error", "error", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Write port file for CLI discovery
		if err := instance.WritePort(dataDir, webServer.Addr()); err != nil {
			appLogger.Error("failed to write port file", "error", err)
		}
		webURL = fmt.Sprintf("http://%s", webServer.Addr())

		go func() {
			if err := webServer.Serve(ln); err != nil && err != http.ErrServerClosed {
				appLogger.Error("web server error", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := webServer.Shutdown(ctx); err != nil {
				appLogger.Error("web server shutdown error", "error", err)
			}
		}()
	}

	model := tui.NewModel(tui.Options{
		Config:      &cfg,
		Coordinator: a.coordinator,
		Projects:    a.provider,
		Logs:        logManager,
		Logger:      logManager.For("tui"),
		WebURL:      webURL,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	a.router.Bind(p.Send)

	if _, err := p.Run(); err != nil {
		appLogger.Error("application exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	appLogger.Info("application stopped")
}
