package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/aichat/internal/config"
	"github.com/ChamsBouzaiene/aichat/internal/controller"
	"github.com/ChamsBouzaiene/aichat/internal/logging"
	"github.com/ChamsBouzaiene/aichat/internal/providers"
	"github.com/ChamsBouzaiene/aichat/internal/session"
	"github.com/ChamsBouzaiene/aichat/internal/tui"
)

type options struct {
	provider     string
	historyDir   string
	contextLimit int
	logPath      string
	debug        bool
	list         bool
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalf("aichat: %v", err)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("aichat", flag.ContinueOnError)
	fs.StringVar(&opts.provider, "provider", "", "AI provider to start with (openai, claude, gemini, grok)")
	fs.StringVar(&opts.provider, "p", "", "Shorthand for -provider")
	fs.StringVar(&opts.historyDir, "history", "", "Directory for saved chats (default: <config dir>/aichat/history)")
	fs.IntVar(&opts.contextLimit, "context", 0, "Number of recent messages sent with each request (default: 10)")
	fs.StringVar(&opts.logPath, "log", "", "Log file path (default: <config dir>/aichat/aichat.log)")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&opts.list, "list", false, "Print saved chats and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.contextLimit < 0 {
		return options{}, fmt.Errorf("-context must be positive, got %d", opts.contextLimit)
	}
	return opts, nil
}

func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	mgr, err := config.NewManager()
	if err != nil {
		return err
	}
	cfg, err := mgr.Load()
	if err != nil {
		// A broken config file should not keep the user out of the app.
		log.Printf("ignoring config: %v", err)
		cfg = &config.Config{}
	}

	logPath := opts.logPath
	if logPath == "" {
		logPath = mgr.DefaultLogPath()
	}
	logger, err := logging.New(logging.Options{Path: logPath, Debug: opts.debug})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registry := providers.DefaultRegistry()
	start, err := resolveStart(registry, opts, cfg, mgr)
	if err != nil {
		return err
	}

	store, err := session.NewStore(start.historyDir, logger)
	if err != nil {
		return err
	}
	if opts.list {
		return printSessions(os.Stdout, store.List())
	}

	clients := providers.NewClients(ctx, providers.CredentialsFromEnv(os.Getenv), logger)
	gateway := providers.NewGateway(clients, logger)

	ctrl, err := controller.New(registry, gateway, store, controller.Options{
		Provider:     start.provider,
		Models:       start.models,
		ContextLimit: start.contextLimit,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	tuiOpts := tui.Options{Gateway: gateway, Logger: logger}
	if watcher, err := session.NewWatcher(store.Dir(), logger); err != nil {
		logger.Warn("history watcher disabled", zap.Error(err))
	} else {
		defer watcher.Close()
		tuiOpts.Changes = watcher.Changes()
	}

	logger.Info("starting",
		zap.String("provider", string(ctrl.Provider())),
		zap.String("model", ctrl.Model()),
		zap.String("history_dir", store.Dir()),
		zap.Int("configured_providers", len(clients)),
	)

	program := tea.NewProgram(tui.NewModel(ctx, ctrl, tuiOpts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	if err := mgr.Save(updatedConfig(cfg, ctrl.Provider(), ctrl.Models())); err != nil {
		logger.Warn("failed to save config", zap.Error(err))
	}
	return nil
}
