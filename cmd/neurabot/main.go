// NeuraBot is a terminal assistant: a chat interface over a remote bot
// backend with persistent sessions, a task list, and optional voice
// input and spoken replies.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"neurabot/cmd/neurabot/chat"
	"neurabot/cmd/neurabot/config"
	"neurabot/internal/botclient"
	"neurabot/internal/session"
	"neurabot/internal/speech"
	"neurabot/internal/storage"
	"neurabot/internal/tasks"
)

var (
	verbose   bool
	serverURL string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "neurabot",
	Short: "Chat with NeuraBot from your terminal",
	Long: `NeuraBot is a conversational assistant for the terminal.

Running without a subcommand opens the interactive chat. Sessions,
tasks, and preferences persist across restarts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		// Log to a file so TUI output stays clean.
		if err := os.MkdirAll(config.Dir(), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		zcfg.OutputPaths = []string{filepath.Join(config.Dir(), "neurabot.log")}
		zcfg.ErrorOutputPaths = zcfg.OutputPaths

		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
	RunE: runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend base URL (overrides config)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tasksCmd)
}

// deps bundles everything a command needs after setup.
type deps struct {
	cfg   *config.Config
	db    *storage.Store
	store *session.Store
	tasks *tasks.List
}

func openDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}

	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	return &deps{
		cfg:   cfg,
		db:    db,
		store: session.NewStore(db),
		tasks: tasks.NewList(db),
	}, nil
}

func (d *deps) Close() {
	d.db.Close()
}

func runChat(cmd *cobra.Command, args []string) error {
	d, err := openDeps()
	if err != nil {
		return err
	}
	defer d.Close()

	quickReplies, err := config.LoadQuickReplies()
	if err != nil {
		logger.Warn("failed to load quick replies", zap.Error(err))
		quickReplies = config.DefaultQuickReplies
	}

	caps := speech.Probe()
	logger.Info("speech capabilities probed",
		zap.Stringer("synthesis", caps.Synthesis),
		zap.Stringer("recognition", caps.Recognition))

	var recognizer *speech.Recognizer
	if caps.Recognition == speech.Available {
		if recognizer, err = speech.NewRecognizer(); err != nil {
			logger.Warn("recognizer unavailable", zap.Error(err))
			caps.Recognition = speech.Unavailable
		}
	}
	var speaker *speech.Speaker
	if caps.Synthesis == speech.Available {
		if speaker, err = speech.NewSpeaker(); err != nil {
			logger.Warn("synthesizer unavailable", zap.Error(err))
			caps.Synthesis = speech.Unavailable
		}
	}

	model, err := chat.New(chat.Options{
		Store:        d.store,
		Tasks:        d.tasks,
		Client:       botclient.New(d.cfg.ServerURL, botclient.WithLogger(logger)),
		DB:           d.db,
		Caps:         caps,
		Recognizer:   recognizer,
		Speaker:      speaker,
		Config:       d.cfg,
		QuickReplies: quickReplies,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())

	watcher, err := config.Watch(config.Path(), func(cfg *config.Config) {
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}
		p.Send(chat.ConfigReloaded(cfg))
	})
	if err != nil {
		logger.Warn("config watching disabled", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}
	if speaker != nil {
		speaker.Stop()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
