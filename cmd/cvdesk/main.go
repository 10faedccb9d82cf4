package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/davfen/cvdesk/internal/batch"
	"github.com/davfen/cvdesk/internal/chatlog"
	"github.com/davfen/cvdesk/internal/config"
	"github.com/davfen/cvdesk/internal/document"
	"github.com/davfen/cvdesk/internal/files"
	"github.com/davfen/cvdesk/internal/intent"
	"github.com/davfen/cvdesk/internal/llm"
	"github.com/davfen/cvdesk/internal/tui"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, closeLog := newLogger()
	defer closeLog()

	cfg, err := config.NewManager("config.json")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := files.NewStore("chats_data")
	if err != nil {
		return fmt.Errorf("preparing data directory: %w", err)
	}

	log, err := chatlog.NewLog(store.Dir())
	if err != nil {
		return fmt.Errorf("opening chat log: %w", err)
	}

	client := llm.NewClient(llm.ConfigFromStore(cfg), logger)
	corrector := document.NewCorrector(client)
	extractor := document.NewExtractor(corrector)
	reviewer := batch.NewReviewer(client, corrector, filepath.Join(store.Dir(), "downloads"), logger)

	slot := &files.UploadSlot{}
	router := intent.NewRouter(client, extractor, reviewer, slot, "outputs", logger)

	app := tui.NewApp(cfg, client, router, log, store, slot, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())

	logger.Info("starting", "version", version)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// newLogger writes to cvdesk.log so log lines never land in the
// terminal the TUI owns. Falls back to a discard handler when the
// file cannot be opened.
func newLogger() (*slog.Logger, func()) {
	f, err := os.OpenFile("cvdesk.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }
}
