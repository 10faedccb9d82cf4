// Package tui is the conversational surface. The bubbletea update
// loop is the single foreground context; every completion and batch
// operation runs as a background command whose result message is
// applied as one atomic update.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/davfen/cvdesk/internal/chatlog"
	"github.com/davfen/cvdesk/internal/config"
	"github.com/davfen/cvdesk/internal/files"
	"github.com/davfen/cvdesk/internal/intent"
	"github.com/davfen/cvdesk/internal/llm"
)

// historyLimit bounds how much of the log is replayed at startup.
const historyLimit = 250

// App is the bubbletea model for the chat window.
type App struct {
	width    int
	height   int
	quitting bool

	cfg    *config.Manager
	client *llm.Client
	router *intent.Router
	log    *chatlog.Log
	store  *files.Store
	slot   *files.UploadSlot
	logger *slog.Logger

	input   textinput.Model
	history []chatlog.Message
	typing  bool
	scroll  int
}

// NewApp wires the chat surface and replays recent history.
func NewApp(cfg *config.Manager, client *llm.Client, router *intent.Router, log *chatlog.Log, store *files.Store, slot *files.UploadSlot, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Type a message, or /help for commands..."
	input.CharLimit = 2000
	input.Width = 60
	input.Focus()

	a := &App{
		cfg:    cfg,
		client: client,
		router: router,
		log:    log,
		store:  store,
		slot:   slot,
		logger: logger,
		input:  input,
	}

	history, err := log.ReadRecent(historyLimit)
	if err != nil {
		logger.Error("failed to load chat history", "error", err)
	} else {
		a.history = history
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.WindowSize(),
		textinput.Blink,
		a.warmup(),
	)
}

func (a *App) warmup() tea.Cmd {
	return func() tea.Msg {
		a.client.Warmup(context.Background())
		return nil
	}
}

type agentResponseMsg struct {
	text string
}

type modelsListMsg struct {
	ids []string
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			a.quitting = true
			return a, tea.Quit
		case key.Matches(msg, keys.Enter):
			if cmd := a.handleInput(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case key.Matches(msg, keys.Up):
			a.scroll++
		case key.Matches(msg, keys.Down):
			if a.scroll > 0 {
				a.scroll--
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case agentResponseMsg:
		// One atomic unit per completed response, in this order:
		// append to the visible history, clear the typing status,
		// persist to the day log.
		reply := chatlog.New(chatlog.SenderAgent, msg.text)
		a.history = append(a.history, reply)
		a.typing = false
		a.scroll = 0
		a.persist(reply)

	case modelsListMsg:
		text := "No models available."
		if len(msg.ids) > 0 {
			text = "Available models:\n" + strings.Join(msg.ids, "\n")
		}
		a.addSystemMessage(text, false)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// handleInput processes the submitted line: a slash command or a chat
// message handed to the router on a background worker.
func (a *App) handleInput() tea.Cmd {
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		return nil
	}
	a.input.Reset()

	if strings.HasPrefix(text, "/") {
		return a.handleCommand(text)
	}

	userMsg := chatlog.New(chatlog.SenderUser, text)
	a.history = append(a.history, userMsg)
	a.scroll = 0
	a.persist(userMsg)

	a.typing = true
	return a.respond(text)
}

// respond runs the router off the foreground loop. Nothing blocks the
// UI; a second send before this returns simply runs a second worker,
// and the two replies land in completion order.
func (a *App) respond(text string) tea.Cmd {
	return func() tea.Msg {
		response, err := a.router.Route(context.Background(), text)
		if err != nil {
			response = fmt.Sprintf("Error: %v", err)
		}
		return agentResponseMsg{text: response}
	}
}

func (a *App) handleCommand(text string) tea.Cmd {
	parts := strings.Fields(text)
	switch strings.ToLower(parts[0]) {
	case "/quit", "/q":
		a.quitting = true
		return tea.Quit

	case "/help", "/h":
		a.addSystemMessage(helpText, false)
		return nil

	case "/upload", "/u":
		if len(parts) < 2 {
			a.addSystemMessage("Usage: /upload <path>", false)
			return nil
		}
		a.uploadFile(strings.Join(parts[1:], " "))
		return nil

	case "/save":
		if len(parts) != 3 {
			a.addSystemMessage("Usage: /save <stored-file> <destination>", false)
			return nil
		}
		if err := a.store.Export(parts[1], parts[2]); err != nil {
			a.addSystemMessage(fmt.Sprintf("Download failed: %v", err), false)
			return nil
		}
		a.addSystemMessage(fmt.Sprintf("File saved to: %s", parts[2]), false)
		return nil

	case "/models", "/m":
		return a.fetchModels()

	default:
		a.addSystemMessage(fmt.Sprintf("Unknown command: %s", parts[0]), false)
		return nil
	}
}

const helpText = `Commands:
/upload <path>            upload a document for the next request
/save <stored> <dest>     copy a generated file out of storage
/models                   list models offered by the endpoint
/quit                     exit

Ask me to create a job listing, review a CV, batch process CVs,
correct spelling, or analyze tables in an uploaded PDF.`

// uploadFile copies the file into storage and points the upload slot
// at the stored copy. A second upload replaces the first.
func (a *App) uploadFile(path string) {
	name, stored, err := a.store.SaveUpload(path)
	if err != nil {
		a.logger.Error("upload failed", "path", path, "error", err)
		a.addSystemMessage(fmt.Sprintf("Upload failed: %v", err), false)
		return
	}

	a.slot.Set(stored)
	a.addSystemMessage(fmt.Sprintf("File uploaded: %s", name), true)
}

// fetchModels queries the advisory models endpoint in the background
// with the credentials configured right now.
func (a *App) fetchModels() tea.Cmd {
	baseURL := a.cfg.String("api_config", "base_url", "")
	apiKey := a.cfg.String("api_config", "api_key", "")
	return func() tea.Msg {
		return modelsListMsg{ids: a.client.FetchModels(context.Background(), baseURL, apiKey)}
	}
}

// addSystemMessage appends a System line to the view and optionally
// to the day log.
func (a *App) addSystemMessage(text string, persisted bool) {
	msg := chatlog.New(chatlog.SenderSystem, text)
	a.history = append(a.history, msg)
	a.scroll = 0
	if persisted {
		a.persist(msg)
	}
}

// persist appends to the day log. Persistence is best-effort: the
// message is already on screen, so a write failure is only logged.
func (a *App) persist(msg chatlog.Message) {
	if err := a.log.Append(msg); err != nil {
		a.logger.Error("failed to persist message", "error", err)
	}
}
