// Package chatlog persists conversation history as append-only per-day
// text files that parse back into the exact message sequence written.
package chatlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Senders produced by the application. The format itself allows any
// label without a colon.
const (
	SenderUser   = "You"
	SenderAgent  = "Agent"
	SenderSystem = "System"
)

// Message is one conversational turn. Timestamp is the literal
// bracketed text stored in the begin marker, e.g. "[14:03:22]"; the
// date is implied by the containing day file.
type Message struct {
	Sender    string
	Timestamp string
	Content   []string
}

// New builds a message stamped with the current wall-clock time.
// Multi-line text becomes one content entry per line.
func New(sender, text string) Message {
	return Message{
		Sender:    sender,
		Timestamp: time.Now().Format("[15:04:05]"),
		Content:   strings.Split(text, "\n"),
	}
}

// Text re-joins the content lines for display.
func (m Message) Text() string {
	return strings.Join(m.Content, "\n")
}

// Log writes and reads day-scoped conversation files in dir, named
// chat_log_YYYYMMDD.txt. A mutex serializes appends so two background
// workers cannot interleave marker lines within one file.
type Log struct {
	mu  sync.Mutex
	dir string
}

// NewLog creates the storage directory if needed.
func NewLog(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Log{dir: dir}, nil
}

func dayFileName(t time.Time) string {
	return fmt.Sprintf("chat_log_%s.txt", t.Format("20060102"))
}

// Append writes msg to today's file wrapped in begin/end markers. The
// file is opened and closed per message; a crash mid-write leaves a
// file the parser still recovers.
func (l *Log) Append(msg Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.dir, dayFileName(time.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open chat log: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "<BEGIN:%s:%s>\n", msg.Sender, msg.Timestamp)
	for _, line := range msg.Content {
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "<END:%s>\n", msg.Sender)

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to append chat log: %w", err)
	}
	return nil
}

// ReadRecent reconstructs the conversation across all day files in
// filename (chronological) order and returns the last limit messages.
// A limit of zero returns everything.
func (l *Log) ReadRecent(limit int) ([]Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasPrefix(name, "chat_log_") && strings.HasSuffix(name, ".txt") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var messages []Message
	for _, name := range names {
		parsed, err := parseFile(filepath.Join(l.dir, name))
		if err != nil {
			return nil, err
		}
		messages = append(messages, parsed...)
	}

	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

func parseFile(path string) ([]Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat log: %w", err)
	}
	defer f.Close()

	messages, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return messages, nil
}
