package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/davfen/cvdesk/internal/chatlog"
)

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	boxWidth := min(76, a.width-4)
	if boxWidth < 20 {
		boxWidth = 20
	}

	headerHeight := 2
	footerHeight := 4
	availableHeight := a.height - headerHeight - footerHeight
	if availableHeight < 5 {
		availableHeight = 5
	}

	// === HEADER ===
	title := styleTitle.Render("cvdesk")
	model := styleStatusBar.Render(a.cfg.String("api_config", "model", "no model configured"))
	header := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title+"  "+model) + "\n\n"

	// === MESSAGE LINES ===
	var lines []string
	for _, msg := range a.history {
		lines = append(lines, a.renderMessage(msg, boxWidth)...)
		lines = append(lines, "")
	}
	if a.typing {
		lines = append(lines, styleTyping.Render("Agent is typing..."))
	}

	// === SCROLL WINDOW ===
	maxScroll := len(lines) - availableHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if a.scroll > maxScroll {
		a.scroll = maxScroll
	}
	end := len(lines) - a.scroll
	start := end - availableHeight
	if start < 0 {
		start = 0
	}
	visible := lines[start:end]

	var body strings.Builder
	for _, line := range visible {
		body.WriteString(line)
		body.WriteString("\n")
	}
	for i := len(visible); i < availableHeight; i++ {
		body.WriteString("\n")
	}

	// === FOOTER ===
	inputBox := styleBox.Width(boxWidth).Render(a.input.View())
	status := styleStatusBar.Render("[Enter] Send  [Up/Down] Scroll  [Esc] Quit")
	footer := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, inputBox) + "\n" +
		lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status)

	return header + body.String() + footer
}

func (a *App) renderMessage(msg chatlog.Message, width int) []string {
	var (
		style  lipgloss.Style
		prefix string
	)
	switch msg.Sender {
	case chatlog.SenderUser:
		style, prefix = styleUser, "> "
	case chatlog.SenderSystem:
		style, prefix = styleSystem, "* "
	default:
		style, prefix = styleAgent, "  "
	}

	stamp := styleTimestamp.Render(msg.Timestamp)

	var out []string
	first := true
	for _, content := range msg.Content {
		for _, line := range strings.Split(wrapText(content, width-4), "\n") {
			if first {
				out = append(out, stamp+" "+style.Render(prefix+line))
				first = false
				continue
			}
			out = append(out, strings.Repeat(" ", len(msg.Timestamp)+1)+style.Render("  "+line))
		}
	}
	if len(out) == 0 {
		out = append(out, stamp+" "+style.Render(prefix))
	}
	return out
}

// wrapText wraps text to fit within maxWidth, preserving words.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 60
	}
	if len(text) <= maxWidth {
		return text
	}

	var result strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		if i > 0 {
			if lineLen+1+len(word) > maxWidth {
				result.WriteString("\n")
				lineLen = 0
			} else {
				result.WriteString(" ")
				lineLen++
			}
		}
		result.WriteString(word)
		lineLen += len(word)
	}
	return result.String()
}
