package chatlog

import (
	"bufio"
	"io"
	"strings"
)

// Parse is a forward scanner over the marker grammar:
//
//	<BEGIN:{sender}:{timestamp}>
//	{content line}...
//	<END:{sender}>
//
// Three line classes exist: begin marker, end marker, plain content.
// Content lines outside an open message are dropped. A begin marker
// while a message is open flushes the open message first, and an
// unterminated message at end of input is still emitted, so a file
// truncated by a crash loses at most its final end marker.
func Parse(r io.Reader) ([]Message, error) {
	var (
		messages []Message
		pending  *Message
	)

	flush := func() {
		if pending != nil {
			messages = append(messages, *pending)
			pending = nil
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case isBeginMarker(line):
			flush()
			sender, timestamp := parseBeginMarker(line)
			pending = &Message{Sender: sender, Timestamp: timestamp}

		case isEndMarker(line):
			flush()

		case pending != nil:
			pending.Content = append(pending.Content, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	flush()
	return messages, nil
}

func isBeginMarker(line string) bool {
	return strings.HasPrefix(line, "<BEGIN:") && strings.HasSuffix(line, ">")
}

func isEndMarker(line string) bool {
	return strings.HasPrefix(line, "<END:") && strings.HasSuffix(line, ">")
}

// parseBeginMarker splits "<BEGIN:sender:timestamp>". The sender may
// not contain a colon, so the first colon inside the brackets bounds
// it; everything after is the literal timestamp text.
func parseBeginMarker(line string) (sender, timestamp string) {
	inner := line[len("<BEGIN:") : len(line)-1]
	parts := strings.SplitN(inner, ":", 2)
	sender = parts[0]
	if len(parts) > 1 {
		timestamp = parts[1]
	}
	return sender, timestamp
}
