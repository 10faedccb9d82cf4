package chatlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendReadRoundTrip(t *testing.T) {
	log, err := NewLog(t.TempDir())
	require.NoError(t, err)

	written := []Message{
		{Sender: SenderUser, Timestamp: "[09:00:01]", Content: []string{"hello"}},
		{Sender: SenderAgent, Timestamp: "[09:00:05]", Content: []string{"Hi there.", "", "How can I help?"}},
		{Sender: SenderSystem, Timestamp: "[09:01:00]", Content: []string{"File uploaded: cv.pptx"}},
	}
	for _, msg := range written {
		require.NoError(t, log.Append(msg))
	}

	got, err := log.ReadRecent(0)
	require.NoError(t, err)
	assert.Equal(t, written, got)
}

func TestReadRecentTailTruncation(t *testing.T) {
	log, err := NewLog(t.TempDir())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(Message{
			Sender:    SenderUser,
			Timestamp: "[10:00:00]",
			Content:   []string{strings.Repeat("x", i+1)},
		}))
	}

	got, err := log.ReadRecent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "xxxx", got[0].Content[0])
	assert.Equal(t, "xxxxx", got[1].Content[0])

	// Limit larger than the history returns everything.
	got, err = log.ReadRecent(50)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestParseRecoversUnterminatedMessage(t *testing.T) {
	input := "<BEGIN:You:[14:03:22]>\n" +
		"first message\n" +
		"<END:You>\n" +
		"<BEGIN:Agent:[14:03:40]>\n" +
		"interrupted mid-\n" +
		"write\n"

	got, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Agent", got[1].Sender)
	assert.Equal(t, []string{"interrupted mid-", "write"}, got[1].Content)
}

func TestParseFlushesOnNestedBegin(t *testing.T) {
	input := "<BEGIN:You:[08:00:00]>\n" +
		"no end marker here\n" +
		"<BEGIN:Agent:[08:00:01]>\n" +
		"reply\n" +
		"<END:Agent>\n"

	got, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "You", got[0].Sender)
	assert.Equal(t, "Agent", got[1].Sender)
}

func TestParseDropsStrayLines(t *testing.T) {
	input := "garbage before any marker\n" +
		"<END:You>\n" +
		"<BEGIN:You:[12:00:00]>\n" +
		"real content\n" +
		"<END:You>\n" +
		"trailing garbage\n"

	got, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"real content"}, got[0].Content)
}

func TestParseTimestampKeepsColons(t *testing.T) {
	input := "<BEGIN:You:[14:03:22]>\nhi\n<END:You>\n"

	got, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "[14:03:22]", got[0].Timestamp)
}

func TestNewSplitsLines(t *testing.T) {
	msg := New(SenderAgent, "line one\nline two")
	assert.Equal(t, []string{"line one", "line two"}, msg.Content)
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\]$`, msg.Timestamp)
	assert.Equal(t, "line one\nline two", msg.Text())
}
