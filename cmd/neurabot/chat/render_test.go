package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"neurabot/cmd/neurabot/ui"
	"neurabot/internal/session"
)

func testRenderer() *Renderer {
	theme, _ := ui.ThemeByName("dark")
	return NewRenderer(ui.NewStyles(theme), 60)
}

func TestPendingIdempotent(t *testing.T) {
	r := testRenderer()

	assert.False(t, r.PendingShown())
	assert.True(t, r.ShowPending())
	assert.False(t, r.ShowPending(), "second show is a no-op")
	assert.True(t, r.PendingShown())

	assert.True(t, r.HidePending())
	assert.False(t, r.HidePending(), "second hide is a no-op")
	assert.False(t, r.PendingShown())
}

func TestHistoryIncludesPendingPlaceholder(t *testing.T) {
	r := testRenderer()
	sess := &session.Session{
		ID:        "sess_1",
		Title:     session.DefaultTitle,
		CreatedAt: time.Now(),
		Messages: []session.Message{
			{Content: "hello", Sender: session.SenderUser, Timestamp: "10:00"},
		},
	}

	out := r.History(sess, Profile{Name: "Ada", Avatar: "robot"})
	assert.NotContains(t, out, pendingText)

	r.ShowPending()
	out = r.History(sess, Profile{Name: "Ada", Avatar: "robot"})
	assert.Contains(t, out, pendingText)
	assert.Equal(t, 1, strings.Count(out, pendingText), "at most one placeholder")

	r.HidePending()
	out = r.History(sess, Profile{Name: "Ada", Avatar: "robot"})
	assert.NotContains(t, out, pendingText)
}

func TestMessageLabels(t *testing.T) {
	r := testRenderer()

	user := r.Message(session.Message{
		Content: "hi", Sender: session.SenderUser, Timestamp: "10:00",
	}, Profile{Name: "Ada", Avatar: "cat"})
	assert.Contains(t, user, "Ada")
	assert.Contains(t, user, "10:00")

	bot := r.Message(session.Message{
		Content: "hello back", Sender: session.SenderBot, Timestamp: "10:01",
	}, Profile{})
	assert.Contains(t, bot, "NeuraBot")
}

func TestMessageFallsBackWhenRendererMissing(t *testing.T) {
	r := testRenderer()
	r.md = nil

	out := r.Message(session.Message{
		Content: "plain **bold** text", Sender: session.SenderBot, Timestamp: "10:00",
	}, Profile{})
	assert.Contains(t, out, "plain **bold** text")
}

func TestHistoryNilSession(t *testing.T) {
	r := testRenderer()
	assert.Empty(t, r.History(nil, Profile{}))
}
