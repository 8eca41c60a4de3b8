package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"neurabot/cmd/neurabot/ui"
	"neurabot/internal/session"
)

// pendingText is the placeholder shown while a reply is in flight.
const pendingText = "NeuraBot is thinking..."

// Renderer projects session messages into styled terminal output. It
// never mutates the session store.
type Renderer struct {
	styles  ui.Styles
	width   int
	md      *glamour.TermRenderer
	pending bool
}

// NewRenderer builds a renderer for the given theme and wrap width.
func NewRenderer(styles ui.Styles, width int) *Renderer {
	r := &Renderer{styles: styles}
	r.SetWidth(width)
	return r
}

// SetWidth adjusts the markdown wrap width, rebuilding the underlying
// renderer.
func (r *Renderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	r.width = width

	style := "light"
	if r.styles.Theme.IsDark {
		style = "dark"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fall back to plain text rendering.
		r.md = nil
		return
	}
	r.md = md
}

// SetStyles swaps the theme and rebuilds the markdown renderer.
func (r *Renderer) SetStyles(styles ui.Styles) {
	r.styles = styles
	r.SetWidth(r.width)
}

// ShowPending turns on the reply placeholder. It reports whether the
// state changed; showing an already shown indicator is a no-op.
func (r *Renderer) ShowPending() bool {
	if r.pending {
		return false
	}
	r.pending = true
	return true
}

// HidePending turns off the reply placeholder. Hiding an absent
// indicator is a no-op.
func (r *Renderer) HidePending() bool {
	if !r.pending {
		return false
	}
	r.pending = false
	return true
}

// PendingShown reports whether the placeholder is visible.
func (r *Renderer) PendingShown() bool {
	return r.pending
}

// History renders the full message list of a session, followed by the
// pending placeholder when shown.
func (r *Renderer) History(sess *session.Session, profile Profile) string {
	if sess == nil {
		return ""
	}

	var b strings.Builder
	for i, msg := range sess.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Message(msg, profile))
	}
	if r.pending {
		if len(sess.Messages) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.styles.Pending.Render(pendingText))
		b.WriteString("\n")
	}
	return b.String()
}

// Message renders one message: sender label, timestamp, then the
// markdown-rendered content.
func (r *Renderer) Message(msg session.Message, profile Profile) string {
	var label string
	if msg.Sender == session.SenderUser {
		name := profile.Name
		if name == "" {
			name = "You"
		}
		label = r.styles.UserLabel.Render(fmt.Sprintf("%s %s", ui.AvatarGlyph(profile.Avatar), name))
	} else {
		label = r.styles.BotLabel.Render("🤖 NeuraBot")
	}

	ts := r.styles.Timestamp.Render(msg.Timestamp)
	return fmt.Sprintf("%s %s\n%s\n", label, ts, r.renderMarkdown(msg.Content))
}

// renderMarkdown renders content as markdown, falling back to the raw
// text on any failure. Glamour can panic on malformed input, hence the
// recover.
func (r *Renderer) renderMarkdown(content string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			out = content
		}
	}()

	if r.md == nil {
		return content
	}
	rendered, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
