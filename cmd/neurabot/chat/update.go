package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"neurabot/internal/botclient"
	"neurabot/internal/session"
)

const (
	sidebarWidth    = 30
	noticeLifetime  = 3 * time.Second
	requestDeadline = 35 * time.Second
)

// Update routes Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case replyMsg:
		return m.handleReply(msg)

	case uploadMsg:
		return m.handleUpload(msg)

	case transcriptMsg:
		m.listening = false
		if msg.err != nil {
			// A capture stopped by the user is not a failure.
			if errors.Is(msg.err, context.Canceled) {
				return m, nil
			}
			m.logger.Warn("voice capture failed", zap.Error(msg.err))
			return m, m.notify("Voice input failed")
		}
		return m.submitText(msg.text)

	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case configReloadedMsg:
		m.cfg = msg.cfg
		m.client = botclient.New(msg.cfg.ServerURL, botclient.WithLogger(m.logger))
		return m, m.notify("Configuration reloaded")

	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A pending confirmation swallows every key: y runs it, anything
	// else declines with no side effects.
	if m.confirm != nil {
		key := msg.String()
		act := m.confirm
		m.confirm = nil
		if key == "y" || key == "Y" {
			return m.runConfirmed(act)
		}
		return m, m.notify("Cancelled")
	}

	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.showSidebar {
			m.showSidebar = false
			m.resize(m.width, m.height)
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "tab":
		m.showSidebar = !m.showSidebar
		m.sidebarIndex = 0
		m.resize(m.width, m.height)
		return m, nil

	case "up", "down", "d":
		if m.showSidebar {
			return m.handleSidebarKey(msg.String())
		}

	case "enter":
		if m.showSidebar {
			return m.handleSidebarKey("enter")
		}
		return m.handleSubmit()

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSidebarKey(key string) (tea.Model, tea.Cmd) {
	sessions := m.store.Sorted()
	if len(sessions) == 0 {
		return m, nil
	}
	if m.sidebarIndex >= len(sessions) {
		m.sidebarIndex = len(sessions) - 1
	}

	switch key {
	case "up":
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
	case "down":
		if m.sidebarIndex < len(sessions)-1 {
			m.sidebarIndex++
		}
	case "enter":
		target := sessions[m.sidebarIndex]
		if _, err := m.store.Activate(target.ID); err != nil {
			m.logger.Warn("failed to persist active session", zap.Error(err))
		}
		if m.width < 80 {
			m.showSidebar = false
			m.resize(m.width, m.height)
		}
		m.refreshViewport()
	case "d":
		target := sessions[m.sidebarIndex]
		m.confirm = &confirmAction{
			kind:     confirmDelete,
			targetID: target.ID,
			prompt:   fmt.Sprintf("Delete session %q? (y/N)", target.Title),
		}
	}
	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	// While a reply is in flight, plain messages are refused before the
	// input is cleared so the typed text survives. Commands still run.
	if m.isLoading && !strings.HasPrefix(text, "/") {
		return m, m.notify("Still waiting for a reply")
	}
	m.input.SetValue("")

	if strings.HasPrefix(text, "/") {
		return m.handleCommand(text)
	}
	return m.submitText(text)
}

// submitText appends a user message and fires the backend request.
func (m *Model) submitText(text string) (tea.Model, tea.Cmd) {
	if m.isLoading {
		return m, m.notify("Still waiting for a reply")
	}
	sess := m.store.Active()
	if sess == nil {
		return m, nil
	}

	if _, err := m.store.Append(sess.ID, text, session.SenderUser, true); err != nil {
		m.logger.Error("failed to append message", zap.Error(err))
		return m, m.notify("Could not save message")
	}

	m.renderer.ShowPending()
	m.refreshViewport()
	m.isLoading = true
	return m, tea.Batch(m.spin.Tick, m.sendCmd(sess.ID, text))
}

func (m *Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false
	m.renderer.HidePending()

	if msg.err != nil {
		var cerr *botclient.Error
		if errors.As(msg.err, &cerr) {
			m.logger.Warn("chat request failed",
				zap.String("kind", cerr.Kind.String()),
				zap.Error(msg.err))
		} else {
			m.logger.Warn("chat request failed", zap.Error(msg.err))
		}
		m.appendBot(msg.sessionID, fallbackReplyText, true)
		return m, nil
	}

	m.appendBot(msg.sessionID, msg.reply.Reply, true)

	if msg.reply.Task != "" {
		if err := m.tasks.Add(msg.reply.Task); err != nil {
			m.logger.Error("failed to add task", zap.Error(err))
		}
	}
	if msg.reply.ShowTasks {
		m.appendBot(msg.sessionID, m.tasks.Summary(), false)
	}

	if m.soundEnabled && m.speaker != nil {
		if err := m.speaker.Speak(msg.reply.Reply); err != nil {
			m.logger.Warn("speech synthesis failed", zap.Error(err))
		}
	}
	return m, nil
}

func (m *Model) handleUpload(msg uploadMsg) (tea.Model, tea.Cmd) {
	m.isLoading = false
	m.renderer.HidePending()

	if msg.err != nil {
		m.logger.Warn("upload failed", zap.Error(msg.err))
		m.appendBot(msg.sessionID, uploadFailedText, true)
		return m, nil
	}
	m.appendBot(msg.sessionID, fmt.Sprintf(uploadSuccessText, msg.filename), true)
	return m, nil
}

// appendBot records an assistant message. The store is always updated;
// the visible pane only when the target session is still active.
func (m *Model) appendBot(sessionID, text string, persist bool) {
	if _, err := m.store.Append(sessionID, text, session.SenderBot, persist); err != nil {
		// The session was deleted while the reply was in flight.
		m.logger.Debug("dropping reply for removed session",
			zap.String("session_id", sessionID))
		return
	}
	if sessionID == m.store.ActiveID() {
		m.refreshViewport()
	}
}

func (m *Model) runConfirmed(act *confirmAction) (tea.Model, tea.Cmd) {
	switch act.kind {
	case confirmDelete:
		if _, err := m.store.Delete(act.targetID); err != nil {
			return m, m.notify("Session already gone")
		}
		m.sidebarIndex = 0
		m.refreshViewport()
		return m, m.notify("Session deleted")

	case confirmClear:
		if err := m.store.ClearActive(); err != nil {
			m.logger.Error("failed to clear chat", zap.Error(err))
			return m, m.notify("Could not clear chat")
		}
		m.refreshViewport()
		return m, m.notify("Chat cleared")

	case confirmClearAll:
		if _, err := m.store.ClearAll(); err != nil {
			m.logger.Error("failed to clear sessions", zap.Error(err))
			return m, m.notify("Could not clear sessions")
		}
		m.sidebarIndex = 0
		m.refreshViewport()
		return m, m.notify("All sessions cleared")
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	contentWidth := width
	if m.showSidebar {
		contentWidth -= sidebarWidth
	}
	if contentWidth < 20 {
		contentWidth = 20
	}

	// Header, notice row, divider, input, footer.
	chromeHeight := 5
	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.input.Width = contentWidth - 4
	m.renderer.SetWidth(contentWidth - 2)
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderer.History(m.store.Active(), m.profile))
	m.viewport.GotoBottom()
}

// notify shows a transient banner and schedules its dismissal.
func (m *Model) notify(text string) tea.Cmd {
	m.notice = text
	m.noticeID++
	id := m.noticeID
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

func (m *Model) sendCmd(sessionID, text string) tea.Cmd {
	client := m.client
	mode := m.mode
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestDeadline)
		defer cancel()
		reply, err := client.Send(ctx, text, mode)
		return replyMsg{sessionID: sessionID, reply: reply, err: err}
	}
}

func (m *Model) uploadCmd(sessionID, path string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return uploadMsg{sessionID: sessionID, err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), requestDeadline)
		defer cancel()
		name, err := client.Upload(ctx, filepath.Base(path), f)
		return uploadMsg{sessionID: sessionID, filename: name, err: err}
	}
}

func (m *Model) listenCmd() tea.Cmd {
	rec := m.recognizer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		text, err := rec.Listen(ctx)
		return transcriptMsg{text: text, err: err}
	}
}
