package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"neurabot/cmd/neurabot/config"
	"neurabot/cmd/neurabot/ui"
	"neurabot/internal/session"
	"neurabot/internal/speech"
	"neurabot/internal/storage"
)

const helpText = `**Commands**

| Command | Description |
|---|---|
| /new | Start a new chat session |
| /sessions | Toggle the session panel (tab) |
| /delete | Delete the current session |
| /clear | Clear the current chat |
| /clearall | Delete all sessions |
| /export | Save the current chat to a text file |
| /tasks | Show your task list |
| /task add <text> | Add a task |
| /task done <n> | Toggle task n |
| /task rm <n> | Remove task n |
| /quick | Show quick replies, /quick <n> sends one |
| /upload <path> | Upload a file to the assistant |
| /copy | Copy the last reply to the clipboard |
| /speak | Read the last reply aloud |
| /voice | Capture a voice message |
| /sound | Toggle spoken replies |
| /mode <name> | Set the chat mode |
| /theme <name> | Switch color theme |
| /profile name <n> | Set your display name |
| /profile avatar <a> | Set your avatar |
| /quit | Exit |`

// handleCommand dispatches a /-prefixed input line.
func (m *Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/help":
		m.appendBot(m.store.ActiveID(), helpText, false)
		return m, nil

	case "/quit", "/exit":
		m.quitting = true
		return m, tea.Quit

	case "/new":
		if _, err := m.store.Create(); err != nil {
			m.logger.Error("failed to create session", zap.Error(err))
			return m, m.notify("Could not create session")
		}
		m.refreshViewport()
		return m, m.notify("New chat started")

	case "/sessions":
		m.showSidebar = !m.showSidebar
		m.sidebarIndex = 0
		m.resize(m.width, m.height)
		return m, nil

	case "/delete":
		sess := m.store.Active()
		if sess == nil {
			return m, nil
		}
		m.confirm = &confirmAction{
			kind:     confirmDelete,
			targetID: sess.ID,
			prompt:   fmt.Sprintf("Delete session %q? (y/N)", sess.Title),
		}
		return m, nil

	case "/clear":
		m.confirm = &confirmAction{
			kind:   confirmClear,
			prompt: "Clear this chat? (y/N)",
		}
		return m, nil

	case "/clearall":
		m.confirm = &confirmAction{
			kind:   confirmClearAll,
			prompt: "Delete ALL sessions? (y/N)",
		}
		return m, nil

	case "/export":
		return m.exportActive()

	case "/tasks":
		m.appendBot(m.store.ActiveID(), m.tasks.Summary(), false)
		return m, nil

	case "/task":
		return m.handleTaskCommand(args)

	case "/quick":
		return m.handleQuick(args)

	case "/upload":
		return m.handleUploadCommand(args)

	case "/copy":
		return m.handleCopy()

	case "/speak":
		return m.handleSpeak()

	case "/voice":
		return m.handleVoice()

	case "/sound":
		return m.handleSound()

	case "/mode":
		if len(args) == 0 {
			return m, m.notify("Mode: " + m.mode)
		}
		m.mode = args[0]
		m.cfg.Mode = args[0]
		if err := config.Save(m.cfg); err != nil {
			m.logger.Warn("failed to save config", zap.Error(err))
		}
		return m, m.notify("Mode set to " + m.mode)

	case "/theme":
		return m.handleTheme(args)

	case "/profile":
		return m.handleProfile(args)
	}

	return m, m.notify("Unknown command, try /help")
}

func (m *Model) exportActive() (tea.Model, tea.Cmd) {
	content, err := m.store.ExportActive()
	if err != nil {
		return m, m.notify("Nothing to export")
	}

	dir := m.cfg.ExportDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		m.logger.Error("failed to create export directory", zap.Error(err))
		return m, m.notify("Export failed")
	}

	name := fmt.Sprintf("neurabot_chat_%s.txt", m.store.ActiveID())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		m.logger.Error("failed to write export", zap.Error(err))
		return m, m.notify("Export failed")
	}
	return m, m.notify("Exported to " + path)
}

func (m *Model) handleTaskCommand(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, m.notify("Usage: /task add <text> | done <n> | rm <n>")
	}

	switch args[0] {
	case "add":
		text := strings.Join(args[1:], " ")
		if text == "" {
			return m, m.notify("Usage: /task add <text>")
		}
		if err := m.tasks.Add(text); err != nil {
			m.logger.Error("failed to add task", zap.Error(err))
			return m, m.notify("Could not save task")
		}
		return m, m.notify("Task added")

	case "done", "rm":
		if len(args) < 2 {
			return m, m.notify("Which task number?")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > m.tasks.Len() {
			return m, m.notify("No such task")
		}
		if args[0] == "done" {
			err = m.tasks.Toggle(n - 1)
		} else {
			err = m.tasks.Remove(n - 1)
		}
		if err != nil {
			m.logger.Error("failed to update task", zap.Error(err))
			return m, m.notify("Could not update task")
		}
		m.appendBot(m.store.ActiveID(), m.tasks.Summary(), false)
		return m, nil
	}
	return m, m.notify("Usage: /task add <text> | done <n> | rm <n>")
}

func (m *Model) handleQuick(args []string) (tea.Model, tea.Cmd) {
	if len(m.quickReplies) == 0 {
		return m, m.notify("No quick replies configured")
	}
	if len(args) == 0 {
		var b strings.Builder
		b.WriteString("**Quick replies**\n")
		for i, reply := range m.quickReplies {
			fmt.Fprintf(&b, "%d. %s\n", i+1, reply)
		}
		b.WriteString("\nSend one with /quick <n>")
		m.appendBot(m.store.ActiveID(), b.String(), false)
		return m, nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(m.quickReplies) {
		return m, m.notify("No such quick reply")
	}
	return m.submitText(m.quickReplies[n-1])
}

func (m *Model) handleUploadCommand(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, m.notify("Usage: /upload <path>")
	}
	if m.isLoading {
		return m, m.notify("Still waiting for a reply")
	}
	path := strings.Join(args, " ")
	if _, err := os.Stat(path); err != nil {
		return m, m.notify("File not found: " + path)
	}

	sess := m.store.Active()
	if sess == nil {
		return m, nil
	}
	notice := fmt.Sprintf(uploadUserText, filepath.Base(path))
	if _, err := m.store.Append(sess.ID, notice, session.SenderUser, true); err != nil {
		m.logger.Error("failed to append message", zap.Error(err))
		return m, m.notify("Could not save message")
	}

	m.renderer.ShowPending()
	m.refreshViewport()
	m.isLoading = true
	return m, tea.Batch(m.spin.Tick, m.uploadCmd(sess.ID, path))
}

func (m *Model) handleCopy() (tea.Model, tea.Cmd) {
	msg := m.lastBotMessage()
	if msg == nil {
		return m, m.notify("Nothing to copy")
	}
	if err := clipboard.WriteAll(msg.Content); err != nil {
		m.logger.Warn("clipboard write failed", zap.Error(err))
		return m, m.notify("Clipboard unavailable")
	}
	return m, m.notify("Copied to clipboard")
}

func (m *Model) handleSpeak() (tea.Model, tea.Cmd) {
	if m.caps.Synthesis != speech.Available || m.speaker == nil {
		return m, m.notify("Speech is not available")
	}
	// Speaking again while audible toggles playback off.
	if m.speaker.Speaking() {
		m.speaker.Stop()
		return m, m.notify("Stopped")
	}
	msg := m.lastBotMessage()
	if msg == nil {
		return m, m.notify("Nothing to speak")
	}
	if err := m.speaker.Speak(msg.Content); err != nil {
		m.logger.Warn("speech synthesis failed", zap.Error(err))
		return m, m.notify("Speech failed")
	}
	return m, nil
}

func (m *Model) handleVoice() (tea.Model, tea.Cmd) {
	if m.caps.Recognition != speech.Available || m.recognizer == nil {
		return m, m.notify("Voice input is not available")
	}
	if m.listening {
		m.recognizer.Stop()
		m.listening = false
		return m, m.notify("Stopped listening")
	}
	if !m.voiceEnabled {
		m.voiceEnabled = true
		if err := m.db.Put(storage.KeyVoiceInput, true); err != nil {
			m.logger.Warn("failed to save voice preference", zap.Error(err))
		}
	}
	m.listening = true
	return m, tea.Batch(m.notify("Listening..."), m.listenCmd())
}

func (m *Model) handleSound() (tea.Model, tea.Cmd) {
	if m.caps.Synthesis != speech.Available {
		return m, m.notify("Speech is not available")
	}
	m.soundEnabled = !m.soundEnabled
	if err := m.db.Put(storage.KeySound, m.soundEnabled); err != nil {
		m.logger.Warn("failed to save sound preference", zap.Error(err))
	}
	if m.soundEnabled {
		return m, m.notify("Spoken replies on")
	}
	if m.speaker != nil {
		m.speaker.Stop()
	}
	return m, m.notify("Spoken replies off")
}

func (m *Model) handleTheme(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, m.notify("Themes: " + strings.Join(ui.ThemeNames(), ", "))
	}

	theme, ok := ui.ThemeByName(args[0])
	if !ok {
		return m, m.notify("Unknown theme, options: " + strings.Join(ui.ThemeNames(), ", "))
	}
	m.styles = ui.NewStyles(theme)
	m.spin.Style = m.styles.Spinner
	m.renderer.SetStyles(m.styles)
	if err := m.db.Put(storage.KeyTheme, theme.Name); err != nil {
		m.logger.Warn("failed to save theme", zap.Error(err))
	}
	m.refreshViewport()
	return m, m.notify("Theme: " + theme.Name)
}

func (m *Model) handleProfile(args []string) (tea.Model, tea.Cmd) {
	if len(args) < 2 {
		return m, m.notify("Usage: /profile name <n> | avatar <a>")
	}

	switch args[0] {
	case "name":
		m.profile.Name = strings.Join(args[1:], " ")
	case "avatar":
		if !ui.ValidAvatar(args[1]) {
			return m, m.notify("Avatars: " + strings.Join(ui.AvatarTypes(), ", "))
		}
		m.profile.Avatar = args[1]
	default:
		return m, m.notify("Usage: /profile name <n> | avatar <a>")
	}

	if err := m.db.Put(storage.KeyUser, m.profile); err != nil {
		m.logger.Warn("failed to save profile", zap.Error(err))
	}
	m.refreshViewport()
	return m, m.notify("Profile updated")
}

// lastBotMessage returns the most recent assistant message in the active
// session.
func (m *Model) lastBotMessage() *session.Message {
	sess := m.store.Active()
	if sess == nil {
		return nil
	}
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Sender == session.SenderBot {
			return &sess.Messages[i]
		}
	}
	return nil
}
