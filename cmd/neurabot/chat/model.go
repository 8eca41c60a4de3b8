// Package chat implements the interactive NeuraBot terminal interface:
// a Bubble Tea model wiring the session store, backend client, task
// list, and speech adapters into one chat screen.
package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"neurabot/cmd/neurabot/config"
	"neurabot/cmd/neurabot/ui"
	"neurabot/internal/botclient"
	"neurabot/internal/session"
	"neurabot/internal/speech"
	"neurabot/internal/storage"
	"neurabot/internal/tasks"
)

// User-facing notices kept byte-identical across the app.
const (
	fallbackReplyText = "⚠️ Oops! Could not connect to server."
	uploadFailedText  = "⚠️ Failed to upload file."
	uploadSuccessText = "✅ File processed: %s"
	uploadUserText    = "📎 Uploaded file: **%s**"
)

// Profile is the user's display identity, persisted across restarts.
type Profile struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// confirmKind enumerates the destructive actions that require a y/N
// answer before running.
type confirmKind int

const (
	confirmDelete confirmKind = iota
	confirmClear
	confirmClearAll
)

type confirmAction struct {
	kind     confirmKind
	targetID string
	prompt   string
}

// Messages produced by async commands.
type (
	// replyMsg carries the backend's answer for a specific session.
	replyMsg struct {
		sessionID string
		reply     *botclient.Reply
		err       error
	}

	// uploadMsg reports the outcome of a file upload.
	uploadMsg struct {
		sessionID string
		filename  string
		err       error
	}

	// transcriptMsg carries the result of a one-shot voice capture.
	transcriptMsg struct {
		text string
		err  error
	}

	// noticeExpiredMsg dismisses the banner it was scheduled for.
	noticeExpiredMsg struct {
		id int
	}

	// configReloadedMsg arrives when the config file changes on disk.
	configReloadedMsg struct {
		cfg *config.Config
	}
)

// ConfigReloaded wraps a freshly loaded config for delivery into the
// running program, typically from a file watcher.
func ConfigReloaded(cfg *config.Config) tea.Msg {
	return configReloadedMsg{cfg: cfg}
}

// Options wires the model's collaborators.
type Options struct {
	Store        *session.Store
	Tasks        *tasks.List
	Client       *botclient.Client
	DB           *storage.Store
	Caps         speech.Capabilities
	Recognizer   *speech.Recognizer
	Speaker      *speech.Speaker
	Config       *config.Config
	QuickReplies []string
	Logger       *zap.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	store  *session.Store
	tasks  *tasks.List
	client *botclient.Client
	db     *storage.Store
	logger *zap.Logger

	caps       speech.Capabilities
	recognizer *speech.Recognizer
	speaker    *speech.Speaker

	cfg          *config.Config
	quickReplies []string

	styles   ui.Styles
	renderer *Renderer

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool

	isLoading    bool
	listening    bool
	showSidebar  bool
	sidebarIndex int

	mode         string
	profile      Profile
	voiceEnabled bool
	soundEnabled bool

	confirm  *confirmAction
	notice   string
	noticeID int

	quitting bool
}

// New builds the chat model, hydrating persisted preferences and the
// session store.
func New(opts Options) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := opts.Store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	if err := opts.Tasks.Load(); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	// A corrupt preference row falls back to the default, but gets logged
	// so it stays diagnosable.
	loadPref := func(key string, v any) {
		if _, err := opts.DB.Get(key, v); err != nil {
			logger.Warn("failed to load preference",
				zap.String("key", key), zap.Error(err))
		}
	}

	themeName := ui.DefaultThemeName
	loadPref(storage.KeyTheme, &themeName)
	theme, _ := ui.ThemeByName(themeName)
	styles := ui.NewStyles(theme)

	profile := Profile{Name: "You", Avatar: ui.DefaultAvatar}
	loadPref(storage.KeyUser, &profile)

	voiceEnabled := false
	loadPref(storage.KeyVoiceInput, &voiceEnabled)
	if opts.Caps.Recognition != speech.Available {
		voiceEnabled = false
	}
	soundEnabled := false
	loadPref(storage.KeySound, &soundEnabled)
	if opts.Caps.Synthesis != speech.Available {
		soundEnabled = false
	}

	input := textinput.New()
	input.Placeholder = "Type a message, or /help"
	input.Focus()
	input.CharLimit = 4000

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	m := &Model{
		store:        opts.Store,
		tasks:        opts.Tasks,
		client:       opts.Client,
		db:           opts.DB,
		logger:       logger,
		caps:         opts.Caps,
		recognizer:   opts.Recognizer,
		speaker:      opts.Speaker,
		cfg:          opts.Config,
		quickReplies: opts.QuickReplies,
		styles:       styles,
		renderer:     NewRenderer(styles, 80),
		input:        input,
		spin:         spin,
		mode:         opts.Config.Mode,
		profile:      profile,
		voiceEnabled: voiceEnabled,
		soundEnabled: soundEnabled,
	}
	return m, nil
}

// Init starts the cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}
