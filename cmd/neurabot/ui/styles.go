// Package ui provides the visual styling for the NeuraBot terminal app.
package ui

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds one color scheme.
type Theme struct {
	Name       string
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	UserBubble lipgloss.Color
	BotBubble  lipgloss.Color
	IsDark     bool
}

var themes = map[string]Theme{
	"dark": {
		Name:       "dark",
		Background: lipgloss.Color("#10141f"),
		Foreground: lipgloss.Color("#e8eaed"),
		Primary:    lipgloss.Color("#4f8cff"),
		Accent:     lipgloss.Color("#8BC34A"),
		Muted:      lipgloss.Color("#5c6370"),
		Border:     lipgloss.Color("#2a3142"),
		UserBubble: lipgloss.Color("#2d5bd1"),
		BotBubble:  lipgloss.Color("#1e2536"),
		IsDark:     true,
	},
	"light": {
		Name:       "light",
		Background: lipgloss.Color("#f5f6f8"),
		Foreground: lipgloss.Color("#1c2330"),
		Primary:    lipgloss.Color("#2456c4"),
		Accent:     lipgloss.Color("#5e9c2f"),
		Muted:      lipgloss.Color("#8a93a3"),
		Border:     lipgloss.Color("#d8dde6"),
		UserBubble: lipgloss.Color("#dce7ff"),
		BotBubble:  lipgloss.Color("#ffffff"),
		IsDark:     false,
	},
	"purple": {
		Name:       "purple",
		Background: lipgloss.Color("#17111f"),
		Foreground: lipgloss.Color("#ece6f5"),
		Primary:    lipgloss.Color("#a277ff"),
		Accent:     lipgloss.Color("#61ffca"),
		Muted:      lipgloss.Color("#6d5b8e"),
		Border:     lipgloss.Color("#2e2345"),
		UserBubble: lipgloss.Color("#5d3fa3"),
		BotBubble:  lipgloss.Color("#221933"),
		IsDark:     true,
	},
	"ocean": {
		Name:       "ocean",
		Background: lipgloss.Color("#0b1b24"),
		Foreground: lipgloss.Color("#d8eef5"),
		Primary:    lipgloss.Color("#30b8d4"),
		Accent:     lipgloss.Color("#ffd166"),
		Muted:      lipgloss.Color("#4a6a78"),
		Border:     lipgloss.Color("#16313f"),
		UserBubble: lipgloss.Color("#11556b"),
		BotBubble:  lipgloss.Color("#102732"),
		IsDark:     true,
	},
}

// DefaultThemeName is used before the user picks a theme.
const DefaultThemeName = "dark"

// ThemeByName looks up a theme. Unknown names fall back to the default
// and report false.
func ThemeByName(name string) (Theme, bool) {
	if t, ok := themes[name]; ok {
		return t, true
	}
	return themes[DefaultThemeName], false
}

// ThemeNames lists the available themes in stable order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectTheme picks dark or light from the terminal's reported colors.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if bgIdx >= 7 && bgIdx != 8 {
					return themes["light"]
				}
			}
		}
	}
	return themes[DefaultThemeName]
}

// Styles holds the styled components of the chat screen.
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Footer  lipgloss.Style
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Banner  lipgloss.Style

	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Timestamp lipgloss.Style
	Pending   lipgloss.Style

	Sidebar       lipgloss.Style
	SessionItem   lipgloss.Style
	SessionActive lipgloss.Style

	Spinner lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles builds the style set for a theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Primary).
			Padding(0, 1).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e53935")).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Banner: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Border).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		BotLabel: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Timestamp: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Pending: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(theme.Border).
			PaddingRight(1),

		SessionItem: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		SessionActive: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// RenderDivider returns a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
