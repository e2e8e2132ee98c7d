package tui

import (
	"fmt"
	"strings"

	authmodels "github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxPreviewUsers = 5

// MainPageKeyMap holds key bindings for the main page actions
type MainPageKeyMap struct {
	open key.Binding
	quit key.Binding
}

func newMainPageKeyMap() *MainPageKeyMap {
	return &MainPageKeyMap{
		open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Browse users"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("ctrl+c/q", "Quit"),
		),
	}
}

// MainPageModel is the landing page with a summary of the user store
type MainPageModel struct {
	keys     *MainPageKeyMap
	width    int
	height   int
	provider string
	users    []*authmodels.LocalUser
}

// OpenListItemMsg is sent when the user chooses to open the user list
type OpenListItemMsg struct{}

func NewMainPageModel(provider string, users []*authmodels.LocalUser) MainPageModel {
	return MainPageModel{
		keys:     newMainPageKeyMap(),
		provider: provider,
		users:    users,
	}
}

func (m MainPageModel) Init() tea.Cmd {
	return nil
}

func (m MainPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.open):
			return m, func() tea.Msg { return OpenListItemMsg{} }
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m MainPageModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render("OAuth Login Users")

	descStyle := lipgloss.NewStyle().
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center)

	description := descStyle.Render(
		"Local accounts created by " + m.provider + " logins.\n" +
			"Browse, filter and export them as YAML.\n\n" +
			"The store currently holds " + pluralize(len(m.users), "user") + ".",
	)

	previewStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#fee500")).
		Padding(1, 1).
		Width(m.width - 10).
		Align(lipgloss.Left)

	var preview strings.Builder
	shown := min(len(m.users), maxPreviewUsers)
	for _, u := range m.users[:shown] {
		preview.WriteString(fmt.Sprintf("%s  %s\n", u.Email, u.Username))
	}
	if len(m.users) > maxPreviewUsers {
		preview.WriteString(fmt.Sprintf("\n... and %d more users", len(m.users)-maxPreviewUsers))
	}
	if len(m.users) == 0 {
		preview.WriteString("No user has logged in yet")
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}).
		Width(m.width - 4).
		Align(lipgloss.Center)

	instructionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#fee500")).
		Padding(1, 0).
		Width(m.width - 4).
		Align(lipgloss.Center)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		title,
		"",
		description,
		"",
		previewStyle.Render(preview.String()),
		"",
		instructionStyle.Render("Press ENTER to browse users"),
		"",
		helpStyle.Render("Press q or Ctrl+C to quit"),
	)

	return docStyle.Render(content)
}

// pluralize returns the count followed by the noun, pluralized when needed
func pluralize(count int, singular string) string {
	if count == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %ss", count, singular)
}
