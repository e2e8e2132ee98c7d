package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	authmodels "github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/tui/models"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"
)

// ExportView prompts for a filename and exports the picked users
type ExportView struct {
	users        []*models.UserItem
	textInput    textinput.Model
	err          error
	width        int
	height       int
	exportStatus string
	Success      bool
}

// NewExportView creates a new export view
func NewExportView(users []*models.UserItem) ExportView {
	ti := textinput.New()
	ti.Placeholder = "filename.yaml"
	ti.Focus()
	ti.Width = 40

	return ExportView{
		users:     users,
		textInput: ti,
	}
}

// Init initializes the export view
func (m ExportView) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the export view
func (m ExportView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, func() tea.Msg { return BackToMainMsg{} }
		case "enter":
			if m.textInput.Value() == "" {
				m.exportStatus = "Please enter a filename"
				return m, nil
			}

			filename := m.textInput.Value()
			if !strings.HasSuffix(filename, ".yaml") && !strings.HasSuffix(filename, ".yml") {
				filename += ".yaml"
			}

			err := ExportUsersToYamlFile(m.users, filename)
			if err != nil {
				m.err = err
				m.exportStatus = fmt.Sprintf("Error exporting: %v", err)
				return m, nil
			}

			if _, err := os.Stat(filename); os.IsNotExist(err) {
				m.exportStatus = fmt.Sprintf("Error: File %s was not created", filename)
				return m, nil
			}

			m.Success = true
			m.exportStatus = completeMessageStyle(fmt.Sprintf("Exported %s to %s", pluralize(len(m.users), "user"), filename))
			return m, tea.Sequence(
				tea.Tick(time.Second*1, func(time.Time) tea.Msg {
					return tea.Quit()
				}),
			)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the export view
func (m ExportView) View() string {
	var sb strings.Builder

	verticalPadding := (m.height - 6) / 2
	for i := 0; i < verticalPadding; i++ {
		sb.WriteString("\n")
	}

	title := titleStyle.Render("Export Users")
	sb.WriteString(centerText(title, m.width))
	sb.WriteString("\n\n")

	prompt := fmt.Sprintf("Enter filename to export %s:", pluralize(len(m.users), "user"))
	sb.WriteString(centerText(prompt, m.width))
	sb.WriteString("\n")

	input := m.textInput.View()
	sb.WriteString(centerText(input, m.width))
	sb.WriteString("\n\n")

	if m.exportStatus != "" {
		sb.WriteString(centerText(m.exportStatus, m.width))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(centerText("(esc) Back to list | (enter) Export", m.width))

	return sb.String()
}

// BackToMainMsg signals to go back to the user list
type BackToMainMsg struct{}

// UserExport is the document written by ExportUsersToYamlFile
type UserExport struct {
	Users []*authmodels.LocalUser `yaml:"users"`
}

// ExportUsersToYamlFile writes the given users to filename. The password
// placeholder is never part of the output.
func ExportUsersToYamlFile(users []*models.UserItem, filename string) error {
	exportData := UserExport{Users: make([]*authmodels.LocalUser, 0, len(users))}
	for _, item := range users {
		exportData.Users = append(exportData.Users, item.User)
	}

	yamlData, err := yaml.Marshal(exportData)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, yamlData, 0o600)
}

// Helper function to center text horizontally
func centerText(text string, width int) string {
	if width <= len(text) {
		return text
	}

	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}
