package tui

import (
	"github.com/brizzai/oauth-login/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// newItemDelegate returns a list.DefaultDelegate with custom update and help functions.
func newItemDelegate(keys *delegateKeyMap) list.DefaultDelegate {
	d := list.NewDefaultDelegate()

	d.UpdateFunc = func(msg tea.Msg, m *list.Model) tea.Cmd {
		item, ok := m.SelectedItem().(models.UserItem)
		if !ok {
			return nil
		}

		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch {
			case key.Matches(msg, keys.toggle):
				updatedItem := item.ToggleSelected()
				m.SetItem(m.Index(), updatedItem)
				if updatedItem.Selected {
					return m.NewStatusMessage(statusMessageStyle("Selected " + item.Title() + " for export"))
				}
				return m.NewStatusMessage(statusMessageStyle("Unselected " + item.Title()))
			}
		}
		return nil
	}

	help := []key.Binding{keys.toggle}

	d.ShortHelpFunc = func() []key.Binding {
		return help
	}

	d.FullHelpFunc = func() [][]key.Binding {
		return [][]key.Binding{help}
	}

	return d
}

// delegateKeyMap holds key bindings for list item actions.
type delegateKeyMap struct {
	toggle key.Binding
}

// newDelegateKeyMap creates a new delegateKeyMap with default bindings.
func newDelegateKeyMap() *delegateKeyMap {
	return &delegateKeyMap{
		toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "Toggle export selection"),
		),
	}
}
