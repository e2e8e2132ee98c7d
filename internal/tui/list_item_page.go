package tui

import (
	authmodels "github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/tui/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// listKeyMap holds key bindings for the list actions.
type listKeyMap struct {
	details key.Binding
	back    key.Binding
	export  key.Binding
	quit    key.Binding
}

// DoneMsg carries the users picked for export
type DoneMsg struct {
	Users []*models.UserItem
}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Details"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		export: key.NewBinding(
			key.WithKeys("E", "e"),
			key.WithHelp("E", "Export"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
	}
}

// ListItemModel lists the users and shows the details of one of them
type ListItemModel struct {
	list        list.Model
	keys        *listKeyMap
	showDetails bool
}

func (m ListItemModel) Init() tea.Cmd {
	return nil
}

func (m ListItemModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showDetails {
			switch {
			case key.Matches(msg, m.keys.quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.back):
				m.showDetails = false
			}
			return m, nil
		}

		// keys belong to the filter input while the user is typing
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.details):
			if _, ok := m.list.SelectedItem().(models.UserItem); ok {
				m.showDetails = true
			}
			return m, nil
		case key.Matches(msg, m.keys.export):
			users := m.SelectedUsers()
			return m, func() tea.Msg { return DoneMsg{Users: users} }
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ListItemModel) View() string {
	if m.showDetails {
		if item, ok := m.list.SelectedItem().(models.UserItem); ok {
			return docStyle.Render(renderUserDetail(item))
		}
	}
	return docStyle.Render(m.list.View())
}

// ShowingDetails reports whether the detail panel is open
func (m ListItemModel) ShowingDetails() bool {
	return m.showDetails
}

func NewListItemModel(users []*authmodels.LocalUser) ListItemModel {
	listKeys := newListKeyMap()

	items := make([]list.Item, len(users))
	for i, u := range users {
		items[i] = models.UserItem{User: u}
	}

	l := list.New(items, newItemDelegate(newDelegateKeyMap()), 0, 0)
	l.Title = titleStyle.Render("Users")
	l.SetShowFilter(true)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			listKeys.details,
			listKeys.export,
			listKeys.quit,
		}
	}
	return ListItemModel{list: l, keys: listKeys}
}

// SelectedUsers returns the users toggled for export, or every visible user
// when none was toggled.
func (m ListItemModel) SelectedUsers() []*models.UserItem {
	var selected, visible []*models.UserItem
	for _, li := range m.list.Items() {
		item := li.(models.UserItem)
		if item.Selected {
			selected = append(selected, &item)
		}
	}
	if len(selected) > 0 {
		return selected
	}
	for _, li := range m.list.VisibleItems() {
		item := li.(models.UserItem)
		visible = append(visible, &item)
	}
	return visible
}
