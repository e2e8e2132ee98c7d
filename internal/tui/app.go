// Package tui is a terminal browser for the users created by logins.
package tui

import (
	"context"
	"fmt"

	authmodels "github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/store"
	"github.com/brizzai/oauth-login/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

type page string

const (
	pageMain   page = "main"
	pageList   page = "list"
	pageExport page = "export"
)

// AppModel is the main application model that manages page switching
type AppModel struct {
	mainPage   MainPageModel
	listView   ListItemModel
	exportView ExportView
	page       page
}

// NewAppModel creates a new AppModel over a snapshot of the users
func NewAppModel(provider string, users []*authmodels.LocalUser) AppModel {
	return AppModel{
		mainPage: NewMainPageModel(provider, users),
		listView: NewListItemModel(users),
		page:     pageMain,
	}
}

// LoadAppModel snapshots the store and builds the app over it
func LoadAppModel(ctx context.Context, provider string, users store.UserStore) (AppModel, error) {
	all, err := users.List(ctx)
	if err != nil {
		return AppModel{}, fmt.Errorf("failed to list users: %w", err)
	}
	return NewAppModel(provider, all), nil
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.mainPage.Init(),
		m.listView.Init(),
	)
}

// Update handles app-level messages and delegates to the active page
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case OpenListItemMsg:
		m.page = pageList
		return m, m.listView.Init()

	case DoneMsg:
		m.page = pageExport
		m.exportView = NewExportView(msg.Users)
		return m, m.exportView.Init()

	case BackToMainMsg:
		m.page = pageList
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" && m.page == pageList && !m.listView.ShowingDetails() {
			m.page = pageMain
			return m, nil
		}

	case tea.WindowSizeMsg:
		var cmd tea.Cmd
		var tempModel tea.Model

		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
		cmds = append(cmds, cmd)

		tempModel, cmd = m.listView.Update(msg)
		m.listView = tempModel.(ListItemModel)
		cmds = append(cmds, cmd)

		tempModel, cmd = m.exportView.Update(msg)
		m.exportView = tempModel.(ExportView)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	var tempModel tea.Model
	switch m.page {
	case pageMain:
		tempModel, cmd = m.mainPage.Update(msg)
		m.mainPage = tempModel.(MainPageModel)
	case pageList:
		tempModel, cmd = m.listView.Update(msg)
		m.listView = tempModel.(ListItemModel)
	case pageExport:
		tempModel, cmd = m.exportView.Update(msg)
		m.exportView = tempModel.(ExportView)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the active page
func (m AppModel) View() string {
	switch m.page {
	case pageMain:
		return m.mainPage.View()
	case pageExport:
		return m.exportView.View()
	default:
		return m.listView.View()
	}
}

// ExportedUsers returns the users written by the export page
func (m AppModel) ExportedUsers() []*models.UserItem {
	if !m.IsFinished() {
		return nil
	}
	return m.exportView.users
}

// IsFinished reports whether the user completed an export
func (m AppModel) IsFinished() bool {
	return m.exportView.Success
}
