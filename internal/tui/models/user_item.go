package models

import (
	"fmt"

	authmodels "github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/charmbracelet/lipgloss"
)

// UserItem wraps a LocalUser for display in the list
// Implements list.Item
type UserItem struct {
	User     *authmodels.LocalUser
	Selected bool
}

func (i UserItem) Title() string {
	return i.User.Email
}

func (i UserItem) Description() string {
	desc := fmt.Sprintf("%s · %s", i.User.Username, i.User.CreatedAt.Format("2006-01-02 15:04"))
	if i.Selected {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("#56FF4E")).
			Render("[Selected] " + desc)
	}
	return desc
}

func (i UserItem) ToggleSelected() UserItem {
	i.Selected = !i.Selected
	return i
}

func (i UserItem) FilterValue() string {
	return i.User.Email + " " + i.User.Username
}
