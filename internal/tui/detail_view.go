package tui

import (
	"strings"
	"time"

	"github.com/brizzai/oauth-login/internal/tui/models"
)

// renderUserDetail renders every public field of the selected user
func renderUserDetail(item models.UserItem) string {
	u := item.User
	rows := [][2]string{
		{"ID", u.ID},
		{"Email", u.Email},
		{"Username", u.Username},
		{"Provider user ID", u.ProviderUserID},
		{"Created", u.CreatedAt.Format(time.RFC3339)},
	}

	var sb strings.Builder
	sb.WriteString(detailHeaderStyle.Render(u.Email))
	sb.WriteString("\n\n")
	for _, row := range rows {
		sb.WriteString(detailLabelStyle.Render(row[0]))
		sb.WriteString(row[1])
		sb.WriteString("\n")
	}
	sb.WriteString("\n(esc) Back to list\n")
	return sb.String()
}
