package providers

import (
	"strings"

	"github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/brizzai/oauth-login/internal/config"
	"github.com/tidwall/gjson"
)

// ExtractProfile pulls the id, email and display name out of a profile document.
// Every path is optional, a missing key at any depth yields an empty field.
func ExtractProfile(body []byte, paths config.ProfilePaths) (*models.ProviderProfile, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidProfile
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, ErrInvalidProfile
	}

	return &models.ProviderProfile{
		ProviderUserID: scalar(doc, paths.IDPath),
		Email:          scalar(doc, paths.EmailPath),
		DisplayName:    scalar(doc, paths.NamePath),
	}, nil
}

func scalar(doc gjson.Result, path string) string {
	if path == "" {
		return ""
	}
	v := doc.Get(path)
	switch v.Type {
	case gjson.String, gjson.Number:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}
