package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	authmodels "github.com/brizzai/oauth-login/internal/auth/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleUsers() []*authmodels.LocalUser {
	return []*authmodels.LocalUser{{
		ID:                  "u1",
		Email:               "a@b.com",
		Username:            "Al",
		PasswordPlaceholder: "$2a$10$secret",
		ProviderUserID:      "123",
		CreatedAt:           time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestPrintUsers(t *testing.T) {
	tests := []struct {
		name   string
		output string
		check  func(t *testing.T, out []byte)
	}{
		{
			name:   "json",
			output: outputJSON,
			check: func(t *testing.T, out []byte) {
				var got []map[string]any
				require.NoError(t, json.Unmarshal(out, &got))
				require.Len(t, got, 1)
				assert.Equal(t, "a@b.com", got[0]["email"])
				assert.NotContains(t, got[0], "PasswordPlaceholder")
			},
		},
		{
			name:   "yaml",
			output: outputYAML,
			check: func(t *testing.T, out []byte) {
				var got struct {
					Users []authmodels.LocalUser `yaml:"users"`
				}
				require.NoError(t, yaml.Unmarshal(out, &got))
				require.Len(t, got.Users, 1)
				assert.Equal(t, "123", got.Users[0].ProviderUserID)
			},
		},
		{
			name:   "table",
			output: outputTable,
			check: func(t *testing.T, out []byte) {
				assert.Contains(t, string(out), "a@b.com")
				assert.Contains(t, string(out), "Total: 1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printUsers(&buf, tt.output, sampleUsers()))
			assert.NotContains(t, buf.String(), "$2a$")
			tt.check(t, buf.Bytes())
		})
	}
}

func TestPrintUsers_UnknownFormat(t *testing.T) {
	err := printUsers(&bytes.Buffer{}, "xml", sampleUsers())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
