package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brizzai/oauth-login/internal/config"
	"github.com/brizzai/oauth-login/internal/store/bolt"
	"github.com/brizzai/oauth-login/internal/store/memory"
	"github.com/brizzai/oauth-login/internal/store/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		cfg    config.StoreConfig
		assert func(t *testing.T, s any)
	}{
		{
			name: "memory",
			cfg:  config.StoreConfig{Driver: config.StoreDriverMemory},
			assert: func(t *testing.T, s any) {
				assert.IsType(t, &memory.Store{}, s)
			},
		},
		{
			name: "bolt",
			cfg:  config.StoreConfig{Driver: config.StoreDriverBolt, DSN: filepath.Join(dir, "u.db")},
			assert: func(t *testing.T, s any) {
				assert.IsType(t, &bolt.Store{}, s)
			},
		},
		{
			name: "sqlite",
			cfg:  config.StoreConfig{Driver: config.StoreDriverSQLite, DSN: filepath.Join(dir, "u.sqlite")},
			assert: func(t *testing.T, s any) {
				assert.IsType(t, &sqlstore.Store{}, s)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(context.Background(), &tt.cfg)
			require.NoError(t, err)
			defer s.Close()
			tt.assert(t, s)
		})
	}

	_, err := New(context.Background(), &config.StoreConfig{Driver: "redis"})
	assert.ErrorContains(t, err, "unsupported store driver")
}
