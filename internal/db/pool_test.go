package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/feedrelay/internal/config"
)

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       *config.DatabaseConfig
		wantErr   string
		wantDB    string
		wantMax   int32
		wantMin   int32
		wantLife  time.Duration
		wantTimer time.Duration
	}{
		{
			name:    "nil config",
			wantErr: "database configuration is required",
		},
		{
			name: "connection string with database override",
			cfg: &config.DatabaseConfig{
				ConnectionString: "postgres://relay:secret@db:5432/postgres?sslmode=disable",
				Name:             "confessions",
			},
			wantDB:    "confessions",
			wantTimer: defaultConnectTimeout,
		},
		{
			name: "pool settings",
			cfg: &config.DatabaseConfig{
				ConnectionString: "postgres://relay:secret@db:5432/feedrelay?sslmode=disable&connect_timeout=3",
				MaxOpenConns:     8,
				MaxIdleConns:     2,
				ConnMaxLifetime:  "30m",
			},
			wantDB:    "feedrelay",
			wantMax:   8,
			wantMin:   2,
			wantLife:  30 * time.Minute,
			wantTimer: 3 * time.Second,
		},
		{
			name:    "malformed connection string",
			cfg:     &config.DatabaseConfig{ConnectionString: "postgres://relay:secret@db:notaport/x"},
			wantErr: "failed to parse database connection string",
		},
		{
			name: "bad lifetime",
			cfg: &config.DatabaseConfig{
				ConnectionString: "postgres://relay:secret@db:5432/feedrelay",
				ConnMaxLifetime:  "forever",
			},
			wantErr: "connMaxLifetime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			poolConfig, err := buildPoolConfig(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDB, poolConfig.ConnConfig.Database)
			assert.Equal(t, tt.wantTimer, poolConfig.ConnConfig.ConnectTimeout)
			if tt.wantMax > 0 {
				assert.Equal(t, tt.wantMax, poolConfig.MaxConns)
			}
			if tt.wantMin > 0 {
				assert.Equal(t, tt.wantMin, poolConfig.MinConns)
			}
			if tt.wantLife > 0 {
				assert.Equal(t, tt.wantLife, poolConfig.MaxConnLifetime)
			}
		})
	}
}

func TestTables(t *testing.T) {
	t.Parallel()

	tables := Tables(&config.DatabaseConfig{Collections: config.CollectionsConfig{Items: "confessions"}})
	assert.Equal(t, "confessions", tables.Items)
	assert.NotEmpty(t, tables.Checkpoint)
	assert.NotEmpty(t, tables.Subscriptions)

	defaults := Tables(nil)
	assert.Equal(t, "posts", defaults.Items)
	assert.Equal(t, "max_post_number", defaults.Checkpoint)
	assert.Equal(t, "channels", defaults.Subscriptions)
}
