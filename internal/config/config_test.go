package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/feedrelay/internal/telemetry"
	"github.com/stacklok/feedrelay/internal/walker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		yamlContent string
		check       func(t *testing.T, cfg *Config)
		wantErr     string
	}{
		{
			name: "database_config",
			yamlContent: `discord:
  token: abc
feed:
  url: https://facebook.com/beaverconfessions
  cookiesFile: /secrets/cookies.txt
  elementTimeout: 5s
  selectors:
    postBody: .post
storage:
  type: database
database:
  connectionString: postgres://u:p@db/feeds
  collections:
    items: confessions
sync:
  interval: 20m
  maxAttempts: 3`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, StorageTypeDatabase, cfg.GetStorageType())
				assert.Equal(t, "abc", cfg.Discord.Token)
				assert.Equal(t, 5*time.Second, cfg.Feed.GetElementTimeout())
				assert.Equal(t, walker.Selector(".post"), cfg.Feed.Selectors.PostBody)
				assert.Equal(t, 20*time.Minute, cfg.Sync.GetInterval())
				assert.Equal(t, 3, cfg.Sync.GetMaxAttempts())
				assert.Equal(t, CollectionsConfig{
					Items:         "confessions",
					Checkpoint:    "max_post_number",
					Subscriptions: "channels",
				}, cfg.Database.GetCollections())
			},
		},
		{
			name: "file_config_defaults",
			yamlContent: `feed:
  url: https://facebook.com/beaverconfessions
  cookiesFile: cookies.txt`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, StorageTypeFile, cfg.GetStorageType())
				assert.Equal(t, DefaultDataDir, cfg.Storage.GetDataDir())
				assert.Equal(t, DefaultSyncInterval, cfg.Sync.GetInterval())
				assert.Equal(t, 1, cfg.Sync.GetMaxAttempts())
				assert.Equal(t, DefaultElementTimeout, cfg.Feed.GetElementTimeout())
				assert.Equal(t, DefaultFeedRootURL, cfg.Feed.GetRootURL())
				assert.Equal(t, DefaultHTTPAddress, cfg.HTTP.GetAddress())
				assert.True(t, cfg.Feed.IsHeadless())
				assert.Equal(t, CommandsConfig{
					Subscribe:   DefaultSubscribeCommand,
					Unsubscribe: DefaultUnsubscribeCommand,
				}, cfg.Discord.GetCommands())
			},
		},
		{
			name: "renamed_commands",
			yamlContent: `discord:
  commands:
    subscribe: set_confess_channel
    unsubscribe: remove_confess_channel`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "set_confess_channel", cfg.Discord.GetCommands().Subscribe)
				assert.Equal(t, "remove_confess_channel", cfg.Discord.GetCommands().Unsubscribe)
			},
		},
		{
			name:        "invalid_yaml",
			yamlContent: "feed: [",
			wantErr:     "failed to parse YAML config",
		},
		{
			name: "database_without_section",
			yamlContent: `storage:
  type: database`,
			wantErr: "database configuration is required",
		},
		{
			name: "unknown_storage_type",
			yamlContent: `storage:
  type: mongodb`,
			wantErr: "storage.type must be",
		},
		{
			name: "bad_interval",
			yamlContent: `sync:
  interval: often`,
			wantErr: "sync.interval must be a valid duration",
		},
		{
			name: "negative_interval",
			yamlContent: `sync:
  interval: -5m`,
			wantErr: "sync.interval must be positive",
		},
		{
			name: "discrete_database_fields_missing",
			yamlContent: `database:
  host: localhost`,
			wantErr: "database.port is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, tt.yamlContent)

			cfg, err := LoadConfig(WithConfigPath(path), WithViper(viper.New()))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("discord.token", "from-env")
	v.Set("feed.url", "https://facebook.com/beaverconfessions")
	v.Set("feed.cookiesFile", "/run/cookies.txt")
	v.Set("database.connectionString", "postgres://db/feeds")
	v.Set("database.collections.subscriptions", "subs")

	cfg, err := LoadConfig(WithViper(v))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Discord.Token)
	assert.Equal(t, StorageTypeDatabase, cfg.GetStorageType())
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "postgres://db/feeds", cfg.Database.ConnectionString)
	assert.Equal(t, "subs", cfg.Database.GetCollections().Subscriptions)
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `discord:
  token: from-file
feed:
  url: https://facebook.com/beaverconfessions
  cookiesFile: file-cookies.txt`)

	t.Setenv("FEEDRELAY_DISCORD_TOKEN", "from-env")
	t.Setenv("FACEBOOK_COOKIES_FILE", "legacy-cookies.txt")

	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Discord.Token)
	assert.Equal(t, "legacy-cookies.txt", cfg.Feed.CookiesFile)
}

func TestConfigValidateServe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "complete",
			cfg: Config{
				Discord: DiscordConfig{Token: "t"},
				Feed:    FeedConfig{URL: "https://facebook.com/x", CookiesFile: "c.txt"},
			},
		},
		{
			name:    "everything_missing",
			cfg:     Config{},
			wantErr: []string{"discord.token is required", "feed.url is required", "feed.cookiesFile is required"},
		},
		{
			name: "relative_feed_url",
			cfg: Config{
				Discord: DiscordConfig{Token: "t"},
				Feed:    FeedConfig{URL: "beaverconfessions", CookiesFile: "c.txt"},
			},
			wantErr: []string{"feed.url must be an absolute URL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.ValidateServe()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConfigValidate_Telemetry(t *testing.T) {
	t.Parallel()

	cfg := Config{Telemetry: &telemetry.Config{
		Enabled: true,
		Tracing: &telemetry.TracingConfig{Enabled: true, Sampling: 2},
	}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry")
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	loader := &loaderConfig{}
	assert.Error(t, WithConfigPath("")(loader))
	assert.Error(t, WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml"))(loader))

	path := writeConfig(t, "{}")
	require.NoError(t, WithConfigPath(path)(loader))
	assert.NotEmpty(t, loader.path)
}

func TestDatabaseConfigGetConnectionString(t *testing.T) {
	t.Parallel()

	passwordFile := filepath.Join(t.TempDir(), "password")
	require.NoError(t, os.WriteFile(passwordFile, []byte("p@ss word\n"), 0600))

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "explicit_connection_string",
			cfg:  DatabaseConfig{ConnectionString: "postgres://a@b/c", Host: "ignored"},
			want: "postgres://a@b/c",
		},
		{
			name: "discrete_fields",
			cfg: DatabaseConfig{
				Host: "db", Port: 5432, User: "relay", Name: "feeds", PasswordFile: passwordFile, SSLMode: "disable",
			},
			want: "postgres://relay:p%40ss+word@db:5432/feeds?sslmode=disable",
		},
		{
			name: "default_ssl_mode",
			cfg:  DatabaseConfig{Host: "db", Port: 5432, User: "relay", Name: "feeds", PasswordFile: passwordFile},
			want: "postgres://relay:p%40ss+word@db:5432/feeds?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.cfg.GetConnectionString()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseConfigGetPassword_Missing(t *testing.T) {
	t.Parallel()

	cfg := DatabaseConfig{PasswordFile: filepath.Join(t.TempDir(), "missing")}
	_, err := cfg.GetPassword()
	assert.Error(t, err)
}
