// Package config provides configuration loading and validation for feedrelay.
//
// Configuration comes from an optional YAML file. Secrets and deploy-time
// values can be supplied or overridden through FEEDRELAY_* environment
// variables, so a deployment may run without any file at all.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/feedrelay/internal/telemetry"
	"github.com/stacklok/feedrelay/internal/walker"
)

const (
	// StorageTypeDatabase keeps items, the checkpoint and subscriptions in PostgreSQL.
	StorageTypeDatabase = "database"

	// StorageTypeFile keeps them as files in a local data directory.
	StorageTypeFile = "file"
)

const (
	// EnvPrefix is the prefix for every environment override.
	EnvPrefix = "FEEDRELAY"

	// DefaultSyncInterval is the pause between two sync cycles.
	DefaultSyncInterval = 1200 * time.Second

	// DefaultElementTimeout bounds a single element lookup on the feed.
	DefaultElementTimeout = 10 * time.Second

	// DefaultFeedRootURL is used to make relative permalinks absolute.
	DefaultFeedRootURL = "https://facebook.com/"

	// DefaultDataDir is where file storage lives when no directory is set.
	DefaultDataDir = "./data"

	// DefaultHTTPAddress is the listen address of the health server.
	DefaultHTTPAddress = ":8080"

	// DefaultSubscribeCommand and DefaultUnsubscribeCommand are the slash
	// command names registered with Discord.
	DefaultSubscribeCommand   = "subscribe"
	DefaultUnsubscribeCommand = "unsubscribe"

	defaultMaxAttempts    = 1
	defaultInitialBackoff = 30 * time.Second
	defaultMaxBackoff     = 10 * time.Minute

	defaultItemsCollection         = "posts"
	defaultCheckpointCollection    = "max_post_number"
	defaultSubscriptionsCollection = "channels"
)

// envBindings maps configuration keys to the environment variables that
// override them.
var envBindings = map[string][]string{
	"discord.token":                      {"FEEDRELAY_DISCORD_TOKEN", "DISCORD_TOKEN"},
	"discord.guildID":                    {"FEEDRELAY_DISCORD_GUILD_ID"},
	"feed.url":                           {"FEEDRELAY_FEED_URL"},
	"feed.cookiesFile":                   {"FEEDRELAY_COOKIES_FILE", "FACEBOOK_COOKIES_FILE"},
	"feed.remoteBrowserURL":              {"FEEDRELAY_REMOTE_BROWSER_URL"},
	"storage.type":                       {"FEEDRELAY_STORAGE_TYPE"},
	"storage.dataDir":                    {"FEEDRELAY_DATA_DIR"},
	"database.connectionString":          {"FEEDRELAY_DATABASE_URL", "MONGODB_CONNECTION_STRING"},
	"database.name":                      {"FEEDRELAY_DATABASE_NAME", "MONGODB_DATABASE"},
	"database.collections.items":         {"FEEDRELAY_ITEMS_COLLECTION", "MONGODB_POSTS_COLLECTION"},
	"database.collections.checkpoint":    {"FEEDRELAY_CHECKPOINT_COLLECTION", "MONGODB_MAX_POST_NUMBER_COLLECTION"},
	"database.collections.subscriptions": {"FEEDRELAY_SUBSCRIPTIONS_COLLECTION", "MONGODB_CHANNELS_COLLECTION"},
	"sync.interval":                      {"FEEDRELAY_SYNC_INTERVAL"},
	"http.address":                       {"FEEDRELAY_HTTP_ADDRESS"},
}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
	env  *viper.Viper
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// WithViper reads environment overrides through v instead of a fresh
// instance. Tests use it to inject values without touching the process
// environment.
func WithViper(v *viper.Viper) Option {
	return func(cfg *loaderConfig) error {
		if v == nil {
			return fmt.Errorf("viper instance is required")
		}
		cfg.env = v
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Discord   DiscordConfig     `yaml:"discord"`
	Feed      FeedConfig        `yaml:"feed"`
	Storage   StorageConfig     `yaml:"storage"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Sync      SyncConfig        `yaml:"sync"`
	HTTP      HTTPConfig        `yaml:"http"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// DiscordConfig holds the chat transport settings
type DiscordConfig struct {
	// Token is the bot token. Prefer FEEDRELAY_DISCORD_TOKEN over the file.
	Token string `yaml:"token,omitempty"`

	// GuildID restricts slash command registration to one guild. Commands
	// are registered globally when empty.
	GuildID string `yaml:"guildID,omitempty"`

	// Commands renames the slash commands
	Commands CommandsConfig `yaml:"commands,omitempty"`
}

// CommandsConfig names the subscription slash commands
type CommandsConfig struct {
	Subscribe   string `yaml:"subscribe,omitempty"`
	Unsubscribe string `yaml:"unsubscribe,omitempty"`
}

// FeedConfig describes the feed and how it is browsed
type FeedConfig struct {
	// URL is the feed page every walk starts on
	URL string `yaml:"url"`

	// RootURL makes relative permalinks absolute
	RootURL string `yaml:"rootURL,omitempty"`

	// CookiesFile is a Netscape cookie bundle for an authenticated session
	CookiesFile string `yaml:"cookiesFile"`

	// Selectors override the default feed queries
	Selectors walker.Selectors `yaml:"selectors,omitempty"`

	// ElementTimeout bounds each single element lookup (e.g. "10s")
	ElementTimeout string `yaml:"elementTimeout,omitempty"`

	// Headless runs the browser without a window. Defaults to true.
	Headless *bool `yaml:"headless,omitempty"`

	// BrowserBin is the path of the Chrome binary to launch
	BrowserBin string `yaml:"browserBin,omitempty"`

	// RemoteBrowserURL attaches to a running browser instead of launching one
	RemoteBrowserURL string `yaml:"remoteBrowserURL,omitempty"`
}

// StorageConfig selects the storage backend
type StorageConfig struct {
	// Type is "database" or "file"
	Type string `yaml:"type"`

	// DataDir is the directory used by file storage
	DataDir string `yaml:"dataDir,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// ConnectionString is a full PostgreSQL URL or DSN. When set, the
	// discrete connection fields below are ignored.
	ConnectionString string `yaml:"connectionString,omitempty"`

	// Name overrides the database name of the connection
	Name string `yaml:"name,omitempty"`

	// Host is the database server hostname or IP address
	Host string `yaml:"host,omitempty"`

	// Port is the database server port
	Port int `yaml:"port,omitempty"`

	// User is the database username
	User string `yaml:"user,omitempty"`

	// PasswordFile is the path to a file containing the database password
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// Collections names the tables used for each record kind
	Collections CollectionsConfig `yaml:"collections,omitempty"`
}

// CollectionsConfig names the tables for items, the checkpoint and subscriptions
type CollectionsConfig struct {
	Items         string `yaml:"items,omitempty"`
	Checkpoint    string `yaml:"checkpoint,omitempty"`
	Subscriptions string `yaml:"subscriptions,omitempty"`
}

// SyncConfig defines how often and how persistently the sync cycle runs
type SyncConfig struct {
	// Interval is the pause after a successful cycle (e.g. "20m")
	Interval string `yaml:"interval,omitempty"`

	// MaxAttempts is the number of attempts for one cycle before the
	// service gives up. Only transient failures are retried.
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// InitialBackoff and MaxBackoff bound the wait between attempts
	InitialBackoff string `yaml:"initialBackoff,omitempty"`
	MaxBackoff     string `yaml:"maxBackoff,omitempty"`
}

// HTTPConfig configures the health and status server
type HTTPConfig struct {
	Address string `yaml:"address,omitempty"`
}

// LoadConfig loads configuration from an optional YAML file, applies
// environment overrides and validates the result.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	env := loaderCfg.env
	if env == nil {
		env = viper.New()
	}
	if err := config.applyEnv(env); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyEnv overlays every bound environment variable that is set.
func (c *Config) applyEnv(v *viper.Viper) error {
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	set := func(key string, dst *string) {
		if v.IsSet(key) {
			if s := v.GetString(key); s != "" {
				*dst = s
			}
		}
	}

	set("discord.token", &c.Discord.Token)
	set("discord.guildID", &c.Discord.GuildID)
	set("feed.url", &c.Feed.URL)
	set("feed.cookiesFile", &c.Feed.CookiesFile)
	set("feed.remoteBrowserURL", &c.Feed.RemoteBrowserURL)
	set("storage.type", &c.Storage.Type)
	set("storage.dataDir", &c.Storage.DataDir)
	set("sync.interval", &c.Sync.Interval)
	set("http.address", &c.HTTP.Address)

	dbKeys := []string{
		"database.connectionString", "database.name",
		"database.collections.items", "database.collections.checkpoint", "database.collections.subscriptions",
	}
	for _, key := range dbKeys {
		if v.IsSet(key) && v.GetString(key) != "" && c.Database == nil {
			c.Database = &DatabaseConfig{}
		}
	}
	if c.Database != nil {
		set("database.connectionString", &c.Database.ConnectionString)
		set("database.name", &c.Database.Name)
		set("database.collections.items", &c.Database.Collections.Items)
		set("database.collections.checkpoint", &c.Database.Collections.Checkpoint)
		set("database.collections.subscriptions", &c.Database.Collections.Subscriptions)
	}

	return nil
}

// GetStorageType returns the storage type. A database section without an
// explicit type selects database storage; otherwise file storage is used.
func (c *Config) GetStorageType() string {
	if c.Storage.Type != "" {
		return c.Storage.Type
	}
	if c.Database != nil {
		return StorageTypeDatabase
	}
	return StorageTypeFile
}

// GetCommands returns the slash command names with defaults applied
func (d DiscordConfig) GetCommands() CommandsConfig {
	cmds := d.Commands
	if cmds.Subscribe == "" {
		cmds.Subscribe = DefaultSubscribeCommand
	}
	if cmds.Unsubscribe == "" {
		cmds.Unsubscribe = DefaultUnsubscribeCommand
	}
	return cmds
}

// GetDataDir returns the data directory, using DefaultDataDir if not specified
func (s StorageConfig) GetDataDir() string {
	if s.DataDir == "" {
		return DefaultDataDir
	}
	return s.DataDir
}

// GetRootURL returns the permalink root, using DefaultFeedRootURL if not specified
func (f FeedConfig) GetRootURL() string {
	if f.RootURL == "" {
		return DefaultFeedRootURL
	}
	return f.RootURL
}

// GetElementTimeout returns the element lookup timeout
func (f FeedConfig) GetElementTimeout() time.Duration {
	return parseDurationOr(f.ElementTimeout, DefaultElementTimeout)
}

// IsHeadless reports whether the browser runs without a window
func (f FeedConfig) IsHeadless() bool {
	return f.Headless == nil || *f.Headless
}

// GetInterval returns the pause between cycles
func (s SyncConfig) GetInterval() time.Duration {
	return parseDurationOr(s.Interval, DefaultSyncInterval)
}

// GetMaxAttempts returns the number of attempts per cycle
func (s SyncConfig) GetMaxAttempts() int {
	if s.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return s.MaxAttempts
}

// GetInitialBackoff returns the first wait between attempts
func (s SyncConfig) GetInitialBackoff() time.Duration {
	return parseDurationOr(s.InitialBackoff, defaultInitialBackoff)
}

// GetMaxBackoff returns the longest wait between attempts
func (s SyncConfig) GetMaxBackoff() time.Duration {
	return parseDurationOr(s.MaxBackoff, defaultMaxBackoff)
}

// GetAddress returns the HTTP listen address
func (h HTTPConfig) GetAddress() string {
	if h.Address == "" {
		return DefaultHTTPAddress
	}
	return h.Address
}

// GetCollections returns the table names with defaults applied
func (d *DatabaseConfig) GetCollections() CollectionsConfig {
	cols := CollectionsConfig{}
	if d != nil {
		cols = d.Collections
	}
	if cols.Items == "" {
		cols.Items = defaultItemsCollection
	}
	if cols.Checkpoint == "" {
		cols.Checkpoint = defaultCheckpointCollection
	}
	if cols.Subscriptions == "" {
		cols.Subscriptions = defaultSubscriptionsCollection
	}
	return cols
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from FEEDRELAY_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv("FEEDRELAY_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or FEEDRELAY_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString returns ConnectionString when set, otherwise builds a
// PostgreSQL URL from the discrete fields. The password is URL-escaped.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	if d.ConnectionString != "" {
		return d.ConnectionString, nil
	}

	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Name,
		sslMode,
	)

	return connString, nil
}

// Validate checks everything every command needs. Serve-only requirements
// are checked by ValidateServe.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	switch c.GetStorageType() {
	case StorageTypeDatabase:
		errs = append(errs, c.Database.validate())
	case StorageTypeFile:
	default:
		errs = append(errs, fmt.Errorf("storage.type must be %q or %q, got %q",
			StorageTypeDatabase, StorageTypeFile, c.Storage.Type))
	}

	errs = append(errs,
		validateDuration("feed.elementTimeout", c.Feed.ElementTimeout),
		validateDuration("sync.interval", c.Sync.Interval),
		validateDuration("sync.initialBackoff", c.Sync.InitialBackoff),
		validateDuration("sync.maxBackoff", c.Sync.MaxBackoff),
	)
	if c.Sync.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("sync.maxAttempts must not be negative"))
	}
	if _, err := url.Parse(c.Feed.GetRootURL()); err != nil {
		errs = append(errs, fmt.Errorf("feed.rootURL is invalid: %w", err))
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("telemetry: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ValidateServe checks the settings the long-running service needs on top of
// Validate.
func (c *Config) ValidateServe() error {
	var errs []error
	if c.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("discord.token is required (or set FEEDRELAY_DISCORD_TOKEN)"))
	}
	errs = append(errs, c.ValidateFeed())
	return errors.Join(errs...)
}

// ValidateFeed checks the settings a feed walk needs.
func (c *Config) ValidateFeed() error {
	var errs []error
	if c.Feed.URL == "" {
		errs = append(errs, fmt.Errorf("feed.url is required"))
	} else if u, err := url.Parse(c.Feed.URL); err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("feed.url must be an absolute URL: %s", c.Feed.URL))
	}
	if c.Feed.CookiesFile == "" {
		errs = append(errs, fmt.Errorf("feed.cookiesFile is required (or set FEEDRELAY_COOKIES_FILE)"))
	}
	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	if d == nil {
		return fmt.Errorf("database configuration is required when storage type is database")
	}
	if d.ConnectionString == "" {
		var errs []error
		if d.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required without a connectionString"))
		}
		if d.Port == 0 {
			errs = append(errs, fmt.Errorf("database.port is required without a connectionString"))
		}
		if d.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required without a connectionString"))
		}
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required without a connectionString"))
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
	}
	return validateDuration("database.connMaxLifetime", d.ConnMaxLifetime)
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30s', '20m'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
