// Package config provides the server configuration, loaded from a YAML file
// and overridden by FREIGHTER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// HTTPConfig is the HTTP configuration for the server.
type HTTPConfig struct {
	// ListenAddr is the address on which the HTTP server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`

	// TLSKeyPath is the path to the TLS private key.
	TLSKeyPath string `env:"TLS_KEY_PATH" yaml:"tls_key_path"`

	// TLSCertPath is the path to the TLS certificate.
	TLSCertPath string `env:"TLS_CERT_PATH" yaml:"tls_cert_path"`

	// PublicURL is the public URL of the HTTP server. Action hrefs that
	// point back at this server are built from it.
	PublicURL string `env:"PUBLIC_URL" yaml:"public_url"`
}

// StatsConfig is the configuration for the stats server.
type StatsConfig struct {
	// ListenAddr is the address on which the stats server will listen.
	ListenAddr string `env:"LISTEN_ADDR" yaml:"listen_addr"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// AuthConfig is the authentication configuration.
type AuthConfig struct {
	// KeyPath is the path to the Ed25519 key used to sign and verify
	// pre-authorized action tokens.
	KeyPath string `env:"KEY_PATH" yaml:"key_path"`

	// Anon is the permission granted to unauthenticated callers.
	// Valid values are "none", "read", and "write".
	Anon string `env:"ANON" yaml:"anon"`

	// TokenCacheSize bounds the cache of verified token identities.
	TokenCacheSize int `env:"TOKEN_CACHE_SIZE" yaml:"token_cache_size"`
}

// LocalStorageConfig is the configuration for the local storage backend.
type LocalStorageConfig struct {
	// Path is the directory where objects are stored.
	Path string `env:"PATH" yaml:"path"`
}

// S3StorageConfig is the configuration for the S3 storage backend.
type S3StorageConfig struct {
	// Bucket is the bucket objects are stored in.
	Bucket string `env:"BUCKET" yaml:"bucket"`

	// Region is the AWS region of the bucket.
	Region string `env:"REGION" yaml:"region"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `env:"ENDPOINT" yaml:"endpoint"`

	// PathPrefix is prepended to all object keys.
	PathPrefix string `env:"PATH_PREFIX" yaml:"path_prefix"`

	// ForcePathStyle forces path-style bucket addressing.
	ForcePathStyle bool `env:"FORCE_PATH_STYLE" yaml:"force_path_style"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	// Backend is the storage backend to use.
	// Valid values are "local" and "s3".
	Backend string `env:"BACKEND" yaml:"backend"`

	// Local is the local storage configuration.
	Local LocalStorageConfig `envPrefix:"LOCAL_" yaml:"local"`

	// S3 is the S3 storage configuration.
	S3 S3StorageConfig `envPrefix:"S3_" yaml:"s3"`
}

// TransferConfig configures the transfer adapters offered during batch
// negotiation.
type TransferConfig struct {
	// Adapters is the list of enabled transfer modes. The "basic" mode is
	// always enabled as the negotiation fallback.
	Adapters []string `env:"ADAPTERS" envSeparator:"," yaml:"adapters"`

	// MaxPartSize is the multipart chunk size in bytes. Objects at or below
	// this size use a single-shot upload even in multipart mode.
	MaxPartSize int64 `env:"MAX_PART_SIZE" yaml:"max_part_size"`

	// ActionLifetime is the lifetime, in seconds, of issued transfer
	// actions. Multipart uploads can take a while, so this defaults to
	// hours rather than minutes.
	ActionLifetime int64 `env:"ACTION_LIFETIME" yaml:"action_lifetime"`

	// VerifyLifetime is the lifetime, in seconds, of verify actions.
	// Verification happens after all bytes have moved, so it outlives the
	// other actions.
	VerifyLifetime int64 `env:"VERIFY_LIFETIME" yaml:"verify_lifetime"`

	// WantDigest asks clients to attach a digest of each uploaded part.
	// Either the legacy "contentMD5" sentinel or a weighted algorithm list
	// such as "sha-256;q=1.0, md5;q=0.5".
	WantDigest string `env:"WANT_DIGEST" yaml:"want_digest"`
}

// Config is the configuration for Freighter.
type Config struct {
	// Name is the name of the server.
	Name string `env:"NAME" yaml:"name"`

	// HTTP is the configuration for the HTTP server.
	HTTP HTTPConfig `envPrefix:"HTTP_" yaml:"http"`

	// Stats is the configuration for the stats server.
	Stats StatsConfig `envPrefix:"STATS_" yaml:"stats"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// Auth is the authentication configuration.
	Auth AuthConfig `envPrefix:"AUTH_" yaml:"auth"`

	// Storage is the storage backend configuration.
	Storage StorageConfig `envPrefix:"STORAGE_" yaml:"storage"`

	// Transfer is the transfer adapter configuration.
	Transfer TransferConfig `envPrefix:"TRANSFER_" yaml:"transfer"`

	// DataPath is the path to the directory where Freighter stores its data.
	DataPath string `env:"DATA_PATH" yaml:"-"`
}

var (
	// ErrNilConfig is returned when a nil config is passed to a function.
	ErrNilConfig = errors.New("nil config")

	// ErrEmptyKeyPath is returned when the signing key path is empty.
	ErrEmptyKeyPath = errors.New("empty auth key path")
)

// IsDebug returns true if the server is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("FREIGHTER_DEBUG"))
	return debug
}

// IsVerbose returns true if the server is running in verbose mode.
// Verbose mode is only enabled if debug mode is enabled.
func IsVerbose() bool {
	verbose, _ := strconv.ParseBool(os.Getenv("FREIGHTER_VERBOSE"))
	return IsDebug() && verbose
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// parseEnv parses the environment variables as a configuration file.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix: "FREIGHTER_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	return cfg.Validate()
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	return parseEnv(c)
}

// Parse parses the config from the default file path and environment
// variables. This also calls Validate() on the config.
func (c *Config) Parse() error {
	if err := c.ParseFile(); err != nil {
		return err
	}

	return c.ParseEnv()
}

// writeConfig writes the configuration to the given file.
func writeConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(newConfigFile(cfg)), 0o644) // nolint: errcheck, gosec
}

// WriteConfig writes the configuration to the default file.
func (c *Config) WriteConfig() error {
	return writeConfig(c, c.ConfigPath())
}

// DefaultDataPath returns the path to the data directory.
// It uses the FREIGHTER_DATA_PATH environment variable if set, otherwise it
// uses "data".
func DefaultDataPath() string {
	dp := os.Getenv("FREIGHTER_DATA_PATH")
	if dp == "" {
		dp = "data"
	}

	return dp
}

// ConfigPath returns the path to the config file.
func (c *Config) ConfigPath() string { // nolint:revive
	return filepath.Join(c.DataPath, "config.yaml")
}

func exist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	return exist(filepath.Join(c.DataPath, "config.yaml"))
}

// DefaultConfig returns the default Config. All the path values are relative
// to the data directory.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	return &Config{
		Name:     "Freighter",
		DataPath: DefaultDataPath(),
		HTTP: HTTPConfig{
			ListenAddr: ":23232",
			PublicURL:  "http://localhost:23232",
		},
		Stats: StatsConfig{
			ListenAddr: "localhost:23233",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: "2006-01-02 15:04:05",
		},
		Auth: AuthConfig{
			KeyPath:        filepath.Join("auth", "freighter_ed25519"),
			Anon:           "none",
			TokenCacheSize: 1000,
		},
		Storage: StorageConfig{
			Backend: "local",
			Local: LocalStorageConfig{
				Path: "objects",
			},
		},
		Transfer: TransferConfig{
			Adapters:       []string{"basic", "multipart-basic"},
			MaxPartSize:    10240000,  // 10mb
			ActionLifetime: 6 * 3600,  // 6 hours
			VerifyLifetime: 12 * 3600, // 12 hours
		},
	}
}

// Validate validates the configuration and ensures path values are absolute.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}

	if c.Auth.KeyPath == "" {
		return ErrEmptyKeyPath
	}

	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("invalid storage backend %q", c.Storage.Backend)
	}

	switch c.Auth.Anon {
	case "", "none", "read", "write":
	default:
		return fmt.Errorf("invalid anonymous access policy %q", c.Auth.Anon)
	}

	if c.Transfer.MaxPartSize <= 0 {
		return fmt.Errorf("invalid max part size %d", c.Transfer.MaxPartSize)
	}

	if !filepath.IsAbs(c.Auth.KeyPath) {
		c.Auth.KeyPath = filepath.Join(c.DataPath, c.Auth.KeyPath)
	}

	if c.Storage.Backend == "local" && !filepath.IsAbs(c.Storage.Local.Path) {
		c.Storage.Local.Path = filepath.Join(c.DataPath, c.Storage.Local.Path)
	}

	return nil
}
