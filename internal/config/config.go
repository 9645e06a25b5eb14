package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SMSGatewayConfig configures the outbound SMS gateway. When URL is
// empty the daemon falls back to the console sender, which only logs
// what would have been sent.
type SMSGatewayConfig struct {
	// URL is the gateway endpoint messages are POSTed to.
	URL string `yaml:"url" json:"url"`
	// Token is sent as a bearer token when non-empty.
	Token string `yaml:"token,omitempty" json:"token,omitempty"`
	// TimeoutSeconds bounds a single send so one stuck dispatch cannot
	// starve a reminder batch.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level daemon configuration. User-facing settings
// (templates, reminder window) live in the data store instead, next to
// the contact and meeting collections.
type Config struct {
	// Listen is the HTTP listen address for the status API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone all calendar-day and reminder-window
	// decisions are made in (e.g. "Europe/Warsaw").
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataDir is where the JSON collections are persisted.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// CheckCron is the cron schedule of the automatic reminder check.
	CheckCron string `yaml:"check_cron" json:"check_cron"`

	// SMSGateway configures reminder/invitation delivery.
	SMSGateway SMSGatewayConfig `yaml:"sms_gateway" json:"sms_gateway"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    "127.0.0.1:8080",
		Timezone:  "Europe/Warsaw",
		DataDir:   "/var/lib/agentbook",
		CheckCron: "0 * * * *",
		SMSGateway: SMSGatewayConfig{
			TimeoutSeconds: 15,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Warsaw"
	}
	if c.DataDir == "" {
		c.DataDir = "/var/lib/agentbook"
	}
	if c.CheckCron == "" {
		c.CheckCron = "0 * * * *"
	}
	if c.SMSGateway.TimeoutSeconds <= 0 {
		c.SMSGateway.TimeoutSeconds = 15
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".agentbook-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
