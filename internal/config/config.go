// Package config loads spotify-remote settings from a TOML file and the environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// ErrMissingCredentials is returned when the Spotify client id or secret is not set.
var ErrMissingCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET")

// Config is the full application configuration.
type Config struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Server  ServerConfig  `toml:"server"`
	Client  ClientConfig  `toml:"client"`
}

// SpotifyConfig holds the OAuth application credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ServerConfig holds proxy server settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	FrontendURI string `toml:"frontend_uri"`
}

// ClientConfig holds settings for the CLI client.
type ClientConfig struct {
	BackendURL     string   `toml:"backend_url"`
	SessionPath    string   `toml:"session_path"`
	PollInterval   Duration `toml:"poll_interval"`
	SearchDebounce Duration `toml:"search_debounce"`
	SearchTTL      Duration `toml:"search_ttl"`
}

// Duration decodes TOML strings such as "2s" into a time.Duration.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// Addr returns the listen address for the proxy server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Default returns the configuration embedded in config.example.toml.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Load reads the TOML file at path on top of the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func (c *Config) applyEnv() error {
	setFromEnv(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID", "SPOTIFY_ID")
	setFromEnv(&c.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET", "SPOTIFY_SECRET")
	setFromEnv(&c.Spotify.RedirectURI, "REDIRECT_URI")
	setFromEnv(&c.Server.FrontendURI, "FRONTEND_URI")
	setFromEnv(&c.Client.BackendURL, "SPOTIFY_REMOTE_BACKEND")

	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("invalid PORT %q", port)
		}
		c.Server.Port = n
	}
	return nil
}

// ValidateServer checks the settings the proxy server cannot start without.
func (c *Config) ValidateServer() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if c.Spotify.RedirectURI == "" {
		return errors.New("missing redirect URI")
	}
	if c.Server.FrontendURI == "" {
		return errors.New("missing frontend URI")
	}
	return nil
}

// setFromEnv assigns the first non-empty variable among keys to dst.
func setFromEnv(dst *string, keys ...string) {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			*dst = v
			return
		}
	}
}
