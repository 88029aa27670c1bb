// Package config handles the ambient settings of the program.
// Run options come from the argument string instead, see package options.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/qdm12/gosettings"
	"github.com/qdm12/gosettings/reader"
	"github.com/qdm12/gosettings/reader/sources/env"
	"github.com/qdm12/gotree"
	"github.com/qdm12/log"
	"gopkg.in/yaml.v3"

	"github.com/akl7777777/ippure-info/internal/ippure"
)

type Settings struct {
	Endpoint  string `yaml:"endpoint"`
	UserAgent string `yaml:"user_agent"`
	// Argument is the default argument string when none is given
	// on the command line.
	Argument string `yaml:"argument"`
	LogLevel string `yaml:"log_level"`
	Notify   Notify `yaml:"notify"`
	Enrich   Enrich `yaml:"enrich"`
	Server   Server `yaml:"server"`
}

type Notify struct {
	// URLs are shoutrrr service URLs. Notifications are logged when empty.
	URLs []string `yaml:"urls"`
}

type Enrich struct {
	// MMDBPath points to a GeoLite2-ASN database, empty disables enrichment.
	MMDBPath string `yaml:"mmdb_path"`
}

type Server struct {
	ListenAddress string `yaml:"listen_address"`
	// AuthKey is the bearer token for the HTTP host, empty = no auth
	AuthKey string `yaml:"auth_key"`
	// RateLimit is the maximum number of panel requests per minute,
	// 0 disables limiting.
	RateLimit *int `yaml:"rate_limit"`
}

func (s *Settings) SetDefaults() {
	s.Endpoint = gosettings.DefaultComparable(s.Endpoint, ippure.DefaultEndpoint)
	s.UserAgent = gosettings.DefaultComparable(s.UserAgent, ippure.DefaultUserAgent)
	s.LogLevel = gosettings.DefaultComparable(s.LogLevel, "info")
	s.Server.ListenAddress = gosettings.DefaultComparable(s.Server.ListenAddress, ":8080")
	const defaultRateLimit = 40 // the upstream API allows 45 per minute
	s.Server.RateLimit = gosettings.DefaultPointer(s.Server.RateLimit, defaultRateLimit)
}

// OverrideWith overrides fields of s with the non empty fields of other.
func (s *Settings) OverrideWith(other Settings) {
	s.Endpoint = gosettings.OverrideWithComparable(s.Endpoint, other.Endpoint)
	s.UserAgent = gosettings.OverrideWithComparable(s.UserAgent, other.UserAgent)
	s.Argument = gosettings.OverrideWithComparable(s.Argument, other.Argument)
	s.LogLevel = gosettings.OverrideWithComparable(s.LogLevel, other.LogLevel)
	s.Notify.URLs = gosettings.OverrideWithSlice(s.Notify.URLs, other.Notify.URLs)
	s.Enrich.MMDBPath = gosettings.OverrideWithComparable(s.Enrich.MMDBPath, other.Enrich.MMDBPath)
	s.Server.ListenAddress = gosettings.OverrideWithComparable(s.Server.ListenAddress, other.Server.ListenAddress)
	s.Server.AuthKey = gosettings.OverrideWithComparable(s.Server.AuthKey, other.Server.AuthKey)
	s.Server.RateLimit = gosettings.OverrideWithPointer(s.Server.RateLimit, other.Server.RateLimit)
}

var (
	ErrEndpointNotValid    = errors.New("endpoint is not valid")
	ErrLogLevelNotValid    = errors.New("log level is not valid")
	ErrRateLimitNegative   = errors.New("rate limit cannot be negative")
	ErrListenAddressNotSet = errors.New("listen address is not set")
)

func (s Settings) Validate() error {
	u, err := url.Parse(s.Endpoint)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", ErrEndpointNotValid, err)
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		return fmt.Errorf("%w: %s", ErrEndpointNotValid, s.Endpoint)
	}

	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return err
	}

	if s.Server.ListenAddress == "" {
		return fmt.Errorf("%w", ErrListenAddressNotSet)
	}
	if s.Server.RateLimit != nil && *s.Server.RateLimit < 0 {
		return fmt.Errorf("%w: %d", ErrRateLimitNegative, *s.Server.RateLimit)
	}
	return nil
}

// ParseLogLevel maps debug, info, warning and error to a log level.
func ParseLogLevel(s string) (level log.Level, err error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return level, fmt.Errorf("%w: %q", ErrLogLevelNotValid, s)
	}
}

func (s Settings) String() string {
	return s.toLinesNode().String()
}

func (s Settings) toLinesNode() *gotree.Node {
	node := gotree.New("Settings summary:")
	node.Appendf("Endpoint: %s", s.Endpoint)
	node.Appendf("User agent: %s", s.UserAgent)
	if s.Argument != "" {
		node.Appendf("Default argument: %s", s.Argument)
	}
	node.Appendf("Log level: %s", s.LogLevel)

	notifyNode := node.Appendf("Notifications:")
	if len(s.Notify.URLs) == 0 {
		notifyNode.Appendf("Services: none, logged only")
	} else {
		notifyNode.Appendf("Services: %d shoutrrr URL(s)", len(s.Notify.URLs))
	}

	if s.Enrich.MMDBPath == "" {
		node.Appendf("ASN enrichment: disabled")
	} else {
		node.Appendf("ASN enrichment: %s", s.Enrich.MMDBPath)
	}

	serverNode := node.Appendf("HTTP server:")
	serverNode.Appendf("Listen address: %s", s.Server.ListenAddress)
	serverNode.Appendf("Authentication: %s", enabled(s.Server.AuthKey != ""))
	if s.Server.RateLimit != nil {
		serverNode.Appendf("Rate limit: %d/min", *s.Server.RateLimit)
	}
	return node
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// Load reads the YAML file at path if it exists, overrides it with the
// environment, sets defaults and validates the result.
func Load(path string, environ []string) (settings Settings, err error) {
	if path != "" {
		settings, err = readFile(path)
		if err != nil {
			return settings, fmt.Errorf("reading config file: %w", err)
		}
	}

	envSettings, err := readEnv(environ)
	if err != nil {
		return settings, fmt.Errorf("reading environment: %w", err)
	}
	settings.OverrideWith(envSettings)
	settings.SetDefaults()

	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("validating settings: %w", err)
	}
	return settings, nil
}

func readFile(path string) (settings Settings, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("decoding %s: %w", path, err)
	}
	return settings, nil
}

func readEnv(environ []string) (settings Settings, err error) {
	r := reader.New(reader.Settings{
		Sources: []reader.Source{env.New(env.Settings{Environ: environ})},
	})

	caseSensitive := reader.ForceLowercase(false)
	settings.Endpoint = r.String("ENDPOINT", caseSensitive)
	settings.UserAgent = r.String("USER_AGENT", caseSensitive)
	settings.Argument = r.String("ARGUMENT", caseSensitive)
	settings.LogLevel = r.String("LOG_LEVEL")
	settings.Notify.URLs = r.CSV("NOTIFY_URLS", caseSensitive)
	settings.Enrich.MMDBPath = r.String("MMDB_PATH", caseSensitive)
	settings.Server.ListenAddress = r.String("LISTEN_ADDRESS")
	settings.Server.AuthKey = r.String("AUTH_KEY", caseSensitive)
	settings.Server.RateLimit, err = r.IntPtr("RATE_LIMIT")
	if err != nil {
		return settings, err
	}
	return settings, nil
}

// FindFile returns explicitPath if set, otherwise the first existing
// file among ./.ippure.yaml, ~/.config/ippure/config.yaml and
// ~/.ippure.yaml. It returns an empty string if none exists.
func FindFile(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	locations := []string{".ippure.yaml", ".ippure.yml"}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".config", "ippure", "config.yaml"),
			filepath.Join(home, ".config", "ippure", "config.yml"),
			filepath.Join(home, ".ippure.yaml"),
		)
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
