// Package config provides configuration loading and validation for releaseboard.
//
// Configuration is assembled in three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. An optional TOML file ([Load])
//  3. Environment variables ([Config.ApplyEnv]); the tracking credentials use
//     the JIRA_* names so existing deployments keep working
//
// The four tracking settings (site, email, token, projects) are required.
// [Config.Validate] reports every missing one at once.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/releaseboard/pkg/errors"
	"github.com/matzehuels/releaseboard/pkg/releases"
)

// Environment variable names.
const (
	EnvSite     = "JIRA_SITE"
	EnvEmail    = "JIRA_EMAIL"
	EnvToken    = "JIRA_TOKEN"
	EnvProjects = "JIRA_PROJECTS"

	EnvCacheURL = "RELEASEBOARD_CACHE_URL"
	EnvAddress  = "RELEASEBOARD_ADDRESS"
)

// Default values.
const (
	DefaultTitle       = "My Active Jira Releases"
	DefaultPageSize    = 100
	DefaultConcurrency = 4
	DefaultTimeout     = 10 * time.Second
	DefaultRetries     = 0
	DefaultAddress     = ":8080"
	DefaultCacheURL    = "memory"
	DefaultDatabase    = "releaseboard"
	DefaultFresh       = 6 * time.Hour
	DefaultStale       = 12 * time.Hour
)

// Duration is a time.Duration that decodes from strings like "10s" or "6h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the complete releaseboard configuration.
type Config struct {
	// Title is used as page title and document heading.
	Title  string       `toml:"title"`
	Jira   JiraConfig   `toml:"jira"`
	Fetch  FetchConfig  `toml:"fetch"`
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
}

// JiraConfig holds the tracking site and credentials.
type JiraConfig struct {
	// Site is the bare hostname, e.g. "example.atlassian.net".
	Site  string `toml:"site"`
	Email string `toml:"email"`
	Token string `toml:"token"`
	// Projects is a comma and/or whitespace separated project key list.
	Projects string `toml:"projects"`
	// PageSize is the maxResults requested per listing page.
	PageSize int `toml:"page_size"`
}

// FetchConfig tunes the upstream fetch stage.
type FetchConfig struct {
	Concurrency int      `toml:"concurrency"`
	Timeout     Duration `toml:"timeout"`
	// Retries is the number of extra attempts for transient upstream
	// failures. The default of zero means a failed page ends that
	// project's listing.
	Retries int `toml:"retries"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string `toml:"address"`
}

// CacheConfig selects and tunes the rendered-response store.
type CacheConfig struct {
	// URL selects the backend: none, memory, file:///dir, redis://..., mongodb://...
	URL string `toml:"url"`
	// Prefix namespaces every key, for stores shared between deployments.
	Prefix string `toml:"prefix"`
	// Database is the Mongo database name.
	Database string   `toml:"database"`
	Fresh    Duration `toml:"fresh"`
	Stale    Duration `toml:"stale"`
}

// Default returns a Config populated with defaults and no credentials.
func Default() *Config {
	return &Config{
		Title: DefaultTitle,
		Jira:  JiraConfig{PageSize: DefaultPageSize},
		Fetch: FetchConfig{
			Concurrency: DefaultConcurrency,
			Timeout:     Duration{DefaultTimeout},
			Retries:     DefaultRetries,
		},
		Server: ServerConfig{Address: DefaultAddress},
		Cache: CacheConfig{
			URL:      DefaultCacheURL,
			Database: DefaultDatabase,
			Fresh:    Duration{DefaultFresh},
			Stale:    Duration{DefaultStale},
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the process environment. Load does not validate; call
// [Config.Validate] before using the tracking settings.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.Normalize()
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from environment variables found by lookup.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set(EnvSite, &c.Jira.Site)
	set(EnvEmail, &c.Jira.Email)
	set(EnvToken, &c.Jira.Token)
	set(EnvProjects, &c.Jira.Projects)
	set(EnvCacheURL, &c.Cache.URL)
	set(EnvAddress, &c.Server.Address)
}

// Normalize fills zero values with defaults and cleans up the site host.
// Call it again after applying command-line overrides.
func (c *Config) Normalize() {
	c.Jira.Site = errors.NormalizeSiteHost(c.Jira.Site)
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Jira.PageSize <= 0 {
		c.Jira.PageSize = DefaultPageSize
	}
	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = DefaultConcurrency
	}
	if c.Fetch.Retries < 0 {
		c.Fetch.Retries = 0
	}
	if c.Fetch.Timeout.Duration <= 0 {
		c.Fetch.Timeout.Duration = DefaultTimeout
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Cache.URL == "" {
		c.Cache.URL = DefaultCacheURL
	}
	if c.Cache.Database == "" {
		c.Cache.Database = DefaultDatabase
	}
	if c.Cache.Fresh.Duration <= 0 {
		c.Cache.Fresh.Duration = DefaultFresh
	}
	if c.Cache.Stale.Duration < 0 {
		c.Cache.Stale.Duration = 0
	}
}

// Validate checks that every required tracking setting is present and that
// the site host is usable. All missing settings are reported together.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Jira.Site) == "" {
		missing = append(missing, EnvSite)
	}
	if strings.TrimSpace(c.Jira.Email) == "" {
		missing = append(missing, EnvEmail)
	}
	if strings.TrimSpace(c.Jira.Token) == "" {
		missing = append(missing, EnvToken)
	}
	if strings.TrimSpace(c.Jira.Projects) == "" {
		missing = append(missing, EnvProjects)
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"missing required settings (%s)", strings.Join(missing, ", "))
	}
	if err := errors.ValidateSiteHost(c.Jira.Site); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid %s", EnvSite)
	}
	return nil
}

// ProjectKeys returns the normalized, de-duplicated project keys.
func (c *Config) ProjectKeys() []releases.ProjectKey {
	return releases.ParseProjectKeys(c.Jira.Projects)
}

// CacheTTL is how long a stored response is kept: fresh plus stale window.
func (c *Config) CacheTTL() time.Duration {
	return c.Cache.Fresh.Duration + c.Cache.Stale.Duration
}

// CacheControl returns the Cache-Control value for computed responses.
func (c *Config) CacheControl() string {
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(c.Cache.Fresh.Seconds()), int(c.Cache.Stale.Seconds()))
}
