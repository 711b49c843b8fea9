// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Gustavo-Feijo/league-crawler/internal/regions"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Riot    RiotConfig          `mapstructure:"riot"`
	DB      DBConfig            `mapstructure:"db"`
	Crawler CrawlerConfig       `mapstructure:"crawler"`
	Server  ServerConfig        `mapstructure:"server"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Regions map[string][]string `mapstructure:"regions"`
}

// RiotConfig governs access to the Riot API.
type RiotConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
	MaxRetries        int     `mapstructure:"max_retries"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// CrawlerConfig governs sweep cadence and backlog limits.
type CrawlerConfig struct {
	LadderIdleMinutes     int `mapstructure:"ladder_idle_minutes"`
	BootstrapPollSeconds  int `mapstructure:"bootstrap_poll_seconds"`
	MatchPageCap          int `mapstructure:"match_page_cap"`
	RestartBackoffSeconds int `mapstructure:"restart_backoff_seconds"`
}

// ServerConfig controls the operational HTTP endpoint.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEAGUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Regions) == 0 {
		cfg.Regions = defaultRegions()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	// Empty defaults keep env-only values visible to Unmarshal.
	v.SetDefault("riot.api_key", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("riot.timeout_seconds", 15)
	v.SetDefault("riot.requests_per_second", 15)
	v.SetDefault("riot.burst", 1)
	v.SetDefault("riot.max_retries", 2)
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("crawler.ladder_idle_minutes", 30)
	v.SetDefault("crawler.bootstrap_poll_seconds", 15)
	v.SetDefault("crawler.match_page_cap", 10)
	v.SetDefault("crawler.restart_backoff_seconds", 60)
	v.SetDefault("logging.development", true)
}

func defaultRegions() map[string][]string {
	out := make(map[string][]string)
	for main, subs := range regions.Default() {
		out[string(main)] = regions.Strings(subs)
	}
	return out
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Riot.APIKey == "" {
		return fmt.Errorf("riot.api_key is required")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Riot.TimeoutSeconds <= 0 {
		return fmt.Errorf("riot.timeout_seconds must be > 0")
	}
	if c.Riot.MaxRetries < 0 {
		return fmt.Errorf("riot.max_retries must be >= 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.LadderIdleMinutes <= 0 {
		return fmt.Errorf("crawler.ladder_idle_minutes must be > 0")
	}
	if c.Crawler.BootstrapPollSeconds <= 0 {
		return fmt.Errorf("crawler.bootstrap_poll_seconds must be > 0")
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("regions must not be empty")
	}
	for main, subs := range c.Regions {
		if len(subs) == 0 {
			return fmt.Errorf("region %q has no sub-regions", main)
		}
	}
	return nil
}

// Topology converts the flat region map into typed routing values.
func (c Config) Topology() regions.Topology {
	topo := make(regions.Topology, len(c.Regions))
	for main, subs := range c.Regions {
		typed := make([]regions.SubRegion, len(subs))
		for i, s := range subs {
			typed[i] = regions.SubRegion(s)
		}
		topo[regions.MainRegion(main)] = typed
	}
	return topo
}

// LadderIdle returns the pause between full ladder sweeps.
func (c Config) LadderIdle() time.Duration {
	return time.Duration(c.Crawler.LadderIdleMinutes) * time.Minute
}

// BootstrapPoll returns the store-poll fallback interval used while a main
// region waits for its first player.
func (c Config) BootstrapPoll() time.Duration {
	return time.Duration(c.Crawler.BootstrapPollSeconds) * time.Second
}

// RestartBackoff returns the pause applied before re-running a failed sweep.
func (c Config) RestartBackoff() time.Duration {
	return time.Duration(c.Crawler.RestartBackoffSeconds) * time.Second
}

// RiotTimeout returns the per-request HTTP timeout.
func (c Config) RiotTimeout() time.Duration {
	return time.Duration(c.Riot.TimeoutSeconds) * time.Second
}
