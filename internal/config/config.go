// Package config handles TOML configuration parsing for the bridge. It
// loads configuration from a TOML file, applies environment variable
// overrides (prefixed with INNKEEPER_), validates required fields, and
// provides sane defaults for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level configuration for a bridge instance.
type Config struct {
	Discord       DiscordConfig            `toml:"discord"`
	Wow           WowConfig                `toml:"wow"`
	Guild         map[string]GuildEvent    `toml:"guild"`
	Chat          ChatConfig               `toml:"chat"`
	Filters       FiltersConfig            `toml:"filters"`
	GuildDashboard GuildDashboardConfig    `toml:"guild-dashboard"`
	Quirks        QuirksConfig             `toml:"quirks"`
	Logging       LoggingConfig            `toml:"logging"`
	Health        HealthConfig             `toml:"health"`
}

// HealthConfig configures the liveness HTTP endpoint. Not part of the
// external bridge-feature schema, but still user-tunable like logging.
type HealthConfig struct {
	Listen string `toml:"listen"`
}

// DiscordConfig configures the platform gateway.
type DiscordConfig struct {
	Token                      string   `toml:"token"`
	GuildID                    string   `toml:"guild_id"`
	EnableDotCommands          bool     `toml:"enable_dot_commands"`
	DotCommandsWhitelist       []string `toml:"dot_commands_whitelist"`
	EnableCommandsChannels     []string `toml:"enable_commands_channels"`
	EnableMarkdown             bool     `toml:"enable_markdown"`
	EnableTagFailedNotifications bool   `toml:"enable_tag_failed_notifications"`
}

// WowConfig configures the realm/world connection.
type WowConfig struct {
	Realmlist         string `toml:"realmlist"`
	Realm             string `toml:"realm"`
	Account           string `toml:"account"`
	Password          string `toml:"password"`
	Character         string `toml:"character"`
	EnableServerMOTD  bool   `toml:"enable_server_motd"`
}

// Host returns the realmlist's host part, splitting off ":port" if
// present.
func (w WowConfig) Host() string {
	if idx := strings.LastIndex(w.Realmlist, ":"); idx >= 0 {
		return w.Realmlist[:idx]
	}
	return w.Realmlist
}

// Port returns the realmlist's port, defaulting to 3724.
func (w WowConfig) Port() int {
	if idx := strings.LastIndex(w.Realmlist, ":"); idx >= 0 {
		if p, err := strconv.Atoi(w.Realmlist[idx+1:]); err == nil {
			return p
		}
	}
	return 3724
}

// GuildEvent configures one guild.<event> notification.
type GuildEvent struct {
	Enabled bool   `toml:"enabled"`
	Format  string `toml:"format"`
}

// ChatConfig lists the configured channel mappings.
type ChatConfig struct {
	Channels []ChatChannel `toml:"channels"`
}

// ChatChannel is one chat.channels[i] entry.
type ChatChannel struct {
	Direction string         `toml:"direction"`
	Wow       ChatChannelWow `toml:"wow"`
	Discord   ChatChannelDiscord `toml:"discord"`
}

// ChatChannelWow is the WoW side of a channel mapping.
type ChatChannelWow struct {
	Type    string   `toml:"type"`
	Channel string   `toml:"channel"`
	Format  string   `toml:"format"`
	Filters []string `toml:"filters"`
}

// ChatChannelDiscord is the Discord side of a channel mapping.
type ChatChannelDiscord struct {
	Channel string   `toml:"channel"`
	Format  string   `toml:"format"`
	Filters []string `toml:"filters"`
}

// FiltersConfig is the global filter toggle and pattern list, applied
// in addition to any per-route filters.
type FiltersConfig struct {
	Enabled  bool     `toml:"enabled"`
	Patterns []string `toml:"patterns"`
}

// GuildDashboardConfig configures the optional roster-embed poster.
type GuildDashboardConfig struct {
	Enabled bool   `toml:"enabled"`
	Channel string `toml:"channel"`
}

// QuirksConfig toggles game-behavior quirks unrelated to chat relay.
type QuirksConfig struct {
	Sit bool `toml:"sit"`
}

// LoggingConfig configures the slog handler. Not named in the external
// configuration schema (it's an ambient concern, not a bridge feature),
// but still user-tunable.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// defaults returns a Config with sane default values for all fields.
func defaults() Config {
	return Config{
		Discord: DiscordConfig{
			EnableDotCommands: true,
			EnableMarkdown:    true,
		},
		Wow: WowConfig{
			Realmlist:        "logon.ascension.gg:3724",
			EnableServerMOTD: true,
		},
		Guild: map[string]GuildEvent{},
		Filters: FiltersConfig{
			Enabled: true,
		},
		Quirks: QuirksConfig{
			Sit: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Health: HealthConfig{
			Listen: "0.0.0.0:9884",
		},
	}
}

// Load reads the configuration from the given TOML file path, applies
// defaults for missing values, and then applies environment variable
// overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			deriveDefaults(&cfg)
			if err := validate(&cfg); err != nil {
				return nil, err
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	deriveDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides overrides config fields with environment variables
// when set, using the prefixed names spec'd for this bridge (e.g.
// INNKEEPER_DISCORD_TOKEN) rather than a mechanical section/field walk.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INNKEEPER_DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("INNKEEPER_DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("INNKEEPER_WOW_USERNAME"); v != "" {
		cfg.Wow.Account = v
	}
	if v := os.Getenv("INNKEEPER_WOW_PASSWORD"); v != "" {
		cfg.Wow.Password = v
	}
	if v := os.Getenv("INNKEEPER_WOW_CHARACTER"); v != "" {
		cfg.Wow.Character = v
	}

	host := ""
	port := ""
	if v := os.Getenv("INNKEEPER_REALM_HOST"); v != "" {
		host = v
	}
	if v := os.Getenv("INNKEEPER_REALM_PORT"); v != "" {
		port = v
	}
	if host != "" || port != "" {
		h := cfg.Wow.Host()
		p := strconv.Itoa(cfg.Wow.Port())
		if host != "" {
			h = host
		}
		if port != "" {
			p = port
		}
		cfg.Wow.Realmlist = h + ":" + p
	}
	if v := os.Getenv("INNKEEPER_REALM_NAME"); v != "" {
		cfg.Wow.Realm = v
	}
}

// deriveDefaults fills in config values that can be inferred from other
// settings. Called after env overrides so explicitly set values are
// never overwritten.
func deriveDefaults(cfg *Config) {
	if !strings.Contains(cfg.Wow.Realmlist, ":") {
		cfg.Wow.Realmlist = cfg.Wow.Realmlist + ":3724"
	}
}

var validDirections = map[string]bool{
	"both": true, "": true,
	"wow_to_discord": true, "w2d": true,
	"discord_to_wow": true, "d2w": true,
}

// validate checks that required configuration fields are present and
// valid, matching spec §6's validation rules.
func validate(cfg *Config) error {
	if cfg.Wow.Account == "" {
		return fmt.Errorf("config: wow.account is required")
	}
	if cfg.Wow.Password == "" {
		return fmt.Errorf("config: wow.password is required")
	}
	if cfg.Wow.Character == "" {
		return fmt.Errorf("config: wow.character is required")
	}
	if l := len(cfg.Wow.Character); l < 2 || l > 12 {
		return fmt.Errorf("config: wow.character length must be between 2 and 12 (got %d)", l)
	}
	if cfg.Wow.Realm == "" {
		return fmt.Errorf("config: wow.realm is required")
	}
	if cfg.Wow.Host() == "" {
		return fmt.Errorf("config: wow.realmlist host is required")
	}
	if cfg.Wow.Port() == 0 {
		return fmt.Errorf("config: wow.realmlist port must be nonzero")
	}

	for i, ch := range cfg.Chat.Channels {
		if !validDirections[strings.ToLower(ch.Direction)] {
			return fmt.Errorf("config: chat.channels[%d].direction %q is not a recognized alias", i, ch.Direction)
		}
		for _, p := range ch.Wow.Filters {
			if _, err := regexp2.Compile(p, regexp2.None); err != nil {
				return fmt.Errorf("config: chat.channels[%d].wow.filters pattern %q does not compile: %w", i, p, err)
			}
		}
		for _, p := range ch.Discord.Filters {
			if _, err := regexp2.Compile(p, regexp2.None); err != nil {
				return fmt.Errorf("config: chat.channels[%d].discord.filters pattern %q does not compile: %w", i, p, err)
			}
		}
	}
	for _, p := range cfg.Filters.Patterns {
		if _, err := regexp2.Compile(p, regexp2.None); err != nil {
			return fmt.Errorf("config: filters.patterns pattern %q does not compile: %w", p, err)
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("config: logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level)
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[cfg.Logging.Format] {
		return fmt.Errorf("config: logging.format must be one of: json, text (got %q)", cfg.Logging.Format)
	}

	return nil
}
