package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validWowEnv(t *testing.T) {
	t.Helper()
	t.Setenv("INNKEEPER_WOW_USERNAME", "testaccount")
	t.Setenv("INNKEEPER_WOW_PASSWORD", "hunter2")
	t.Setenv("INNKEEPER_WOW_CHARACTER", "Jaina")
	t.Setenv("INNKEEPER_REALM_NAME", "Ascension")
}

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.Wow.Realmlist != "logon.ascension.gg:3724" {
		t.Errorf("default realmlist = %q", cfg.Wow.Realmlist)
	}
	if !cfg.Discord.EnableDotCommands {
		t.Error("default discord.enable_dot_commands should be true")
	}
	if !cfg.Quirks.Sit {
		t.Error("default quirks.sit should be true")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default logging = %+v", cfg.Logging)
	}
}

func TestLoadNoFileUsesDefaultsAndEnv(t *testing.T) {
	validWowEnv(t)

	cfg, err := Load("/nonexistent/innkeeper.toml")
	if err != nil {
		t.Fatalf("Load non-existent file should use defaults, got error: %v", err)
	}
	if cfg.Wow.Account != "testaccount" {
		t.Errorf("account = %q", cfg.Wow.Account)
	}
	if cfg.Wow.Realm != "Ascension" {
		t.Errorf("realm = %q", cfg.Wow.Realm)
	}
}

func TestLoadMissingRequiredFieldFails(t *testing.T) {
	if _, err := Load("/nonexistent/innkeeper.toml"); err == nil {
		t.Fatalf("expected validation error with no account configured")
	}
}

func TestCharacterLengthValidation(t *testing.T) {
	validWowEnv(t)
	t.Setenv("INNKEEPER_WOW_CHARACTER", "X")

	if _, err := Load("/nonexistent/innkeeper.toml"); err == nil {
		t.Fatalf("expected validation error for too-short character name")
	}
}

func TestRealmHostPortOverride(t *testing.T) {
	validWowEnv(t)
	t.Setenv("INNKEEPER_REALM_HOST", "play.example.com")
	t.Setenv("INNKEEPER_REALM_PORT", "8085")

	cfg, err := Load("/nonexistent/innkeeper.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Wow.Realmlist != "play.example.com:8085" {
		t.Fatalf("realmlist = %q", cfg.Wow.Realmlist)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "innkeeper.toml")
	data := []byte(`
[discord]
token = "abc123"
enable_markdown = true

[wow]
realmlist = "logon.example.com:3724"
realm = "Testrealm"
account = "myaccount"
password = "mypassword"
character = "Thrall"

[[chat.channels]]
direction = "both"
wow = { type = "guild" }
discord = { channel = "guild-chat" }
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Discord.Token != "abc123" {
		t.Errorf("token = %q", cfg.Discord.Token)
	}
	if len(cfg.Chat.Channels) != 1 || cfg.Chat.Channels[0].Discord.Channel != "guild-chat" {
		t.Errorf("channels = %+v", cfg.Chat.Channels)
	}
}

func TestValidateRejectsBadFilterPattern(t *testing.T) {
	validWowEnv(t)
	cfg := defaults()
	applyEnvOverrides(&cfg)
	deriveDefaults(&cfg)
	cfg.Filters.Patterns = []string{"(unterminated("}

	if err := validate(&cfg); err == nil {
		t.Fatalf("expected error for invalid filter pattern")
	}
}

func TestValidateAcceptsLookaroundFilterPattern(t *testing.T) {
	validWowEnv(t)
	cfg := defaults()
	applyEnvOverrides(&cfg)
	deriveDefaults(&cfg)
	cfg.Filters.Patterns = []string{`(?<!not )spam`}

	if err := validate(&cfg); err != nil {
		t.Fatalf("expected lookaround pattern to validate: %v", err)
	}
}

func TestValidateRejectsUnknownDirection(t *testing.T) {
	validWowEnv(t)
	cfg := defaults()
	applyEnvOverrides(&cfg)
	deriveDefaults(&cfg)
	cfg.Chat.Channels = []ChatChannel{{Direction: "sideways"}}

	if err := validate(&cfg); err == nil {
		t.Fatalf("expected error for unrecognized direction")
	}
}
