package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/kanboard.db")
	if cfg.Database.Path != "/tmp/kanboard.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if len(cfg.Board.Columns) != 3 || cfg.Board.Columns[0].ID != "todo" {
		t.Fatalf("unexpected default columns %#v", cfg.Board.Columns)
	}
	if cfg.Drag.ActivationDistance != 2 {
		t.Fatalf("unexpected activation distance %d", cfg.Drag.ActivationDistance)
	}
	if !cfg.Watch.Enabled || cfg.Watch.Debounce() != 200*time.Millisecond || cfg.Watch.ForcePoll || cfg.Watch.PollInterval() != 2*time.Second {
		t.Fatalf("unexpected watch defaults %#v", cfg.Watch)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/kanboard.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""), Default("/tmp/kanboard.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Board.Columns) != 3 {
		t.Fatalf("expected default columns, got %#v", cfg.Board.Columns)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[database]
path = "/custom/kanboard.db"

[[board.columns]]
id = "backlog"
title = "Backlog"

[[board.columns]]
id = "ship"
title = "Shipped"
wip_limit = 3

[drag]
activation_distance = 5

[watch]
force_poll = true
poll_interval_ms = 250

[logging]
level = "debug"
`)
	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/kanboard.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if len(cfg.Board.Columns) != 2 || cfg.Board.Columns[1].WIPLimit != 3 {
		t.Fatalf("expected columns replaced, got %#v", cfg.Board.Columns)
	}
	if cfg.Drag.ActivationDistance != 5 {
		t.Fatalf("unexpected activation distance %d", cfg.Drag.ActivationDistance)
	}
	if !cfg.Watch.ForcePoll || cfg.Watch.PollInterval() != 250*time.Millisecond || cfg.Watch.Debounce() != 200*time.Millisecond {
		t.Fatalf("unexpected watch config %#v", cfg.Watch)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level %q", cfg.Logging.Level)
	}
	if !cfg.Board.ShowWIPWarnings {
		t.Fatal("expected untouched defaults to survive")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"duplicated": `
[[board.columns]]
id = "a"
title = "A"
[[board.columns]]
id = "A"
title = "Again"
`,
		"title is required": `
[[board.columns]]
id = "a"
`,
		"activation_distance": `
[drag]
activation_distance = -1
`,
		"watch.poll_interval_ms": `
[watch]
poll_interval_ms = 0
`,
		"logging.level": `
[logging]
level = "loud"
`,
		"serve.mcp_endpoint": `
[serve]
mcp_endpoint = "mcp"
`,
	}
	for want, content := range cases {
		_, err := Load(writeConfig(t, content), Default("/tmp/default.db"))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("Load() error = %v, want containing %q", err, want)
		}
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	if _, err := Load(writeConfig(t, "[board\n"), Default("/tmp/default.db")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
