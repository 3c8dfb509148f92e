package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Board    BoardConfig    `toml:"board"`
	Drag     DragConfig     `toml:"drag"`
	Watch    WatchConfig    `toml:"watch"`
	Serve    ServeConfig    `toml:"serve"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type BoardConfig struct {
	Columns         []ColumnConfig `toml:"columns"`
	ShowWIPWarnings bool           `toml:"show_wip_warnings"`
	ShowLabels      bool           `toml:"show_labels"`
	ShowDescription bool           `toml:"show_description"`
}

type ColumnConfig struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	WIPLimit int    `toml:"wip_limit"`
}

// DragConfig tunes the pointer sensor. ActivationDistance is measured in
// terminal cells; a press that moves less than this and is released counts as
// a click.
type DragConfig struct {
	ActivationDistance int `toml:"activation_distance"`
}

// WatchConfig controls the database watcher. ForcePoll skips fsnotify, which
// some network and container filesystems never signal.
type WatchConfig struct {
	Enabled        bool `toml:"enabled"`
	DebounceMS     int  `toml:"debounce_ms"`
	ForcePoll      bool `toml:"force_poll"`
	PollIntervalMS int  `toml:"poll_interval_ms"`
}

type ServeConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func defaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{ID: "todo", Title: "To Do"},
		{ID: "progress", Title: "In Progress"},
		{ID: "done", Title: "Done"},
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Board: BoardConfig{
			Columns:         defaultColumns(),
			ShowWIPWarnings: true,
			ShowLabels:      true,
			ShowDescription: false,
		},
		Drag: DragConfig{
			ActivationDistance: 2,
		},
		Watch: WatchConfig{
			Enabled:        true,
			DebounceMS:     200,
			PollIntervalMS: 2000,
		},
		Serve: ServeConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".kanboard/log",
			},
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// A columns table in the file replaces the default set rather than
	// merging into it index by index.
	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if len(cfg.Board.Columns) == 0 {
		cfg.Board.Columns = defaults.Board.Columns
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if len(c.Board.Columns) == 0 {
		return errors.New("board.columns must include at least one column")
	}
	seen := map[string]struct{}{}
	for idx, col := range c.Board.Columns {
		id := strings.TrimSpace(strings.ToLower(col.ID))
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if strings.TrimSpace(col.Title) == "" {
			return fmt.Errorf("board.columns[%d].title is required", idx)
		}
		if col.WIPLimit < 0 {
			return fmt.Errorf("board.columns[%d].wip_limit must be >= 0", idx)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s", idx, id)
		}
		seen[id] = struct{}{}
	}

	if c.Drag.ActivationDistance < 0 {
		return fmt.Errorf("drag.activation_distance must be >= 0, got %d", c.Drag.ActivationDistance)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.PollIntervalMS <= 0 {
		return fmt.Errorf("watch.poll_interval_ms must be > 0, got %d", c.Watch.PollIntervalMS)
	}
	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	for name, endpoint := range map[string]string{
		"serve.api_endpoint": c.Serve.APIEndpoint,
		"serve.mcp_endpoint": c.Serve.MCPEndpoint,
	} {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("%s must start with '/': %q", name, endpoint)
		}
	}
	return nil
}

// Debounce returns the watcher debounce window.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// PollInterval returns the fallback polling period.
func (c WatchConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
