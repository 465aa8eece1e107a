package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

type fileConfig struct {
	DB         string                `toml:"db"`
	TZ         string                `toml:"tz"`
	Output     string                `toml:"output"`
	Fields     string                `toml:"fields"`
	Profile    string                `toml:"profile"`
	Alliance   string                `toml:"alliance"`
	DateKeys   string                `toml:"date_keys"`
	TimeFormat string                `toml:"time_format"`
	CellTitles int                   `toml:"cell_titles"`
	CellChars  int                   `toml:"cell_chars"`
	Profiles   map[string]fileConfig `toml:"profiles"`
}

func resolveGlobalOptions(cmd *cobra.Command, defaults *globalOptions) (*globalOptions, error) {
	resolved := *defaults

	profile := firstNonEmpty(env("ALLYCAL_PROFILE"), defaults.Profile)
	if flagValueChanged(cmd, "profile") {
		profile = defaults.Profile
	}
	if profile == "" {
		profile = "default"
	}
	resolved.Profile = profile

	userPath := defaultUserConfigPath()
	projectPath := ".allycal.toml"
	configPath := firstNonEmpty(env("ALLYCAL_CONFIG"), userPath)
	if flagValueChanged(cmd, "config") {
		configPath = defaults.Config
	}

	if cfg, ok := readConfigFile(userPath); ok {
		applyFileConfig(&resolved, cfg, profile)
	}
	if cfg, ok := readConfigFile(projectPath); ok {
		applyFileConfig(&resolved, cfg, profile)
	}
	if configPath != "" && configPath != userPath && configPath != projectPath {
		if cfg, ok := readConfigFile(configPath); ok {
			applyFileConfig(&resolved, cfg, profile)
		}
	}

	applyEnv(&resolved)
	applyFlags(cmd, &resolved, defaults)

	if resolved.Config == "" {
		resolved.Config = configPath
	}
	if resolved.DB == "" {
		resolved.DB = defaultDBPath()
	}
	return &resolved, nil
}

func applyFileConfig(dst *globalOptions, cfg fileConfig, profile string) {
	if p, ok := cfg.Profiles[profile]; ok {
		cfg = mergeFileConfig(cfg, p)
	}
	if cfg.DB != "" {
		dst.DB = cfg.DB
	}
	if cfg.TZ != "" {
		dst.TZ = cfg.TZ
	}
	if cfg.Fields != "" {
		dst.Fields = cfg.Fields
	}
	if cfg.Alliance != "" {
		dst.Alliance = cfg.Alliance
	}
	if cfg.DateKeys != "" {
		dst.DateKeys = cfg.DateKeys
	}
	if cfg.TimeFormat != "" {
		dst.TimeFormat = cfg.TimeFormat
	}
	if cfg.CellTitles > 0 {
		dst.CellTitles = cfg.CellTitles
	}
	if cfg.CellChars > 0 {
		dst.CellChars = cfg.CellChars
	}
	if cfg.Output != "" {
		switch strings.ToLower(cfg.Output) {
		case "json":
			dst.JSON, dst.JSONL, dst.Plain = true, false, false
		case "jsonl":
			dst.JSON, dst.JSONL, dst.Plain = false, true, false
		case "plain":
			dst.JSON, dst.JSONL, dst.Plain = false, false, true
		}
	}
}

func mergeFileConfig(base, overlay fileConfig) fileConfig {
	if overlay.DB != "" {
		base.DB = overlay.DB
	}
	if overlay.TZ != "" {
		base.TZ = overlay.TZ
	}
	if overlay.Output != "" {
		base.Output = overlay.Output
	}
	if overlay.Fields != "" {
		base.Fields = overlay.Fields
	}
	if overlay.Profile != "" {
		base.Profile = overlay.Profile
	}
	if overlay.Alliance != "" {
		base.Alliance = overlay.Alliance
	}
	if overlay.DateKeys != "" {
		base.DateKeys = overlay.DateKeys
	}
	if overlay.TimeFormat != "" {
		base.TimeFormat = overlay.TimeFormat
	}
	if overlay.CellTitles > 0 {
		base.CellTitles = overlay.CellTitles
	}
	if overlay.CellChars > 0 {
		base.CellChars = overlay.CellChars
	}
	return base
}

func applyEnv(dst *globalOptions) {
	if v := env("ALLYCAL_DB"); v != "" {
		dst.DB = v
	}
	if v := env("ALLYCAL_TIMEZONE"); v != "" {
		dst.TZ = v
	}
	if v := env("ALLYCAL_FIELDS"); v != "" {
		dst.Fields = v
	}
	if v := env("ALLYCAL_ALLIANCE"); v != "" {
		dst.Alliance = v
	}
	if v := env("ALLYCAL_DATE_KEYS"); v != "" {
		dst.DateKeys = v
	}
	if v := env("ALLYCAL_TIME_FORMAT"); v != "" {
		dst.TimeFormat = v
	}
	if v := env("ALLYCAL_OUTPUT"); v != "" {
		switch strings.ToLower(v) {
		case "json":
			dst.JSON, dst.JSONL, dst.Plain = true, false, false
		case "jsonl":
			dst.JSON, dst.JSONL, dst.Plain = false, true, false
		case "plain":
			dst.JSON, dst.JSONL, dst.Plain = false, false, true
		}
	}
	if v := env("ALLYCAL_NO_INPUT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			dst.NoInput = b
		}
	}
}

func applyFlags(cmd *cobra.Command, dst, fromFlags *globalOptions) {
	copyIfChanged(cmd, "json", func() { dst.JSON = fromFlags.JSON })
	copyIfChanged(cmd, "jsonl", func() { dst.JSONL = fromFlags.JSONL })
	copyIfChanged(cmd, "plain", func() { dst.Plain = fromFlags.Plain })
	copyIfChanged(cmd, "fields", func() { dst.Fields = fromFlags.Fields })
	copyIfChanged(cmd, "quiet", func() { dst.Quiet = fromFlags.Quiet })
	copyIfChanged(cmd, "verbose", func() { dst.Verbose = fromFlags.Verbose })
	copyIfChanged(cmd, "no-input", func() { dst.NoInput = fromFlags.NoInput })
	copyIfChanged(cmd, "profile", func() { dst.Profile = fromFlags.Profile })
	copyIfChanged(cmd, "config", func() { dst.Config = fromFlags.Config })
	copyIfChanged(cmd, "db", func() { dst.DB = fromFlags.DB })
	copyIfChanged(cmd, "alliance", func() { dst.Alliance = fromFlags.Alliance })
	copyIfChanged(cmd, "tz", func() { dst.TZ = fromFlags.TZ })
	copyIfChanged(cmd, "date-keys", func() { dst.DateKeys = fromFlags.DateKeys })
	copyIfChanged(cmd, "time-format", func() { dst.TimeFormat = fromFlags.TimeFormat })
	copyIfChanged(cmd, "cell-titles", func() { dst.CellTitles = fromFlags.CellTitles })
	copyIfChanged(cmd, "cell-chars", func() { dst.CellChars = fromFlags.CellChars })
	copyIfChanged(cmd, "schema-version", func() { dst.SchemaVersion = fromFlags.SchemaVersion })

	// If exactly one output mode flag is explicitly set, it overrides env/config output mode.
	modeSet := 0
	if flagValueChanged(cmd, "json") && fromFlags.JSON {
		modeSet++
	}
	if flagValueChanged(cmd, "jsonl") && fromFlags.JSONL {
		modeSet++
	}
	if flagValueChanged(cmd, "plain") && fromFlags.Plain {
		modeSet++
	}
	if modeSet == 1 {
		if flagValueChanged(cmd, "json") && fromFlags.JSON {
			dst.JSON, dst.JSONL, dst.Plain = true, false, false
		}
		if flagValueChanged(cmd, "jsonl") && fromFlags.JSONL {
			dst.JSON, dst.JSONL, dst.Plain = false, true, false
		}
		if flagValueChanged(cmd, "plain") && fromFlags.Plain {
			dst.JSON, dst.JSONL, dst.Plain = false, false, true
		}
	}
}

func copyIfChanged(cmd *cobra.Command, name string, fn func()) {
	if flagValueChanged(cmd, name) {
		fn()
	}
}

func flagValueChanged(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

func readConfigFile(path string) (fileConfig, bool) {
	if strings.TrimSpace(path) == "" {
		return fileConfig{}, false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, false
	}
	var cfg fileConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return fileConfig{}, false
	}
	return cfg, true
}

func defaultUserConfigPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "allycal", "config.toml")
	}
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "allycal", "config.toml")
}

func defaultDBPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "allycal", "allycal.db")
	}
	home := strings.TrimSpace(os.Getenv("HOME"))
	if home == "" {
		return "allycal.db"
	}
	return filepath.Join(home, ".local", "share", "allycal", "allycal.db")
}

func env(k string) string { return strings.TrimSpace(os.Getenv(k)) }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
