package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alnah/go-readmeview/internal/fileutil"
	"github.com/alnah/go-readmeview/internal/logutil"
	"github.com/alnah/go-readmeview/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
	ErrEnvFile         = errors.New("failed to read env file")
)

// Field length limits.
const (
	MaxTitleLength     = 200
	MaxURLLength       = 2048
	MaxPathLength      = 4096
	MaxCandidates      = 32
	MaxStyleLength     = 50
	MaxAddrLength      = 255
	MaxDurationLength  = 20
	MaxFileNameLength  = 255
	MaxPaperNameLength = 10
)

// Themes accepted by page.theme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "READMEVIEW_"

// AppDirName is the directory searched under the user config dir.
const AppDirName = "readmeview"

// Config holds all configuration for rendering, serving and exporting.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Page   PageConfig   `yaml:"page"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Export ExportConfig `yaml:"export"`
}

// SourceConfig defines where the document is looked for.
type SourceConfig struct {
	Root            string   `yaml:"root"`            // Local directory (exclusive with baseURL)
	BaseURL         string   `yaml:"baseURL"`         // Remote site the candidates resolve against
	Candidates      []string `yaml:"candidates"`      // Empty = built-in README candidates
	FallbackFile    string   `yaml:"fallbackFile"`    // Appended to pagePath after all candidates fail
	DisableFallback bool     `yaml:"disableFallback"` // Skip the extra attempt
	PagePath        string   `yaml:"pagePath"`        // Path of the hosting page
	Timeout         string   `yaml:"timeout"`         // Per-pass limit, e.g. "15s"
}

// PageConfig defines the host page.
type PageConfig struct {
	Title          string `yaml:"title"`
	Theme          string `yaml:"theme"`          // "dark" or "light"
	HighlightStyle string `yaml:"highlightStyle"` // chroma style; empty = theme default
	TocTitle       string `yaml:"tocTitle"`
	Host           string `yaml:"host"`      // Links to other hosts open in a new tab
	AssetsDir      string `yaml:"assetsDir"` // Overrides styles/ and templates/; empty = built-in
}

// ServerConfig defines the HTTP host.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	ReadTimeout string `yaml:"readTimeout"`
}

// LogConfig defines logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ExportConfig defines PDF export.
type ExportConfig struct {
	Timeout   string  `yaml:"timeout"`
	Paper     string  `yaml:"paper"` // letter, a4, legal
	Landscape bool    `yaml:"landscape"`
	Margin    float64 `yaml:"margin"` // inches
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			FallbackFile: "README.md",
			PagePath:     "/",
			Timeout:      "15s",
		},
		Page: PageConfig{
			Title:    "README",
			Theme:    ThemeDark,
			TocTitle: "Contents",
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8080",
			ReadTimeout: "10s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: logutil.FormatText,
		},
		Export: ExportConfig{
			Timeout: "30s",
			Paper:   "letter",
			Margin:  0.5,
		},
	}
}

// Validate checks lengths, enums and durations.
// Called automatically by LoadConfig.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"source.root", c.Source.Root, MaxPathLength},
		{"source.baseURL", c.Source.BaseURL, MaxURLLength},
		{"source.fallbackFile", c.Source.FallbackFile, MaxFileNameLength},
		{"source.pagePath", c.Source.PagePath, MaxURLLength},
		{"source.timeout", c.Source.Timeout, MaxDurationLength},
		{"page.title", c.Page.Title, MaxTitleLength},
		{"page.tocTitle", c.Page.TocTitle, MaxTitleLength},
		{"page.highlightStyle", c.Page.HighlightStyle, MaxStyleLength},
		{"page.host", c.Page.Host, MaxURLLength},
		{"page.assetsDir", c.Page.AssetsDir, MaxPathLength},
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"server.readTimeout", c.Server.ReadTimeout, MaxDurationLength},
		{"export.timeout", c.Export.Timeout, MaxDurationLength},
		{"export.paper", c.Export.Paper, MaxPaperNameLength},
	}
	for _, check := range checks {
		if err := validateFieldLength(check.field, check.value, check.max); err != nil {
			return err
		}
	}

	if len(c.Source.Candidates) > MaxCandidates {
		return fmt.Errorf("%w: source.candidates (%d entries, max %d)", ErrFieldTooLong, len(c.Source.Candidates), MaxCandidates)
	}
	for i, candidate := range c.Source.Candidates {
		if err := validateFieldLength(fmt.Sprintf("source.candidates[%d]", i), candidate, MaxURLLength); err != nil {
			return err
		}
		if strings.TrimSpace(candidate) == "" {
			return fmt.Errorf("%w: source.candidates[%d] is empty", ErrInvalidValue, i)
		}
	}

	if c.Source.Root != "" && c.Source.BaseURL != "" {
		return fmt.Errorf("%w: source.root and source.baseURL are mutually exclusive", ErrInvalidValue)
	}
	if c.Source.BaseURL != "" {
		if u, err := url.Parse(c.Source.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%w: source.baseURL must be an http or https URL, got %q", ErrInvalidValue, c.Source.BaseURL)
		}
	}
	if strings.ContainsAny(c.Source.FallbackFile, "\x00") {
		return fmt.Errorf("%w: source.fallbackFile contains a null byte", ErrInvalidValue)
	}

	switch strings.ToLower(c.Page.Theme) {
	case "", ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("%w: page.theme %q (must be dark or light)", ErrInvalidValue, c.Page.Theme)
	}

	if _, err := logutil.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidValue, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logutil.FormatText, logutil.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q (must be text or json)", ErrInvalidValue, c.Log.Format)
	}

	for field, value := range map[string]string{
		"source.timeout":     c.Source.Timeout,
		"server.readTimeout": c.Server.ReadTimeout,
		"export.timeout":     c.Export.Timeout,
	} {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
	}

	switch strings.ToLower(c.Export.Paper) {
	case "", "letter", "a4", "legal":
	default:
		return fmt.Errorf("%w: export.paper %q (must be letter, a4, or legal)", ErrInvalidValue, c.Export.Paper)
	}
	if c.Export.Margin < 0 || c.Export.Margin > 3 {
		return fmt.Errorf("%w: export.margin must be between 0 and 3 inches, got %v", ErrInvalidValue, c.Export.Margin)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// parseDuration parses a duration, treating empty as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// SourceTimeout returns source.timeout; zero means no limit.
func (c *Config) SourceTimeout() time.Duration {
	d, _ := parseDuration(c.Source.Timeout)
	return d
}

// ReadTimeout returns server.readTimeout.
func (c *Config) ReadTimeout() time.Duration {
	d, _ := parseDuration(c.Server.ReadTimeout)
	return d
}

// ExportTimeout returns export.timeout.
func (c *Config) ExportTimeout() time.Duration {
	d, _ := parseDuration(c.Export.Timeout)
	return d
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched as name.yaml and name.yml in the current
// directory, then in the user config directory under readmeview/.
// Fields absent from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := yamlutil.ReadStrict(f, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists where a config name is looked for, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, AppDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing path from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// DefaultEnvFile is read by ApplyEnv when it exists and no file is named.
const DefaultEnvFile = ".env"

// ApplyEnv overrides cfg with READMEVIEW_* variables. Values come from the
// process environment first, then from envFiles (or ./.env when none are
// given). Missing default env files are ignored; a named file that cannot
// be read is an error. The process environment itself is never modified.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[EnvPrefix+key]
		return v, ok && v != ""
	}

	for key, dst := range map[string]*string{
		"ROOT":            &cfg.Source.Root,
		"BASE_URL":        &cfg.Source.BaseURL,
		"FALLBACK_FILE":   &cfg.Source.FallbackFile,
		"PAGE_PATH":       &cfg.Source.PagePath,
		"TIMEOUT":         &cfg.Source.Timeout,
		"TITLE":           &cfg.Page.Title,
		"THEME":           &cfg.Page.Theme,
		"HIGHLIGHT_STYLE": &cfg.Page.HighlightStyle,
		"TOC_TITLE":       &cfg.Page.TocTitle,
		"PAGE_HOST":       &cfg.Page.Host,
		"ASSETS_DIR":      &cfg.Page.AssetsDir,
		"ADDR":            &cfg.Server.Addr,
		"READ_TIMEOUT":    &cfg.Server.ReadTimeout,
		"LOG_LEVEL":       &cfg.Log.Level,
		"LOG_FORMAT":      &cfg.Log.Format,
		"EXPORT_TIMEOUT":  &cfg.Export.Timeout,
		"EXPORT_PAPER":    &cfg.Export.Paper,
	} {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	if v, ok := lookup("CANDIDATES"); ok {
		cfg.Source.Candidates = splitList(v)
	}

	return cfg.Validate()
}

// readEnvFiles merges the named env files, later files winning.
func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) == 0 {
		if !fileutil.FileExists(DefaultEnvFile) {
			return map[string]string{}, nil
		}
		files = []string{DefaultEnvFile}
	}
	values, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnvFile, err)
	}
	return values, nil
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
