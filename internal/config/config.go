// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jeranaias/edumate/internal/util"
)

// CurrentVersion is written into new config files.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete EduMate configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Responder ResponderConfig `toml:"responder" json:"responder"`
	Pipeline  PipelineConfig  `toml:"pipeline" json:"pipeline"`
	Local     LocalConfig     `toml:"local" json:"local"`
	Locale    LocaleConfig    `toml:"locale" json:"locale"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	Log       LogConfig       `toml:"log" json:"log"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Server    ServerConfig    `toml:"server" json:"server"`
}

// ResponderConfig selects what produces analyses and answers.
type ResponderConfig struct {
	// Kind is "simulated" (canned replies) or "ollama" (local model).
	Kind string `toml:"kind" json:"kind" validate:"oneof=simulated ollama"`

	// Simulated responder latencies.
	AnalyzeDelayMs int `toml:"analyze_delay_ms" json:"analyze_delay_ms" validate:"min=0,max=600000"`
	AnswerDelayMs  int `toml:"answer_delay_ms" json:"answer_delay_ms" validate:"min=0,max=600000"`

	// FailRate makes the simulated responder fail a fraction of requests.
	FailRate float64 `toml:"fail_rate" json:"fail_rate" validate:"min=0,max=1"`
}

// PipelineConfig bounds assistant requests.
type PipelineConfig struct {
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs" validate:"min=1,max=3600"`

	// RatePerMinute caps requests per minute; 0 disables the limit.
	RatePerMinute int `toml:"rate_per_minute" json:"rate_per_minute" validate:"min=0"`
	Burst         int `toml:"burst" json:"burst" validate:"min=0"`
}

// LocalConfig contains the Ollama settings used by the "ollama" responder.
type LocalConfig struct {
	OllamaURL   string `toml:"ollama_url" json:"ollama_url" validate:"required,url"`
	OllamaModel string `toml:"ollama_model" json:"ollama_model" validate:"required"`

	// MaxDocumentChars limits how much document text goes into a prompt.
	MaxDocumentChars int `toml:"max_document_chars" json:"max_document_chars" validate:"min=500"`
}

// LocaleConfig contains language settings.
type LocaleConfig struct {
	// Default is a BCP 47 tag; empty means "match $LANG, else English".
	Default string `toml:"default" json:"default" validate:"omitempty,bcp47_language_tag"`

	// OverrideDir holds <tag>.toml files that replace built-in strings.
	OverrideDir string `toml:"override_dir" json:"override_dir"`

	// Watch reloads OverrideDir when its files change.
	Watch bool `toml:"watch" json:"watch"`

	// Strict turns missing translations into panics.
	Strict bool `toml:"strict" json:"strict"`
}

// StorageConfig selects where the language preference is kept.
type StorageConfig struct {
	Backend string `toml:"backend" json:"backend" validate:"oneof=file sqlite memory"`

	// Path overrides the default file location inside the config directory.
	Path string `toml:"path" json:"path"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Path       string `toml:"path" json:"path"`
	Level      string `toml:"level" json:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" validate:"min=1"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" validate:"min=0"`
	MaxAgeDays int    `toml:"max_age_days" json:"max_age_days" validate:"min=0"`
	Compress   bool   `toml:"compress" json:"compress"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Mode is "auto" (full screen on a terminal, line mode otherwise),
	// "tui" or "line".
	Mode string `toml:"mode" json:"mode" validate:"oneof=auto tui line"`

	// Markdown renders assistant replies as markdown.
	Markdown bool `toml:"markdown" json:"markdown"`

	AltScreen bool `toml:"alt_screen" json:"alt_screen"`

	// ExportDir receives transcript exports; empty means exports/ inside
	// the config directory.
	ExportDir string `toml:"export_dir" json:"export_dir"`
}

// ServerConfig configures the local HTTP API started by "edumate serve".
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr" validate:"required,hostname_port"`

	// Token, when set, is required as a bearer token on every API request.
	// It is never printed by "config show".
	Token string `toml:"token" json:"-"`

	MaxUploadMB   int `toml:"max_upload_mb" json:"max_upload_mb" validate:"min=1,max=512"`
	RatePerMinute int `toml:"rate_per_minute" json:"rate_per_minute" validate:"min=0"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Responder: ResponderConfig{
			Kind:           "simulated",
			AnalyzeDelayMs: 2000,
			AnswerDelayMs:  1500,
		},
		Pipeline: PipelineConfig{
			TimeoutSecs:   60,
			RatePerMinute: 30,
			Burst:         3,
		},
		Local: LocalConfig{
			OllamaURL:        "http://127.0.0.1:11434",
			OllamaModel:      "qwen2.5:7b",
			MaxDocumentChars: 12000,
		},
		Locale: LocaleConfig{
			Watch: true,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		UI: UIConfig{
			Mode:      "auto",
			Markdown:  true,
			AltScreen: true,
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8787",
			MaxUploadMB:   20,
			RatePerMinute: 120,
		},
	}
}

// Timeout returns the request timeout as a duration.
func (p PipelineConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the EduMate directory: $EDUMATE_HOME or ~/.edumate.
func ConfigDir() (string, error) {
	if dir := os.Getenv("EDUMATE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".edumate"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// StoragePath returns the preference store location, resolving an empty
// Storage.Path to a file inside ConfigDir.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" || c.Storage.Backend == "memory" {
		return c.Storage.Path
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	if c.Storage.Backend == "sqlite" {
		return filepath.Join(dir, "edumate.db")
	}
	return filepath.Join(dir, "preferences.json")
}

// LogPath returns the log file location, resolving an empty Log.Path to
// logs/edumate.log inside ConfigDir.
func (c *Config) LogPath() string {
	if c.Log.Path != "" {
		return c.Log.Path
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "logs", "edumate.log")
}

// ExportDir returns where transcripts are saved.
func (c *Config) ExportDir() string {
	if c.UI.ExportDir != "" {
		return c.UI.ExportDir
	}
	dir, err := ConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "exports")
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults. .env files and
// environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	jsonPath, _ := ConfigPathJSON()

	switch {
	case fileExists(tomlPath):
		if err := LoadTOML(cfg, tomlPath); err != nil {
			return nil, fmt.Errorf("failed to load TOML config: %w", err)
		}
	case fileExists(jsonPath):
		if err := LoadJSON(cfg, jsonPath); err != nil {
			return nil, fmt.Errorf("failed to load JSON config: %w", err)
		}
	}

	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file. Files ending in
// .json are read as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	LoadDotEnv()
	cfg.ApplyEnvOverrides()
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads ./.env and <ConfigDir>/.env into the environment.
// Variables that are already set win, and missing files are ignored.
func LoadDotEnv() {
	paths := []string{".env"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if fileExists(p) {
			_ = godotenv.Load(p)
		}
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist) && err == nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with a short header, atomically.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# EduMate configuration file\n")
	b.WriteString("# Environment variables (EDUMATE_*) override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON, atomically.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their config-file names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("toml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks every field against its validate tag. The returned error
// is a ValidateErrors with one entry per failing field.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	errs := make(ValidateErrors, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		errs = append(errs, ValidationError{Field: field, Message: describe(fe)})
	}
	return errs
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("invalid value '%v', must be one of: %s",
			fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("invalid URL '%v'", fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "hostname_port":
		return fmt.Sprintf("'%v' is not a host:port address", fe.Value())
	case "bcp47_language_tag":
		return fmt.Sprintf("'%v' is not a BCP 47 language tag", fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
//   - EDUMATE_RESPONDER: responder.kind
//   - EDUMATE_OLLAMA_URL: local.ollama_url
//   - EDUMATE_MODEL: local.ollama_model
//   - EDUMATE_TIMEOUT: pipeline.timeout_secs
//   - EDUMATE_LANG: locale.default
//   - EDUMATE_LOCALE_DIR: locale.override_dir
//   - EDUMATE_STRICT_I18N: locale.strict
//   - EDUMATE_STORAGE: storage.backend
//   - EDUMATE_LOG_LEVEL: log.level
//   - EDUMATE_LOG_PATH: log.path
//   - EDUMATE_UI: ui.mode
//   - EDUMATE_SERVER_ADDR: server.addr
//   - EDUMATE_SERVER_TOKEN: server.token
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("EDUMATE_RESPONDER"); v != "" {
		c.Responder.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("EDUMATE_OLLAMA_URL"); v != "" {
		c.Local.OllamaURL = v
	}
	if v := os.Getenv("EDUMATE_MODEL"); v != "" {
		c.Local.OllamaModel = v
	}
	if v := os.Getenv("EDUMATE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Pipeline.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("EDUMATE_LANG"); v != "" {
		c.Locale.Default = v
	}
	if v := os.Getenv("EDUMATE_LOCALE_DIR"); v != "" {
		c.Locale.OverrideDir = v
	}
	if v := os.Getenv("EDUMATE_STRICT_I18N"); v != "" {
		c.Locale.Strict = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("EDUMATE_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("EDUMATE_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("EDUMATE_LOG_PATH"); v != "" {
		c.Log.Path = v
	}
	if v := os.Getenv("EDUMATE_UI"); v != "" {
		c.UI.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("EDUMATE_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("EDUMATE_SERVER_TOKEN"); v != "" {
		c.Server.Token = v
	}
}

// =============================================================================
// GET (DOT NOTATION)
// =============================================================================

// Get retrieves a value using its config-file path, e.g. "pipeline.timeout_secs".
func (c *Config) Get(key string) (interface{}, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTOMLName(v, part)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

func fieldByTOMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.SplitN(t.Field(i).Tag.Get("toml"), ",", 2)[0]
		if strings.EqualFold(tag, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// String returns the config as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A load failure falls back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
