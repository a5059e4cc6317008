package config

import (
	"bytes"
	"encoding/json"
	"os"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/klein-window/internal/infra"
	"github.com/fpt/klein-window/internal/repository"
	pkgLogger "github.com/fpt/klein-window/pkg/logger"
	"github.com/fpt/klein-window/pkg/message"
	"github.com/fpt/klein-window/pkg/window"
)

const (
	// DefaultMaxBudget is the trim budget used when none is configured
	DefaultMaxBudget = 8192
	// DefaultCacheSize is the number of per-message counts kept for remote counters
	DefaultCacheSize = window.DefaultCacheSize
)

// Counter backends
const (
	CounterBackendCount     = "count"
	CounterBackendHeuristic = "heuristic"
	CounterBackendTiktoken  = "tiktoken"
	CounterBackendAnthropic = "anthropic"
	CounterBackendGemini    = "gemini"
)

var counterBackends = []string{
	CounterBackendCount,
	CounterBackendHeuristic,
	CounterBackendTiktoken,
	CounterBackendAnthropic,
	CounterBackendGemini,
}

// Settings represents the main application settings
type Settings struct {
	Trim    TrimSettings    `json:"trim" yaml:"trim"`
	Counter CounterSettings `json:"counter" yaml:"counter"`
	Log     LogSettings     `json:"log" yaml:"log"`

	// Repository for persistence (nil for in-memory only)
	settingsRepository repository.SettingsRepository
}

// TrimSettings contains the window selection policy
type TrimSettings struct {
	MaxBudget    int      `json:"max_budget" yaml:"max_budget"`
	Strategy     string   `json:"strategy" yaml:"strategy"`                               // "last" or "first"
	KeepSystem   bool     `json:"keep_system" yaml:"keep_system"`                         // keep a leading system message
	StartOn      []string `json:"start_on,omitempty" yaml:"start_on,omitempty"`           // roles the window may start on
	EndOn        []string `json:"end_on,omitempty" yaml:"end_on,omitempty"`               // roles the window may end on
	AllowPartial bool     `json:"allow_partial,omitempty" yaml:"allow_partial,omitempty"` // split the boundary message by lines
	AllowEmpty   bool     `json:"allow_empty,omitempty" yaml:"allow_empty,omitempty"`     // empty window instead of an error
}

// CounterSettings selects how windows are measured
type CounterSettings struct {
	Backend   string `json:"backend" yaml:"backend"`                           // count, heuristic, tiktoken, anthropic or gemini
	Model     string `json:"model,omitempty" yaml:"model,omitempty"`           // model for tiktoken and remote backends
	Encoding  string `json:"encoding,omitempty" yaml:"encoding,omitempty"`     // tiktoken encoding, overrides model
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`     // remote API endpoint override
	CacheSize int    `json:"cache_size,omitempty" yaml:"cache_size,omitempty"` // per-message cache for remote backends
}

// LogSettings contains logging configuration
type LogSettings struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// NewSettings creates new settings with in-memory repository
func NewSettings() *Settings {
	return NewSettingsWithRepository(infra.NewInMemorySettingsRepository())
}

// NewSettingsWithRepository creates new settings with injected repository
func NewSettingsWithRepository(settingsRepository repository.SettingsRepository) *Settings {
	settings := GetDefaultSettings()
	settings.settingsRepository = settingsRepository
	return settings
}

// NewSettingsWithPath creates new settings with file-based repository
func NewSettingsWithPath(configPath string) *Settings {
	return NewSettingsWithRepository(infra.NewFileSettingsRepository(configPath))
}

// Load loads settings from the repository on top of the defaults
func (s *Settings) Load() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := s.settingsRepository.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}

	if err := decodeSettings(data, s); err != nil {
		return errors.Wrap(err, "failed to parse settings")
	}

	applyDefaults(s)
	return nil
}

// Save saves settings to the repository as YAML
func (s *Settings) Save() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	return s.settingsRepository.Save(data)
}

// LoadSettings loads application settings from a JSON or YAML file.
// With an empty path the usual locations are searched and defaults are
// returned when nothing is found. An explicit path must exist.
func LoadSettings(configPath string) (*Settings, error) {
	settings := NewSettingsWithPath(configPath)

	if configPath == "" {
		foundPath, _ := settings.settingsRepository.FindSettingsFile()
		if foundPath == "" {
			return NewSettings(), nil
		}
	}

	if err := settings.Load(); err != nil {
		return nil, err
	}
	return settings, nil
}

// decodeSettings parses JSON documents with encoding/json and everything else as YAML
func decodeSettings(data []byte, s *Settings) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		return json.Unmarshal(trimmed, s)
	}
	return yaml.Unmarshal(trimmed, s)
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		Trim: TrimSettings{
			MaxBudget:  DefaultMaxBudget,
			Strategy:   string(window.StrategyLast),
			KeepSystem: true,
			StartOn:    []string{message.MessageTypeUser.String()},
		},
		Counter: CounterSettings{
			Backend:   CounterBackendHeuristic,
			CacheSize: DefaultCacheSize,
		},
		Log: LogSettings{
			Level: string(pkgLogger.LogLevelInfo),
		},
	}
}

// applyDefaults fills in missing fields with default values
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.Trim.Strategy == "" {
		settings.Trim.Strategy = defaults.Trim.Strategy
	}
	if settings.Counter.Backend == "" {
		settings.Counter.Backend = defaults.Counter.Backend
	}
	if settings.Counter.CacheSize == 0 {
		settings.Counter.CacheSize = defaults.Counter.CacheSize
	}
	if settings.Log.Level == "" {
		settings.Log.Level = defaults.Log.Level
	}
}

// ValidateSettings validates the settings configuration
func ValidateSettings(settings *Settings) error {
	if settings.Trim.MaxBudget < 0 {
		return errors.Errorf("max_budget must not be negative, got %d", settings.Trim.MaxBudget)
	}
	if _, err := window.ParseStrategy(settings.Trim.Strategy); err != nil {
		return err
	}
	if _, err := parseRoles(settings.Trim.StartOn); err != nil {
		return errors.Wrap(err, "invalid start_on")
	}
	if _, err := parseRoles(settings.Trim.EndOn); err != nil {
		return errors.Wrap(err, "invalid end_on")
	}

	if !slices.Contains(counterBackends, settings.Counter.Backend) {
		return errors.Errorf("unsupported counter backend: %s (must be one of %v)", settings.Counter.Backend, counterBackends)
	}
	if settings.Counter.CacheSize < 0 {
		return errors.Errorf("cache_size must not be negative, got %d", settings.Counter.CacheSize)
	}

	if settings.Counter.Backend == CounterBackendAnthropic && os.Getenv("ANTHROPIC_API_KEY") == "" {
		return errors.New("Anthropic API key is required (set ANTHROPIC_API_KEY environment variable)")
	}
	if settings.Counter.Backend == CounterBackendGemini && os.Getenv("GEMINI_API_KEY") == "" {
		return errors.New("Gemini API key is required (set GEMINI_API_KEY environment variable)")
	}

	switch pkgLogger.LogLevel(settings.Log.Level) {
	case pkgLogger.LogLevelDebug, pkgLogger.LogLevelInfo, pkgLogger.LogLevelWarn, pkgLogger.LogLevelError:
	default:
		return errors.Errorf("unsupported log level: %s", settings.Log.Level)
	}

	return nil
}

// ToWindowOptions builds selector options from the trim policy
func (s *Settings) ToWindowOptions(counter window.Counter) (window.Options, error) {
	strategy, err := window.ParseStrategy(s.Trim.Strategy)
	if err != nil {
		return window.Options{}, err
	}
	startOn, err := parseRoles(s.Trim.StartOn)
	if err != nil {
		return window.Options{}, errors.Wrap(err, "invalid start_on")
	}
	endOn, err := parseRoles(s.Trim.EndOn)
	if err != nil {
		return window.Options{}, errors.Wrap(err, "invalid end_on")
	}

	return window.Options{
		MaxBudget:    s.Trim.MaxBudget,
		Counter:      counter,
		KeepSystem:   s.Trim.KeepSystem,
		StartOn:      startOn,
		EndOn:        endOn,
		Strategy:     strategy,
		AllowPartial: s.Trim.AllowPartial,
		AllowEmpty:   s.Trim.AllowEmpty,
	}, nil
}

// LoggerOptions returns logger options for the log section
func (s *Settings) LoggerOptions() pkgLogger.Options {
	return pkgLogger.Options{
		Level: pkgLogger.LogLevel(s.Log.Level),
		File:  s.Log.File,
	}
}

func parseRoles(roles []string) ([]message.MessageType, error) {
	types := make([]message.MessageType, 0, len(roles))
	for _, r := range roles {
		t, err := message.ParseMessageType(r)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}
