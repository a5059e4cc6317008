package infra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// settingsCandidates lists project-local settings files in order of preference
var settingsCandidates = []string{
	filepath.Join(".kwin", "settings.yaml"),
	filepath.Join(".kwin", "settings.yml"),
	filepath.Join(".kwin", "settings.json"),
}

// FileSettingsRepository represents file-persisted settings repository
type FileSettingsRepository struct {
	configPath string // Specific path (empty means search for file)
}

// InMemorySettingsRepository represents in-memory-only settings repository
type InMemorySettingsRepository struct {
	data []byte
}

// NewFileSettingsRepository creates a new file-based settings repository
func NewFileSettingsRepository(configPath string) *FileSettingsRepository {
	return &FileSettingsRepository{
		configPath: configPath,
	}
}

// NewInMemorySettingsRepository creates a new in-memory settings repository
func NewInMemorySettingsRepository() *InMemorySettingsRepository {
	return &InMemorySettingsRepository{}
}

// FileSettingsRepository methods
func (fr *FileSettingsRepository) Load() ([]byte, error) {
	configPath := fr.configPath
	if configPath == "" {
		foundPath, err := fr.FindSettingsFile()
		if err != nil {
			return nil, err
		}
		if foundPath == "" {
			return nil, errors.New("no settings file found")
		}
		configPath = foundPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("settings file does not exist: %s", configPath)
		}
		return nil, errors.Wrap(err, "failed to read settings file")
	}

	return data, nil
}

func (fr *FileSettingsRepository) Save(data []byte) error {
	configPath := fr.configPath
	if configPath == "" {
		foundPath, _ := fr.FindSettingsFile()
		if foundPath != "" {
			configPath = foundPath
		} else {
			configPath = settingsCandidates[0]
		}
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}

	return nil
}

// FindSettingsFile searches .kwin/ in the current directory, then $HOME/.klein/kwin.yaml.
// Returns an empty path when none is found.
func (fr *FileSettingsRepository) FindSettingsFile() (string, error) {
	for _, candidate := range settingsCandidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		homeDirPath := filepath.Join(homeDir, ".klein", "kwin.yaml")
		if _, err := os.Stat(homeDirPath); err == nil {
			return homeDirPath, nil
		}
	}

	return "", nil
}

// InMemorySettingsRepository methods
func (mr *InMemorySettingsRepository) Load() ([]byte, error) {
	if mr.data == nil {
		return nil, errors.New("no data stored in memory repository")
	}
	return mr.data, nil
}

func (mr *InMemorySettingsRepository) Save(data []byte) error {
	mr.data = make([]byte, len(data))
	copy(mr.data, data)
	return nil
}

func (mr *InMemorySettingsRepository) FindSettingsFile() (string, error) {
	return "", nil
}
