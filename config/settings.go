package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Discord  DiscordSettings  `json:"discord"`
	Metadata MetadataSettings `json:"metadata"`
	Storage  StorageSettings  `json:"storage"`
	Log      LogConfig        `json:"log"`
}

// ServerSettings configures the ops HTTP API.
type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DiscordSettings struct {
	Token         string `json:"token"`
	CommandPrefix string `json:"commandPrefix"`
}

type MetadataSettings struct {
	TMDBAPIKey string `json:"tmdbApiKey"`
	Language   string `json:"language"`
	// Region selects the country for streaming availability lookups.
	Region string `json:"region"`
}

// StorageSettings defines where persisted list files live.
type StorageSettings struct {
	Directory string `json:"directory"`
}

// LogConfig represents file logging with rotation.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Host: "0.0.0.0", Port: 7788},
		Discord:  DiscordSettings{Token: "", CommandPrefix: "!"},
		Metadata: MetadataSettings{TMDBAPIKey: "", Language: "en-US", Region: "IN"},
		Storage:  StorageSettings{Directory: "cache"},
		Log: LogConfig{
			File:       "cache/logs/cinebot.log",
			MaxSize:    50, // MB per file
			MaxBackups: 3,
			MaxAge:     7, // days
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings from disk or creates defaults if missing. Secrets may
// be supplied through the environment (DISCORD_TOKEN, TMDB_API_KEY) and take
// precedence over the file.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}

	settings := DefaultSettings()
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		if err := m.Save(settings); err != nil {
			return Settings{}, err
		}
	} else {
		f, err := os.Open(m.path)
		if err != nil {
			return Settings{}, err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&settings); err != nil {
			return Settings{}, err
		}
	}

	if token := strings.TrimSpace(os.Getenv("DISCORD_TOKEN")); token != "" {
		settings.Discord.Token = token
	}
	if key := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); key != "" {
		settings.Metadata.TMDBAPIKey = key
	}
	if settings.Discord.CommandPrefix == "" {
		settings.Discord.CommandPrefix = "!"
	}
	if settings.Metadata.Region == "" {
		settings.Metadata.Region = "IN"
	}

	return settings, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
