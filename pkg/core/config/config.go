package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General     GeneralConfig     `toml:"general"`
	Audio       AudioConfig       `toml:"audio"`
	Recognition RecognitionConfig `toml:"recognition"`
	Storage     StorageConfig     `toml:"storage"`
	Notify      NotifyConfig      `toml:"notify"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name"`
	DataDir   string `toml:"data_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`
}

// AudioConfig holds microphone capture settings
type AudioConfig struct {
	Device          string   `toml:"device"`
	SampleRate      int      `toml:"sample_rate"`
	FramesPerBuffer int      `toml:"frames_per_buffer"`
	Calibration     Duration `toml:"calibration"`
	WaitTimeout     Duration `toml:"wait_timeout"`
	PhraseLimit     Duration `toml:"phrase_limit"`
	PauseThreshold  Duration `toml:"pause_threshold"`
	EnergyRatio     float64  `toml:"energy_ratio"`
	MinEnergy       float64  `toml:"min_energy"`
	VADDisabled     bool     `toml:"vad_disabled"`
	VADMode         int      `toml:"vad_mode"`
}

// RecognitionConfig holds speech recognition settings
type RecognitionConfig struct {
	Engine   string       `toml:"engine"` // "google" or "http"
	Language string       `toml:"language"`
	Timeout  Duration     `toml:"timeout"`
	Google   GoogleConfig `toml:"google"`
	HTTP     HTTPConfig   `toml:"http"`
}

// GoogleConfig holds Google Cloud Speech credentials
type GoogleConfig struct {
	APIKey          string `toml:"api_key"`
	CredentialsFile string `toml:"credentials_file"`
	Endpoint        string `toml:"endpoint"`
	Model           string `toml:"model"`
}

// HTTPConfig holds settings for an OpenAI-compatible transcription server
type HTTPConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`
}

// StorageConfig holds the locations of both record sinks
type StorageConfig struct {
	FlatPath     string `toml:"flat_path"`
	DatabasePath string `toml:"database_path"`
	Table        string `toml:"table"`
}

// NotifyConfig holds operator notification settings
type NotifyConfig struct {
	Desktop bool `toml:"desktop"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from the INTAKE_CONFIG environment variable.
// Without a config file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("INTAKE_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/intake.toml",
			"./intake.toml",
			filepath.Join(os.Getenv("HOME"), ".config/mdw/intake.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		cfg := Default()
		cfg.expandEnvVars()
		return cfg, nil
	}

	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "Healthcare Form"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "."
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// Audio
	if c.Audio.Device == "" {
		c.Audio.Device = "default"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 480
	}
	if c.Audio.Calibration.Duration == 0 {
		c.Audio.Calibration.Duration = 200 * time.Millisecond
	}
	if c.Audio.WaitTimeout.Duration == 0 {
		c.Audio.WaitTimeout.Duration = 3 * time.Second
	}
	if c.Audio.PhraseLimit.Duration == 0 {
		c.Audio.PhraseLimit.Duration = 4 * time.Second
	}
	if c.Audio.PauseThreshold.Duration == 0 {
		c.Audio.PauseThreshold.Duration = 800 * time.Millisecond
	}
	if c.Audio.EnergyRatio == 0 {
		c.Audio.EnergyRatio = 1.5
	}
	if c.Audio.MinEnergy == 0 {
		c.Audio.MinEnergy = 300
	}
	if c.Audio.VADMode == 0 {
		c.Audio.VADMode = 2
	}

	// Recognition
	if c.Recognition.Engine == "" {
		c.Recognition.Engine = "google"
	}
	if c.Recognition.Language == "" {
		c.Recognition.Language = "en-US"
	}
	if c.Recognition.Timeout.Duration == 0 {
		c.Recognition.Timeout.Duration = 15 * time.Second
	}
	if c.Recognition.Google.Model == "" {
		c.Recognition.Google.Model = "default"
	}
	if c.Recognition.HTTP.BaseURL == "" {
		c.Recognition.HTTP.BaseURL = "http://localhost:8100"
	}
	if c.Recognition.HTTP.Model == "" {
		c.Recognition.HTTP.Model = "whisper-1"
	}

	// Storage
	if c.Storage.FlatPath == "" {
		c.Storage.FlatPath = "healthcare_data.csv"
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "healthcare_data.db"
	}
	if c.Storage.Table == "" {
		c.Storage.Table = "healthcare_records"
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.Recognition.Google.APIKey = os.ExpandEnv(c.Recognition.Google.APIKey)
	c.Recognition.Google.CredentialsFile = os.ExpandEnv(c.Recognition.Google.CredentialsFile)
	c.Recognition.HTTP.APIKey = os.ExpandEnv(c.Recognition.HTTP.APIKey)
	c.Storage.FlatPath = os.ExpandEnv(c.Storage.FlatPath)
	c.Storage.DatabasePath = os.ExpandEnv(c.Storage.DatabasePath)
}

// Validate rejects settings the capture and recognition code cannot honour
func (c *Config) Validate() error {
	switch c.Recognition.Engine {
	case "google", "http":
	default:
		return fmt.Errorf("invalid recognition engine %q (want google or http)", c.Recognition.Engine)
	}
	switch c.Audio.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return fmt.Errorf("invalid sample rate %d, must be one of 8000, 16000, 32000, 48000", c.Audio.SampleRate)
	}
	if c.Audio.VADMode < 0 || c.Audio.VADMode > 3 {
		return fmt.Errorf("vad_mode must be between 0 and 3")
	}
	if c.Storage.Table == "" {
		return fmt.Errorf("storage table name must not be empty")
	}
	return nil
}

// FlatPath returns the CSV file location resolved against the data directory
func (c *Config) FlatPath() string {
	return c.resolve(c.Storage.FlatPath)
}

// DatabasePath returns the SQLite file location resolved against the data directory
func (c *Config) DatabasePath() string {
	return c.resolve(c.Storage.DatabasePath)
}

// LogPath returns the log file location, or "" when logging goes to stderr
func (c *Config) LogPath() string {
	if c.General.LogFile == "" {
		return ""
	}
	return c.resolve(c.General.LogFile)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.General.DataDir, p)
}
