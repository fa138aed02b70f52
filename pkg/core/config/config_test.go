package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "3s", 3 * time.Second, false},
		{"milliseconds", "200ms", 200 * time.Millisecond, false},
		{"complex", "1m30s", 90 * time.Second, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDuration_MarshalText(t *testing.T) {
	d := Duration{800 * time.Millisecond}
	result, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(result) != "800ms" {
		t.Errorf("MarshalText() = %v, want 800ms", string(result))
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.General.DataDir != "." {
		t.Errorf("General.DataDir = %v, want .", cfg.General.DataDir)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("Audio.SampleRate = %v, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Audio.Calibration.Duration != 200*time.Millisecond {
		t.Errorf("Audio.Calibration = %v, want 200ms", cfg.Audio.Calibration.Duration)
	}
	if cfg.Audio.WaitTimeout.Duration != 3*time.Second {
		t.Errorf("Audio.WaitTimeout = %v, want 3s", cfg.Audio.WaitTimeout.Duration)
	}
	if cfg.Audio.PhraseLimit.Duration != 4*time.Second {
		t.Errorf("Audio.PhraseLimit = %v, want 4s", cfg.Audio.PhraseLimit.Duration)
	}
	if cfg.Recognition.Engine != "google" {
		t.Errorf("Recognition.Engine = %v, want google", cfg.Recognition.Engine)
	}
	if cfg.Recognition.Language != "en-US" {
		t.Errorf("Recognition.Language = %v, want en-US", cfg.Recognition.Language)
	}
	if cfg.Storage.FlatPath != "healthcare_data.csv" {
		t.Errorf("Storage.FlatPath = %v, want healthcare_data.csv", cfg.Storage.FlatPath)
	}
	if cfg.Storage.DatabasePath != "healthcare_data.db" {
		t.Errorf("Storage.DatabasePath = %v, want healthcare_data.db", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.Table != "healthcare_records" {
		t.Errorf("Storage.Table = %v, want healthcare_records", cfg.Storage.Table)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/intake.toml")
	if err == nil {
		t.Error("Load() expected error for non-existent file")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "intake.toml")

	configContent := `
[general]
data_dir = "/var/lib/intake"
log_level = "debug"

[audio]
device = "USB Microphone"
wait_timeout = "5s"

[recognition]
engine = "http"

[recognition.http]
base_url = "http://stt.local:8100"
model = "mistralai/Voxtral-Mini-3B-2507"

[storage]
flat_path = "records.csv"
database_path = "/tmp/records.db"
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Audio.Device != "USB Microphone" {
		t.Errorf("Audio.Device = %v, want USB Microphone", cfg.Audio.Device)
	}
	if cfg.Audio.WaitTimeout.Duration != 5*time.Second {
		t.Errorf("Audio.WaitTimeout = %v, want 5s", cfg.Audio.WaitTimeout.Duration)
	}
	if cfg.Recognition.HTTP.BaseURL != "http://stt.local:8100" {
		t.Errorf("Recognition.HTTP.BaseURL = %v", cfg.Recognition.HTTP.BaseURL)
	}

	// Defaults still apply to missing values
	if cfg.Audio.PhraseLimit.Duration != 4*time.Second {
		t.Errorf("Audio.PhraseLimit = %v, want 4s (default)", cfg.Audio.PhraseLimit.Duration)
	}

	if got := cfg.FlatPath(); got != filepath.Join("/var/lib/intake", "records.csv") {
		t.Errorf("FlatPath() = %v", got)
	}
	if got := cfg.DatabasePath(); got != "/tmp/records.db" {
		t.Errorf("DatabasePath() = %v, want /tmp/records.db", got)
	}
}

func TestLoad_InvalidEngine(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "intake.toml")
	if err := os.WriteFile(configPath, []byte("[recognition]\nengine = \"sphinx\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for unknown engine")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad sample rate", func(c *Config) { c.Audio.SampleRate = 44100 }, true},
		{"bad vad mode", func(c *Config) { c.Audio.VADMode = 5 }, true},
		{"empty table", func(c *Config) { c.Storage.Table = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("TEST_SPEECH_KEY", "secret-key-123")
	t.Setenv("TEST_DATA_DIR", "/srv/intake")

	cfg := &Config{
		General: GeneralConfig{DataDir: "$TEST_DATA_DIR"},
		Recognition: RecognitionConfig{
			Google: GoogleConfig{APIKey: "$TEST_SPEECH_KEY"},
		},
	}

	cfg.expandEnvVars()

	if cfg.Recognition.Google.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %v, want secret-key-123", cfg.Recognition.Google.APIKey)
	}
	if cfg.General.DataDir != "/srv/intake" {
		t.Errorf("DataDir = %v, want /srv/intake", cfg.General.DataDir)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	t.Setenv("INTAKE_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	originalWd, _ := os.Getwd()
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Storage.Table != "healthcare_records" {
		t.Errorf("expected defaults, got table %v", cfg.Storage.Table)
	}
}

func TestLoadFromEnv_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.toml")
	if err := os.WriteFile(configPath, []byte("[storage]\ntable = \"intake_rows\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	t.Setenv("INTAKE_CONFIG", configPath)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.Storage.Table != "intake_rows" {
		t.Errorf("Storage.Table = %v, want intake_rows", cfg.Storage.Table)
	}
}
