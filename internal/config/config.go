package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rebeliceyang/docfilter/internal/debounce"
)

// envFiles are loaded, when present, before environment overrides are read
var envFiles = []string{".env", ".env.local"}

// AppName names the config and data directories
const AppName = "docfilter"

// Config holds all application configuration
type Config struct {
	Editor EditorConfig `mapstructure:"editor"`
	Views  ViewsConfig  `mapstructure:"views"`
	Log    LogConfig    `mapstructure:"log"`
}

type EditorConfig struct {
	TextDebounceMs       int  `mapstructure:"text_debounce_ms"`
	ValueDebounceMs      int  `mapstructure:"value_debounce_ms"`
	DocumentCountSorting bool `mapstructure:"document_count_sorting"`
	CurrentUser          int  `mapstructure:"current_user"`
}

// TextDebounce returns the text input quiescence window
func (e EditorConfig) TextDebounce() time.Duration {
	return time.Duration(e.TextDebounceMs) * time.Millisecond
}

// ValueDebounce returns the atom value quiescence window
func (e EditorConfig) ValueDebounce() time.Duration {
	return time.Duration(e.ValueDebounceMs) * time.Millisecond
}

type ViewsConfig struct {
	// Path of the saved view database; empty means <config dir>/views.db
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Editor: EditorConfig{
			TextDebounceMs:       int(debounce.TextInput / time.Millisecond),
			ValueDebounceMs:      int(debounce.ValueInput / time.Millisecond),
			DocumentCountSorting: true,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("editor.text_debounce_ms", d.Editor.TextDebounceMs)
	v.SetDefault("editor.value_debounce_ms", d.Editor.ValueDebounceMs)
	v.SetDefault("editor.document_count_sorting", d.Editor.DocumentCountSorting)
	v.SetDefault("editor.current_user", d.Editor.CurrentUser)
	v.SetDefault("views.path", d.Views.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
}

// Load loads configuration from the standard locations
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the standard locations
// when path is empty. DOCFILTER_* environment variables override both; they
// may also come from .env files in the working directory or next to path.
func LoadFile(path string) (*Config, error) {
	dirs := []string{"."}
	if path != "" {
		dirs = append(dirs, filepath.Dir(path))
	}
	loadEnvFiles(dirs)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DOCFILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}
		// 2. Current directory
		v.AddConfigPath(".")
		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	// It's okay if no file exists, we have defaults
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env files without overriding variables already set
func loadEnvFiles(dirs []string) {
	for _, dir := range dirs {
		for _, name := range envFiles {
			// Missing files are fine
			_ = godotenv.Load(filepath.Join(dir, name))
		}
	}
}

// Validate rejects values the editor cannot work with
func (c *Config) Validate() error {
	if c.Editor.TextDebounceMs < 0 {
		return fmt.Errorf("editor.text_debounce_ms must not be negative: %d", c.Editor.TextDebounceMs)
	}
	if c.Editor.ValueDebounceMs < 0 {
		return fmt.Errorf("editor.value_debounce_ms must not be negative: %d", c.Editor.ValueDebounceMs)
	}
	return nil
}

// ViewsPath returns the saved view database path
func (c *Config) ViewsPath() (string, error) {
	if c.Views.Path != "" {
		return c.Views.Path, nil
	}
	dir, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "views.db"), nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
