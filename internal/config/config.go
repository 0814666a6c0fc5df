package config

import (
	"fmt"
	"os"

	"britlab/timesheet-portal/internal/models"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env string `yaml:"env" env:"APP_ENV" env-default:"development"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
	} `yaml:"log"`

	Server struct {
		Port int `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	} `yaml:"server"`

	Backend struct {
		// ScriptURL is the deployed spreadsheet web-app endpoint. When
		// empty the portal runs in a warning state and all sheet
		// operations become no-ops.
		ScriptURL      string `yaml:"script_url" env:"SCRIPT_URL" env-default:""`
		APIKey         string `yaml:"api_key" env:"SCRIPT_API_KEY" env-default:""`
		Timeout        int    `yaml:"timeout" env:"BACKEND_TIMEOUT" env-default:"10"`
		RetryAttempts  int    `yaml:"retry_attempts" env:"BACKEND_RETRY_ATTEMPTS" env-default:"3"`
		RetryDelayMS   int    `yaml:"retry_delay_ms" env:"BACKEND_RETRY_DELAY_MS" env-default:"800"`
		RefreshDelayMS int    `yaml:"refresh_delay_ms" env:"BACKEND_REFRESH_DELAY_MS" env-default:"2500"`
	} `yaml:"backend"`

	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-default:"timesheet.db"`

	// KeymapPath optionally points at a JSON alternate-key table for the
	// row normalizer, overriding the built-in one.
	KeymapPath string `yaml:"keymap_path" env:"KEYMAP_PATH" env-default:""`

	Roster []models.User `yaml:"roster"`
}

// LoadConfig reads the YAML file at path, falling back to environment
// variables alone when the file does not exist.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if len(cfg.Roster) == 0 {
		cfg.Roster = DefaultRoster()
	}
	return &cfg, nil
}

// DefaultRoster is the fixed set of portal users, used when the config
// file does not declare its own.
func DefaultRoster() []models.User {
	return []models.User{
		{ID: "1", Username: "daiana", Name: "Daiana", Role: models.RoleEmployee},
		{ID: "2", Username: "matilde", Name: "Matilde", Role: models.RoleEmployee},
		{ID: "3", Username: "yadia", Name: "Yadia", Role: models.RoleEmployee},
		{ID: "4", Username: "carla", Name: "Carla", Role: models.RoleEmployee},
		{ID: "5", Username: "paula", Name: "Paula", Role: models.RoleEmployee},
		{ID: "6", Username: "ernestina", Name: "Ernestina", Role: models.RoleEmployee},
		{ID: "admin-1", Username: "miguel", Name: "Miguel", Role: models.RoleAdmin},
	}
}
