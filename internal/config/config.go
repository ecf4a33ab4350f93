// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Config holds every setting a pipeline run needs. All fields are optional
// in the file; missing values use defaults, environment variables, or CLI
// flags.
type Config struct {
	// Services
	GeminiAPIKey       string `json:"gemini_api_key,omitempty"`                          // Summarization service key
	GeminiModel        string `json:"gemini_model,omitempty"`                            // Override summarization model
	CloudConvertAPIKey string `json:"cloudconvert_api_key,omitempty"`                    // Presence selects the remote conversion strategy
	SofficeBinary      string `json:"soffice_binary,omitempty"`                          // Local converter executable (default soffice)
	QRServiceURL       string `json:"qr_service_url,omitempty" validate:"omitempty,url"` // Code rendering service endpoint
	LocalQR            bool   `json:"local_qr,omitempty"`                                // Render code images in-process

	// Email
	Email EmailConfig `json:"email,omitempty"`

	// Behavior
	OutputDir   string `json:"output_dir,omitempty"`   // Where run artifacts are written
	DatabaseURL string `json:"database_url,omitempty"` // Optional PostgreSQL URL for run history
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed run information
}

// EmailConfig holds the notifier settings.
type EmailConfig struct {
	Sender   string `json:"sender,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty"`
	SMTPHost string `json:"smtp_server,omitempty"`
	SMTPPort int    `json:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
}

// DefaultOutputDir is used when no output directory is configured.
const DefaultOutputDir = "output"

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv fills empty secret fields from the environment, so keys never
// have to live in the config file.
func (c *Config) ApplyEnv() {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.CloudConvertAPIKey == "" {
		c.CloudConvertAPIKey = os.Getenv("CLOUDCONVERT_API_KEY")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("SMTP_PASSWORD")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// ApplyDefaults fills unset fields that have defaults.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
}

// Validate checks that the configuration has usable values. The Gemini key
// is the only hard requirement: every run summarizes.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: 'gemini_api_key' is required (or set GEMINI_API_KEY)")
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	return nil
}
