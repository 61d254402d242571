package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/portalsekolah/spmb/pkg/core/admission"
)

const defaultLockTTL = 2 * time.Minute

// NotificationConfig holds the subject lines and sign-off of result letters
type NotificationConfig struct {
	SchoolName      string `yaml:"schoolName" validate:"required"`
	AcceptedSubject string `yaml:"acceptedSubject" validate:"required"`
	WaitlistSubject string `yaml:"waitlistSubject" validate:"required"`
	RejectedSubject string `yaml:"rejectedSubject" validate:"required"`
	ContactEmail    string `yaml:"contactEmail,omitempty" validate:"omitempty,email"`
}

// Config represents the application configuration
type Config struct {
	// ReferenceDateRule is an RFC 5545 rule whose first occurrence in the first year of the
	// academic year is the age reference date. Defaults to 1 July.
	ReferenceDateRule string `yaml:"referenceDateRule,omitempty"`

	// WaitlistBuffer rejects classified applicants ranked past quota+buffer. 0 keeps everyone waitlisted.
	WaitlistBuffer int `yaml:"waitlistBuffer,omitempty" validate:"min=0"`

	LockTTL time.Duration `yaml:"lockTTL,omitempty" validate:"min=0"`

	RankingSheetID string             `yaml:"rankingSheetID" validate:"required"`
	GmailUserID    string             `yaml:"gmailUserID" validate:"required"`
	GmailSender    string             `yaml:"gmailSender,omitempty"`
	MetricsPushURL string             `yaml:"metricsPushURL,omitempty" validate:"omitempty,url"`
	Notification   NotificationConfig `yaml:"notification"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from spmb_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads and validates the configuration for an environment.
// For example, env="prod" will look for "spmb_config.prod.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configFileName := "spmb_config.yaml"
	if env != "" {
		configFileName = "spmb_config." + env + ".yaml"
	}

	configPath, err := findFile(configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ReferenceDateRule == "" {
		c.ReferenceDateRule = admission.DefaultReferenceDateRule
	}
	if c.LockTTL == 0 {
		c.LockTTL = defaultLockTTL
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.ReferenceDateRule != "" {
		if _, err := rrule.StrToROption(cfg.ReferenceDateRule); err != nil {
			return fmt.Errorf("invalid rrule in referenceDateRule: %w", err)
		}
	}

	return nil
}

// findFile searches for fileName in the current directory and then the home directory
func findFile(fileName string) (string, error) {
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
