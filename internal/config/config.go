package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken  string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath    string `envconfig:"DB_PATH" default:"./data/sleepwell.db"`
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"America/Fortaleza"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"` // json|console
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"` // healthz

	TipsBaseURL string        `envconfig:"TIPS_BASE_URL" default:"http://localhost:3000/"`
	TipsTimeout time.Duration `envconfig:"TIPS_TIMEOUT" default:"10s"`

	TipAt       domain.TargetHour `envconfig:"TIP_AT" default:"22:00:00"`
	TipInterval time.Duration     `envconfig:"TIP_INTERVAL" default:"24h"`

	CycleLength     time.Duration `envconfig:"CYCLE_LENGTH" default:"90m"`
	SuggestionLimit int           `envconfig:"SUGGESTION_LIMIT" default:"4"`

	AlarmRingFor time.Duration `envconfig:"ALARM_RING_FOR" default:"60s"`
	AlarmRepeat  time.Duration `envconfig:"ALARM_REPEAT" default:"20s"`
}

// Load reads environment variables into Config and validates them.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c Config) Validate() error {
	var errs []error
	if c.CycleLength < domain.MinCycleLength || c.CycleLength > domain.MaxCycleLength {
		errs = append(errs, fmt.Errorf("CYCLE_LENGTH must be within %s..%s, got %s",
			domain.MinCycleLength, domain.MaxCycleLength, c.CycleLength))
	}
	if c.SuggestionLimit < 1 || c.SuggestionLimit > domain.MaxSuggestions {
		errs = append(errs, fmt.Errorf("SUGGESTION_LIMIT must be within 1..%d, got %d",
			domain.MaxSuggestions, c.SuggestionLimit))
	}
	if c.TipInterval <= 0 {
		errs = append(errs, fmt.Errorf("TIP_INTERVAL must be positive, got %s", c.TipInterval))
	}
	if !c.TipAt.Valid() {
		errs = append(errs, fmt.Errorf("TIP_AT out of range: %s", c.TipAt))
	}
	if _, err := domain.ValidateTZ(c.DefaultTZ); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TZ: %w", err))
	}
	if c.AlarmRepeat <= 0 || c.AlarmRingFor < 0 {
		errs = append(errs, errors.New("ALARM_REPEAT must be positive and ALARM_RING_FOR non-negative"))
	}
	if c.TipsTimeout <= 0 {
		errs = append(errs, fmt.Errorf("TIPS_TIMEOUT must be positive, got %s", c.TipsTimeout))
	}
	return errors.Join(errs...)
}
