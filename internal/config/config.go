// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// SkipPolicy decides what an up-to-date cell does to the rest of its raid.
type SkipPolicy string

const (
	// SkipContinue skips only the up-to-date difficulty.
	SkipContinue SkipPolicy = "continue"
	// SkipBreakRaid skips the remaining difficulties of the raid as well.
	SkipBreakRaid SkipPolicy = "break_raid"
)

// RunMode selects which characters a run processes.
type RunMode string

const (
	// RunModeAll processes every eligible character.
	RunModeAll RunMode = "all"
	// RunModeSingle processes one character, for manual testing.
	RunModeSingle RunMode = "single"
)

// DefaultExcludedRoles is used when EXCLUDED_ROLES is not set at all.
var DefaultExcludedRoles = []string{"Heal"}

// Error represents a fatal startup configuration problem.
type Error struct {
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %s: %v", e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config is the immutable run configuration. It is built once at startup and
// passed by value into every component.
type Config struct {
	WowauditToken       string `env:"WOWAUDIT_API_TOKEN" validate:"required"`
	WowauditBaseURL     string `env:"WOWAUDIT_BASE_URL" envDefault:"https://wowaudit.com" validate:"required,url"`
	RaidbotsBaseURL     string `env:"RAIDBOTS_BASE_URL" envDefault:"https://www.raidbots.com" validate:"required,url"`
	UserAgent           string `env:"USER_AGENT"`
	ConfigurationName   string `env:"WISHLIST_CONFIGURATION_NAME" envDefault:"Single Target" validate:"required"`
	PollIntervalSeconds int    `env:"POLL_INTERVAL_SECONDS" envDefault:"30" validate:"min=1"`
	UpdateIntervalHours int    `env:"UPDATE_INTERVAL_HOURS" envDefault:"24" validate:"min=1"`
	MaxPollMinutes      int    `env:"MAX_POLL_MINUTES" envDefault:"0" validate:"min=0"`
	BrowserTimeoutSecs  int    `env:"BROWSER_TIMEOUT_SECONDS" envDefault:"120" validate:"min=1"`
	BrowserStepDelaySec int    `env:"BROWSER_STEP_DELAY_SECONDS" envDefault:"3" validate:"min=0"`

	SkipPolicy      SkipPolicy `env:"SKIP_POLICY" envDefault:"continue" validate:"oneof=continue break_raid"`
	ExcludedRoles   []string   `env:"EXCLUDED_ROLES" envSeparator:","`
	RunMode         RunMode    `env:"RUN_MODE" envDefault:"all" validate:"oneof=all single"`
	SingleCharacter string     `env:"SINGLE_CHARACTER"`
	MaxConcurrency  int        `env:"MAX_CONCURRENCY" envDefault:"0" validate:"min=0"`

	DatabaseURL string `env:"DATABASE_URL"`
}

// Load parses configuration from an os.Environ-style slice and validates it.
func Load(environ []string) (Config, error) {
	vars := env.ToMap(environ)

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, &Error{Field: "environment", Message: "failed to parse", Cause: err}
	}

	// An explicitly empty EXCLUDED_ROLES disables the role filter.
	if _, set := vars["EXCLUDED_ROLES"]; !set {
		cfg.ExcludedRoles = append([]string(nil), DefaultExcludedRoles...)
	}
	cfg.ExcludedRoles = trimAll(cfg.ExcludedRoles)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Field() == "WowauditToken" {
				return &Error{Field: "WOWAUDIT_API_TOKEN", Message: "is required but not set"}
			}
			return &Error{Field: fe.Field(), Message: fmt.Sprintf("failed %q check", fe.Tag()), Cause: err}
		}
		return &Error{Field: "config", Message: "invalid", Cause: err}
	}
	return nil
}

// PollInterval is the pause between job status queries.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// MaxAge is the staleness window for uploaded wishlists.
func (c Config) MaxAge() time.Duration {
	return time.Duration(c.UpdateIntervalHours) * time.Hour
}

// MaxPollWait is the per-job polling ceiling. Zero means unbounded.
func (c Config) MaxPollWait() time.Duration {
	return time.Duration(c.MaxPollMinutes) * time.Minute
}

// BrowserTimeout bounds one browser submission.
func (c Config) BrowserTimeout() time.Duration {
	return time.Duration(c.BrowserTimeoutSecs) * time.Second
}

// BrowserStepDelay is the settle time between UI steps.
func (c Config) BrowserStepDelay() time.Duration {
	return time.Duration(c.BrowserStepDelaySec) * time.Second
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LedgerConfig is the subset read by commands that only inspect the run ledger.
// It needs no API token.
type LedgerConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
}

// LoadLedger parses the ledger connection settings. An explicit databaseURL
// wins over the environment.
func LoadLedger(environ []string, databaseURL string) (LedgerConfig, error) {
	var cfg LedgerConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return LedgerConfig{}, &Error{Field: "environment", Message: "failed to parse", Cause: err}
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		return LedgerConfig{}, &Error{Field: "DATABASE_URL", Message: "is required to read the run ledger"}
	}
	return cfg, nil
}
