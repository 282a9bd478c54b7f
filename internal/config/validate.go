package config

import (
	"errors"
	"fmt"
	"strings"
)

var validComponents = map[string]struct{}{
	"glasses":    {},
	"controller": {},
	"battery":    {},
}

var validModes = map[string]struct{}{
	"barcode": {},
	"ocr":     {},
	"hybrid":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRecognizer(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		return errors.New("paths.spool_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) == "" {
		return errors.New("paths.archive_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateRecognizer() error {
	return ensurePositiveMap(map[string]int{
		"recognizer.attempt_timeout": c.Recognizer.AttemptTimeout,
		"recognizer.max_misses":      c.Recognizer.MaxMisses,
		"recognizer.min_length":      c.Recognizer.MinLength,
		"camera.poll_interval":       c.Camera.PollInterval,
	})
}

func (c *Config) validateSession() error {
	if _, ok := validComponents[c.Session.DefaultComponent]; !ok {
		return fmt.Errorf("session.default_component: unknown component %q", c.Session.DefaultComponent)
	}
	if _, ok := validModes[c.Session.DefaultMode]; !ok {
		return fmt.Errorf("session.default_mode: unknown scan mode %q", c.Session.DefaultMode)
	}
	if err := ensurePositiveMap(map[string]int{
		"session.feedback_millis":           c.Session.FeedbackMillis,
		"session.success_cooldown_millis":   c.Session.SuccessCooldown,
		"session.duplicate_cooldown_millis": c.Session.DuplicateCooldown,
		"session.failure_cooldown_millis":   c.Session.FailureCooldown,
	}); err != nil {
		return err
	}
	// Success implies less operator repositioning, so its cooldown may not
	// exceed the duplicate or failure cooldowns.
	if c.Session.DuplicateCooldown < c.Session.SuccessCooldown {
		return errors.New("session.duplicate_cooldown_millis must be >= session.success_cooldown_millis")
	}
	if c.Session.FailureCooldown < c.Session.SuccessCooldown {
		return errors.New("session.failure_cooldown_millis must be >= session.success_cooldown_millis")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be greater than zero", key)
		}
	}
	return nil
}
