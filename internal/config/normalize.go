package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecognizer()
	c.normalizeCamera()
	c.normalizeSession()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SCANBAY_SPOOL_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SpoolDir = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.SpoolDir, err = expandPath(c.Paths.SpoolDir); err != nil {
		return fmt.Errorf("paths.spool_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeRecognizer() {
	c.Recognizer.ZbarBinary = strings.TrimSpace(c.Recognizer.ZbarBinary)
	if c.Recognizer.ZbarBinary == "" {
		c.Recognizer.ZbarBinary = defaultZbarBinary
	}
	c.Recognizer.TesseractBinary = strings.TrimSpace(c.Recognizer.TesseractBinary)
	if c.Recognizer.TesseractBinary == "" {
		c.Recognizer.TesseractBinary = defaultTesseractBinary
	}
	if c.Recognizer.AttemptTimeout <= 0 {
		c.Recognizer.AttemptTimeout = defaultAttemptTimeout
	}
	if c.Recognizer.MaxMisses <= 0 {
		c.Recognizer.MaxMisses = defaultMaxMisses
	}
	if c.Recognizer.MinLength <= 0 {
		c.Recognizer.MinLength = defaultMinLength
	}
}

func (c *Config) normalizeCamera() {
	c.Camera.VideoDevice = strings.TrimSpace(c.Camera.VideoDevice)
	if c.Camera.VideoDevice == "" {
		c.Camera.VideoDevice = defaultVideoDevice
	}
	if c.Camera.PollInterval <= 0 {
		c.Camera.PollInterval = defaultPollInterval
	}
}

func (c *Config) normalizeSession() {
	c.Session.DefaultComponent = strings.ToLower(strings.TrimSpace(c.Session.DefaultComponent))
	if c.Session.DefaultComponent == "" {
		c.Session.DefaultComponent = defaultComponent
	}
	c.Session.DefaultMode = strings.ToLower(strings.TrimSpace(c.Session.DefaultMode))
	if c.Session.DefaultMode == "" {
		c.Session.DefaultMode = defaultMode
	}
	if c.Session.FeedbackMillis <= 0 {
		c.Session.FeedbackMillis = defaultFeedbackMillis
	}
	if c.Session.SuccessCooldown <= 0 {
		c.Session.SuccessCooldown = defaultSuccessCooldown
	}
	if c.Session.DuplicateCooldown <= 0 {
		c.Session.DuplicateCooldown = defaultDuplicateCooldown
	}
	if c.Session.FailureCooldown <= 0 {
		c.Session.FailureCooldown = defaultFailureCooldown
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
