package config

const (
	defaultSpoolDir   = "~/.local/share/scanbay/spool"
	defaultArchiveDir = "~/.local/share/scanbay/archive"
	defaultLogDir     = "~/.local/share/scanbay/logs"
	defaultAPIBind    = "127.0.0.1:7341"

	defaultZbarBinary      = "zbarimg"
	defaultTesseractBinary = "tesseract"
	defaultAttemptTimeout  = 10
	defaultMaxMisses       = 12
	defaultMinLength       = 4

	defaultVideoDevice  = "/dev/video0"
	defaultPollInterval = 2

	defaultComponent         = "glasses"
	defaultMode              = "barcode"
	defaultFeedbackMillis    = 100
	defaultSuccessCooldown   = 500
	defaultDuplicateCooldown = 1500
	defaultFailureCooldown   = 1500

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SpoolDir:   defaultSpoolDir,
			ArchiveDir: defaultArchiveDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Recognizer: Recognizer{
			ZbarBinary:      defaultZbarBinary,
			TesseractBinary: defaultTesseractBinary,
			AttemptTimeout:  defaultAttemptTimeout,
			MaxMisses:       defaultMaxMisses,
			MinLength:       defaultMinLength,
		},
		Camera: Camera{
			VideoDevice:  defaultVideoDevice,
			PollInterval: defaultPollInterval,
		},
		Session: Session{
			DefaultComponent:  defaultComponent,
			DefaultMode:       defaultMode,
			FeedbackMillis:    defaultFeedbackMillis,
			SuccessCooldown:   defaultSuccessCooldown,
			DuplicateCooldown: defaultDuplicateCooldown,
			FailureCooldown:   defaultFailureCooldown,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
