package prismabot

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment
type Config struct {
	Port            string
	LivenessMessage string
	LogLevel        string
	LogFormat       string

	MongoURL        string
	DatabaseName    string
	ArchiveName     string
	ArchiveInterval time.Duration
	ArchiveDisabled bool

	StorePath    string
	QROutputPath string

	AssetsDir      string
	ScriptPath     string
	PacingDelay    time.Duration // zero keeps the script value
	Trim           *bool         // nil keeps the script value
	HandlerTimeout time.Duration
}

// LookupFunc reads one environment variable, os.LookupEnv fits
type LookupFunc func(key string) (string, bool)

// LoadEnvFile loads variables from a .env style file into the process environment
// Variables which are already set are not overridden. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LoadConfig builds a Config from the environment
func LoadConfig(lookup LookupFunc) (*Config, error) {
	env := envReader{lookup: lookup}
	config := Config{
		Port:            env.str("PORT", "3000"),
		LivenessMessage: env.str("LIVENESS_MESSAGE", DefaultLivenessMessage),
		LogLevel:        env.str("LOG_LEVEL", "info"),
		LogFormat:       strings.ToLower(env.str("LOG_FORMAT", "text")),
		MongoURL:        env.str("MONGODB_URI", ""),
		DatabaseName:    env.str("MONGODB_NAME", "prismabot"),
		ArchiveName:     env.str("ARCHIVE_NAME", "whatsapp-session"),
		ArchiveInterval: env.duration("ARCHIVE_INTERVAL", 5*time.Minute),
		ArchiveDisabled: env.boolean("ARCHIVE_DISABLED", false),
		StorePath:       env.str("WHATSAPP_STORE_PATH", "session/whatsapp.db"),
		QROutputPath:    env.str("QR_OUTPUT_PATH", ""),
		AssetsDir:       env.str("ASSETS_DIR", "."),
		ScriptPath:      env.str("SCRIPT_PATH", ""),
		PacingDelay:     env.duration("PACING_DELAY", 0),
		HandlerTimeout:  env.duration("HANDLER_TIMEOUT", 2*time.Minute),
	}
	if _, ok := lookup("TRIM_BEFORE_COMPARE"); ok {
		trim := env.boolean("TRIM_BEFORE_COMPARE", true)
		config.Trim = &trim
	}

	if env.err != nil {
		return nil, env.err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the values which cannot be defaulted
func (c *Config) Validate() error {
	if c.Port == "" {
		return ConfigError{Key: "PORT", Msg: "must not be empty"}
	}
	if !c.ArchiveDisabled && c.MongoURL == "" {
		return ConfigError{Key: "MONGODB_URI", Msg: "required unless ARCHIVE_DISABLED is set"}
	}
	if c.ArchiveInterval <= 0 {
		return ConfigError{Key: "ARCHIVE_INTERVAL", Msg: "must be positive"}
	}
	if c.HandlerTimeout <= 0 {
		return ConfigError{Key: "HANDLER_TIMEOUT", Msg: "must be positive"}
	}
	if c.PacingDelay < 0 {
		return ConfigError{Key: "PACING_DELAY", Msg: "must not be negative"}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return ConfigError{Key: "LOG_FORMAT", Msg: "must be text or json"}
	}
	return nil
}

// Session returns the part of the configuration used by Session
func (c *Config) Session() SessionConfig {
	return SessionConfig{
		Port:            c.Port,
		LivenessMessage: c.LivenessMessage,
		MongoURL:        c.MongoURL,
		DatabaseName:    c.DatabaseName,
		ArchiveDisabled: c.ArchiveDisabled,
	}
}

// envReader keeps the first parse error so LoadConfig can report it
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) str(key, defaultValue string) string {
	if value, ok := e.lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(ConfigError{Key: key, Msg: err.Error()})
		return defaultValue
	}
	return d
}

func (e *envReader) boolean(key string, defaultValue bool) bool {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(ConfigError{Key: key, Msg: err.Error()})
		return defaultValue
	}
	return b
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
