package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SLIDEBUILDER_"

// loadEnvFiles loads .env and .env.local when present. godotenv never
// overwrites variables that are already set. A missing file is not an error;
// a file that cannot be parsed is.
func loadEnvFiles() error {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.WrapError(err, errors.CategoryConfig, "failed to stat env file").
				WithContext("path", path).
				Build()
		}
		if err := godotenv.Load(path); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to load env file").
				WithContext("path", path).
				Build()
		}
	}
	return nil
}

// ApplyEnv applies SLIDEBUILDER_* overrides to cfg.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"DEFAULT_STYLE":     &cfg.Defaults.Style,
		"DEFAULT_LAYOUT":    &cfg.Defaults.Layout,
		"METRICS_NAMESPACE": &cfg.Metrics.Namespace,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Logging.Level = LogLevel(v)
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.Logging.Format = LogFormat(v)
	}

	ints := map[string]*int{
		"MIN_TURNS":      &cfg.Conversation.MinTurns,
		"MAX_TURNS":      &cfg.Conversation.MaxTurns,
		"MAX_TURN_CHARS": &cfg.Conversation.MaxTurnChars,
		"MAX_CODE_LINES": &cfg.Conversation.MaxCodeLines,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup("METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envError("METRICS_ENABLED", v, err)
		}
		cfg.Metrics.Enabled = b
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	return v, ok && v != ""
}

func envError(key, value string, cause error) error {
	return errors.WrapError(cause, errors.CategoryConfig, fmt.Sprintf("invalid value for %s%s", EnvPrefix, key)).
		WithContext("value", value).
		Build()
}
