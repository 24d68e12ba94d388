package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/kaical-backend/internal/platform/logger"
)

// String returns the env value or def. Lookups are debug-logged when log is set.
func String(key, def string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", key, "default", def)
		}
		return def
	}
	if log != nil {
		log.Debug("Environment variable found", "env_var", key)
	}
	return val
}

func Int(key string, def int, log *logger.Logger) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as int, using default", "env_var", key, "provided", raw, "default", def)
		}
		return def
	}
	return i
}

func Bool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Seconds reads an integer number of seconds; non-positive values fall back to def.
func Seconds(key string, def time.Duration, log *logger.Logger) time.Duration {
	n := Int(key, 0, log)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
