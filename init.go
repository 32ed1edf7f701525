package dexscout

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/raykavin/dexscout/pkg/logger"
	"github.com/raykavin/dexscout/pkg/logger/logrus"
	"github.com/raykavin/dexscout/pkg/logger/zerolog"
)

const (
	// Default configuration values
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
	defaultLogBackend    = "zerolog"
)

// Environment variable names
const (
	envLogLevel      = "DEXSCOUT_LOG_LEVEL"
	envLogTimeFormat = "DEXSCOUT_LOG_TIME_FORMAT"
	envLogColor      = "DEXSCOUT_LOG_COLOR"
	envLogJSON       = "DEXSCOUT_LOG_JSON"
	envLogBackend    = "DEXSCOUT_LOG_BACKEND"
)

func init() {
	log, err := initLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = log
}

// initLogger creates the default logger from environment variables
func initLogger() (logger.Logger, error) {
	logColored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	logJSON, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	level := getEnvWithDefault(envLogLevel, defaultLogLevel)
	timeFormat := getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat)

	switch backend := strings.ToLower(getEnvWithDefault(envLogBackend, defaultLogBackend)); backend {
	case "zerolog":
		log, err := zerolog.New(zerolog.Config{
			Level:      level,
			TimeFormat: timeFormat,
			Colored:    logColored,
			JSON:       logJSON,
		})
		if err != nil {
			return nil, err
		}
		return zerolog.NewAdapter(log.Logger), nil
	case "logrus":
		return logrus.New(logrus.Config{
			Level:      level,
			TimeFormat: timeFormat,
			Colored:    logColored,
			JSON:       logJSON,
		})
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// getEnvWithDefault returns the value of the environment variable or the default if not set
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// parseBoolEnv gets a boolean environment variable with a default value
func parseBoolEnv(key, defaultValue string) (bool, error) {
	value := getEnvWithDefault(key, defaultValue)
	return strconv.ParseBool(value)
}
