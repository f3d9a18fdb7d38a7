package infrastructure

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
)

// Config is read from the environment. HostListenAddr serves the extension endpoint, which takes the caller
// identity from the X-Rmrk-Caller header without authenticating it: bind it to a network only the ledger
// runtime can reach. Operator endpoints listen on AdminListenAddr and require AdminToken.
type Config struct {
	HostListenAddr             string
	AdminListenAddr            string
	AdminToken                 string
	EngineURL                  string
	HTTPTimeout                time.Duration
	DbDriverName               string
	DbHost                     string
	DbPort                     string
	DbUser                     string
	DbPassword                 string
	DbName                     string
	DbPath                     string
	MaxNestingDepth            int
	WorkerProcessIntervalAudit time.Duration
	WorkerFailureRetryDelay    time.Duration
	ServiceMaxErrorCount       int
	MailFromAddress            string
	MailToAddress              string
	SendgridApiKey             string
	LogLevel                   string
}

// NewConfig New returns a new Config struct
func NewConfig() *Config {
	return &Config{
		HostListenAddr:             getEnv("HOST_LISTEN_ADDR", ":8080"),
		AdminListenAddr:            getEnv("ADMIN_LISTEN_ADDR", "127.0.0.1:8081"),
		AdminToken:                 getEnv("ADMIN_TOKEN", ""),
		EngineURL:                  getEnv("ENGINE_URL", "http://localhost:8080"),
		HTTPTimeout:                getEnvAsDuration("HTTP_TIMEOUT", time.Second*10),
		DbDriverName:               getEnv("DB_DRIVER_NAME", "sqlite3"),
		DbHost:                     getEnv("DB_HOST", ""),
		DbPort:                     getEnv("DB_PORT", ""),
		DbUser:                     getEnv("DB_USER", ""),
		DbPassword:                 getEnv("DB_PASSWORD", ""),
		DbName:                     getEnv("DB_NAME", ""),
		DbPath:                     getEnv("DB_PATH", "rmrk.db"),
		MaxNestingDepth:            getEnvAsInt("MAX_NESTING_DEPTH", engine.DefaultMaxNestingDepth),
		WorkerProcessIntervalAudit: getEnvAsDuration("WORKER_PROCESS_INTERVAL_AUDIT", time.Minute),
		WorkerFailureRetryDelay:    getEnvAsDuration("WORKER_FAILURE_RETRY_DELAY", time.Second*5),
		ServiceMaxErrorCount:       getEnvAsInt("SERVICE_MAX_ERROR_COUNT", 5),
		MailFromAddress:            getEnv("MAIL_FROM_ADDRESS", ""),
		MailToAddress:              getEnv("MAIL_TO_ADDRESS", ""),
		SendgridApiKey:             getEnv("SENDGRID_API_KEY", ""),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
	}
}

// Validate rejects settings the host cannot run with.
func (c *Config) Validate() error {
	if c.MaxNestingDepth < 1 || c.MaxNestingDepth > engine.MaxNestingDepthLimit {
		return fmt.Errorf("MAX_NESTING_DEPTH must be between 1 and %d, got %d", engine.MaxNestingDepthLimit, c.MaxNestingDepth)
	}
	if c.WorkerProcessIntervalAudit <= 0 {
		return fmt.Errorf("WORKER_PROCESS_INTERVAL_AUDIT must be positive, got %s", c.WorkerProcessIntervalAudit)
	}
	if c.ServiceMaxErrorCount < 1 {
		return fmt.Errorf("SERVICE_MAX_ERROR_COUNT must be at least 1, got %d", c.ServiceMaxErrorCount)
	}
	return nil
}

// Simple helper function to read an environment or return a default value
func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

// Simple helper function to read an environment variable into integer or return a default value
func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}
	if duration, err := time.ParseDuration(valStr); err == nil {
		return duration
	}
	return defaultVal
}
