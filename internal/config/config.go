package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mexicorn/podium/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	DBURL string

	CORSAllowedOrigins []string
	InternalJobToken   string
	LogLevel           logging.Level

	GoogleClientID     string
	GoogleTokenInfoURL string
	GoogleCacheTTL     time.Duration

	OpenF1BaseURL               string
	OpenF1Timeout               time.Duration
	OpenF1MaxRetries            int
	OpenF1BackoffBase           time.Duration
	OpenF1CircuitEnabled        bool
	OpenF1CircuitFailureCount   int
	OpenF1CircuitOpenTimeout    time.Duration
	OpenF1CircuitHalfOpenMaxReq int

	SyncEnabled      bool
	SyncInterval     time.Duration
	SyncYear         int
	SyncSessionTypes []string
	SyncFetchWorkers int

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}

	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}

	googleCacheTTL, err := getEnvAsDuration("GOOGLE_TOKEN_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse GOOGLE_TOKEN_CACHE_TTL: %w", err)
	}

	openF1Timeout, err := getEnvAsDuration("OPENF1_TIMEOUT", 20*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENF1_TIMEOUT: %w", err)
	}
	openF1MaxRetries, err := getEnvAsInt("OPENF1_MAX_RETRIES", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENF1_MAX_RETRIES: %w", err)
	}
	openF1BackoffBase, err := getEnvAsDuration("OPENF1_BACKOFF_BASE", time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENF1_BACKOFF_BASE: %w", err)
	}
	openF1CircuitEnabled, err := strconv.ParseBool(getEnv("OPENF1_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENF1_CIRCUIT_ENABLED: %w", err)
	}
	openF1CircuitFailureCount, err := getEnvAsInt("OPENF1_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENF1_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	openF1CircuitOpenTimeout, err := getEnvAsDuration("OPENF1_CIRCUIT_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENF1_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	openF1CircuitHalfOpenMaxReq, err := getEnvAsInt("OPENF1_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse OPENF1_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	syncEnabled, err := strconv.ParseBool(getEnv("SYNC_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_ENABLED: %w", err)
	}
	syncInterval, err := getEnvAsDuration("SYNC_INTERVAL", time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_INTERVAL: %w", err)
	}
	syncYear, err := getEnvAsInt("SYNC_YEAR", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_YEAR: %w", err)
	}
	syncFetchWorkers, err := getEnvAsInt("SYNC_FETCH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_FETCH_WORKERS: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}

	return Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "podium-api"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,

		DBURL: dbURL,

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		LogLevel:           parseLogLevel(getEnv("LOG_LEVEL", "info")),

		GoogleClientID:     strings.TrimSpace(getEnv("GOOGLE_CLIENT_ID", "")),
		GoogleTokenInfoURL: strings.TrimSpace(getEnv("GOOGLE_TOKENINFO_URL", "")),
		GoogleCacheTTL:     googleCacheTTL,

		OpenF1BaseURL:               strings.TrimSpace(getEnv("OPENF1_BASE_URL", "")),
		OpenF1Timeout:               openF1Timeout,
		OpenF1MaxRetries:            openF1MaxRetries,
		OpenF1BackoffBase:           openF1BackoffBase,
		OpenF1CircuitEnabled:        openF1CircuitEnabled,
		OpenF1CircuitFailureCount:   openF1CircuitFailureCount,
		OpenF1CircuitOpenTimeout:    openF1CircuitOpenTimeout,
		OpenF1CircuitHalfOpenMaxReq: openF1CircuitHalfOpenMaxReq,

		SyncEnabled:      syncEnabled,
		SyncInterval:     syncInterval,
		SyncYear:         syncYear,
		SyncSessionTypes: splitCSV(getEnv("SYNC_SESSION_TYPES", "")),
		SyncFetchWorkers: syncFetchWorkers,

		PprofEnabled: pprofEnabled,
		PprofAddr:    getEnv("PPROF_ADDR", "localhost:6060"),

		UptraceEnabled:     uptraceEnabled,
		UptraceDSN:         uptraceDSN,
		UptraceLogsEnabled: uptraceLogsEnabled,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", "podium-api"),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
