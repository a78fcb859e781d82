package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const DefaultBackendBaseURL = "https://localhost:7052"

type Config struct {
	Port string

	// BackendBaseURL is empty when the configured value could not be parsed;
	// network features are disabled in that case.
	BackendBaseURL     string
	BackendTimeout     time.Duration
	BackendInsecureTLS bool
	HubPath            string

	PollInterval         time.Duration
	StoreMaxAge          time.Duration
	ReconnectMaxAttempts int

	AllowedOrigins     []string
	GCSCredentialsFile string
	LogDirectory       string
}

func LoadConfig() Config {
	return Config{
		Port:                 getEnv("PORT", "8080"),
		BackendBaseURL:       backendBaseURL(),
		BackendTimeout:       getEnvAsSeconds("BACKEND_TIMEOUT_SECONDS", 30*time.Second),
		BackendInsecureTLS:   getEnvAsBool("BACKEND_INSECURE_TLS", false),
		HubPath:              getEnv("HUB_PATH", "/hubs/acquisizioni"),
		PollInterval:         getEnvAsSeconds("POLL_INTERVAL_SECONDS", 5*time.Second),
		StoreMaxAge:          getEnvAsSeconds("STORE_MAX_AGE_SECONDS", 30*time.Second),
		ReconnectMaxAttempts: getEnvAsInt("RECONNECT_MAX_ATTEMPTS", 5),
		AllowedOrigins:       getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		GCSCredentialsFile:   strings.TrimSpace(os.Getenv("GCS_CREDENTIALS_FILE")),
		LogDirectory:         getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

// BackendEnabled reports whether a usable backend base URL is configured.
func (c Config) BackendEnabled() bool {
	return c.BackendBaseURL != ""
}

func backendBaseURL() string {
	raw := strings.TrimSpace(os.Getenv("BACKEND_BASE_URL"))
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv("VITE_API_BASE_URL"))
	}
	if raw == "" {
		return DefaultBackendBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return strings.TrimRight(raw, "/")
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
