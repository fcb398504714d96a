package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AI provider identifiers accepted by AI_PROVIDER.
const (
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

// Camera device identifiers accepted by CAMERA_DEVICE.
const (
	CameraDeviceFeed   = "feed"
	CameraDeviceScreen = "screen"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	DefaultLocale string
	GeoIPDBPath   string
	CORSOrigins   []string

	AIProvider         string
	GeminiAPIKey       string
	GeminiBaseURL      string
	GeminiCaptionModel string
	GeminiEditModel    string
	AITimeout          time.Duration
	CaptionCount       int

	MediaDir      string
	MaxImageBytes int64
	FetchTimeout  time.Duration

	CameraDevice         string
	CameraAcquireTimeout time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 getEnv("PORT", "8080"),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:          splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		AIProvider:           strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini)),
		GeminiAPIKey:         strings.TrimSpace(firstEnv("GEMINI_API_KEY", "API_KEY")),
		GeminiBaseURL:        os.Getenv("GEMINI_BASE_URL"),
		GeminiCaptionModel:   getEnv("GEMINI_CAPTION_MODEL", "gemini-3-pro-preview"),
		GeminiEditModel:      getEnv("GEMINI_EDIT_MODEL", "gemini-2.5-flash-image"),
		AITimeout:            time.Second * time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 90)),
		CaptionCount:         getEnvInt("CAPTION_COUNT", 5),
		MediaDir:             getEnv("MEDIA_DIR", "./media"),
		MaxImageBytes:        int64(getEnvInt("MAX_IMAGE_BYTES", 20<<20)),
		FetchTimeout:         time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 20)),
		CameraDevice:         strings.ToLower(getEnv("CAMERA_DEVICE", CameraDeviceFeed)),
		CameraAcquireTimeout: time.Second * time.Duration(getEnvInt("CAMERA_ACQUIRE_TIMEOUT_SECONDS", 10)),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.AIProvider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER=%s", ProviderGemini)
		}
	case ProviderOffline:
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", cfg.AIProvider)
	}

	switch cfg.CameraDevice {
	case CameraDeviceFeed, CameraDeviceScreen:
	default:
		return nil, fmt.Errorf("unsupported CAMERA_DEVICE %q", cfg.CameraDevice)
	}

	if cfg.CaptionCount <= 0 {
		cfg.CaptionCount = 5
	}
	if cfg.MaxImageBytes <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
