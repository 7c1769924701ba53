package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "RECIPES_"

// dotenvFile is loaded, when present, before the environment is read.
// Variables already set in the process environment win over the file.
var dotenvFile = ".env"

// parseEnv overlays RECIPES_* environment variables onto config, e.g.
// RECIPES_DATABASE_DSN, RECIPES_ACCESS_TOKEN_VALIDITY_DURATION=30m or
// RECIPES_CORS_ALLOWED_ORIGINS=https://a.example,https://b.example.
// A malformed value panics like a malformed flag does.
func parseEnv(config *Config) {
	if _, err := os.Stat(dotenvFile); err == nil {
		if err := godotenv.Load(dotenvFile); err != nil {
			panic(fmt.Errorf("load %s: %w", dotenvFile, err))
		}
	}

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("ENDPOINT_ADDR_GRPC", &config.EndpointAddrGRPC)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("ACCESS_TOKEN_VALIDITY_DURATION", &config.AccessTokenValidityDuration)
	envDuration("REFRESH_TOKEN_VALIDITY_DURATION", &config.RefreshTokenValidityDuration)
	envInt("PASSWORD_HASH_COST", &config.PasswordHashCost)
	envString("IMAGE_STORAGE", &config.ImageStorage)
	envString("MEDIA_DIR", &config.MediaDir)
	envString("MEDIA_URL", &config.MediaURL)
	if v, ok := lookup("MAX_IMAGE_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("%sMAX_IMAGE_BYTES: %w", EnvPrefix, err))
		}
		config.MaxImageBytes = n
	}
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
	envString("LOG_LEVEL", &config.LogLevel)
	envDuration("HEALTH_CHECK_INTERVAL", &config.HealthCheckInterval)
	envDuration("SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = n
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = d
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
