package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/flagx"
	"github.com/dmitrijs2005/recipebook/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration fields
// accept "15m" style strings or integer nanoseconds. Fields left out of the
// file keep their current values.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	PasswordHashCost             int            `json:"password_hash_cost"`
	ImageStorage                 string         `json:"image_storage"`
	MediaDir                     string         `json:"media_dir"`
	MediaURL                     string         `json:"media_url"`
	MaxImageBytes                int64          `json:"max_image_bytes"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	CORSAllowedOrigins           []string       `json:"cors_allowed_origins"`
	LogLevel                     string         `json:"log_level"`
	HealthCheckInterval          timex.Duration `json:"health_check_interval"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads the file named by the -c or -config flag into config.
// Nothing happens when neither flag is given. An unreadable file or invalid
// JSON panics, as the server cannot start with a half-read configuration.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	if c.PasswordHashCost != 0 {
		config.PasswordHashCost = c.PasswordHashCost
	}
	setString(&config.ImageStorage, c.ImageStorage)
	setString(&config.MediaDir, c.MediaDir)
	setString(&config.MediaURL, c.MediaURL)
	if c.MaxImageBytes != 0 {
		config.MaxImageBytes = c.MaxImageBytes
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	setString(&config.LogLevel, c.LogLevel)
	setDuration(&config.HealthCheckInterval, c.HealthCheckInterval)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
