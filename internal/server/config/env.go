package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/frameextractor/frameextractor/internal/flagx"
)

// parseEnv overlays configuration from a .env file (path from the -c or
// -env-file flags, falling back to ./.env when present) and then from the
// process environment. Unset variables leave the current value untouched.
func parseEnv(config *Config) {
	envFile := flagx.EnvFileFlags()
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		// Overload puts file values into the process environment; the
		// lookup below then treats both sources uniformly.
		_ = godotenv.Overload(envFile)
	}

	setString(&config.EndpointAddr, "ENDPOINT_ADDR")
	setString(&config.LogLevel, "LOG_LEVEL")

	setString(&config.SecretKey, "SECRET_KEY")
	setString(&config.EmailSecretKey, "EMAIL_SECRET_KEY")
	setMinutes(&config.AccessTokenValidityDuration, "ACCESS_TOKEN_EXPIRE_MINUTES")
	setMinutes(&config.ResetTokenValidityDuration, "RESET_TOKEN_EXPIRE_MINUTES")

	setString(&config.DirectoryBackend, "DIRECTORY_BACKEND")
	setString(&config.DatabaseDSN, "DATABASE_DSN")
	setString(&config.DynamoEndpoint, "DYNAMODB_ENDPOINT")
	setString(&config.DynamoTable, "DYNAMODB_TABLE")

	setString(&config.AWSAccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&config.AWSSecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&config.AWSRegion, "AWS_DEFAULT_REGION")

	setString(&config.S3Bucket, "AWS_S3_BUCKET_NAME")
	setString(&config.S3Endpoint, "AWS_S3_ENDPOINT")
	setString(&config.S3PublicURL, "AWS_S3_PUBLIC_URL")

	setString(&config.SESEndpoint, "AWS_SES_ENDPOINT")
	setString(&config.SenderEmail, "SENDER_EMAIL")
	setString(&config.FrontendURL, "FRONTEND_URL")

	setString(&config.AdminPassword, "ADMIN_PASSWORD")

	setString(&config.FFmpegPath, "FFMPEG_PATH")
	setMinutes(&config.TranscodeTimeout, "TRANSCODE_TIMEOUT_MINUTES")
	setInt64(&config.MaxUploadBytes, "MAX_UPLOAD_BYTES")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setMinutes(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(n) * time.Minute
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
