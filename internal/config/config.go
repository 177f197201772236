package config

import (
	"os"
	"strconv"
)

// Photo backends accepted in PHOTO_BACKEND.
const (
	PhotoBackendNone  = "none"
	PhotoBackendLocal = "local"
	PhotoBackendS3    = "s3"
)

type Config struct {
	ListenAddr  string
	DBPath      string
	Environment string
	LogLevel    string
	LogFile     string

	PhotoBackend string
	PhotoPath    string
	S3           S3Config

	Email EmailConfig
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// EmailConfig configures outbound SMTP. An empty Host disables delivery and
// messages are logged instead.
type EmailConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string
	FromName string
	From     string
}

func Load() *Config {
	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":3000"),
		DBPath:       getEnv("DB_PATH", "/data/fiscobras.db"),
		Environment:  getEnv("APP_ENV", "development"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
		PhotoBackend: getEnv("PHOTO_BACKEND", PhotoBackendNone),
		PhotoPath:    getEnv("PHOTO_LOCAL_PATH", "/data/photos"),
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET", "fiscobras-photos"),
			UseSSL:    getEnvBool("S3_USE_SSL", false),
		},
		Email: EmailConfig{
			Host:     getEnv("EMAIL_HOST", ""),
			Port:     getEnvInt("EMAIL_PORT", 587),
			Secure:   getEnvBool("EMAIL_SECURE", false),
			User:     getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASS", ""),
			FromName: getEnv("EMAIL_FROM_NAME", ""),
			From:     getEnv("EMAIL_FROM", ""),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

// getEnvInt falls back to defaultVal when the variable is unset or not an integer.
func getEnvInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return b
}
