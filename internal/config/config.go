package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	WorkDir  string `mapstructure:"work_dir"`
}

type DatabaseConfig struct {
	Type     string `mapstructure:"type"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`

	// AWS S3 or any S3-compatible endpoint
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Local directory
	LocalPath string `mapstructure:"local_path"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`
}

type ScheduleConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	PollTick      time.Duration `mapstructure:"poll_tick"`
	Cron          string        `mapstructure:"cron"`
	RetentionDays int           `mapstructure:"retention_days"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

type NotifyConfig struct {
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
}

// envBindings maps config keys to the environment variables that feed them.
// The first name is the canonical one reported in validation errors.
var envBindings = map[string][]string{
	"app.log_level": {"LOG_LEVEL"},
	"app.log_file":  {"LOG_FILE"},
	"app.work_dir":  {"WORK_DIR"},

	"database.type":     {"DB_TYPE"},
	"database.host":     {"DB_CONTAINER_NAME", "DB_HOST"},
	"database.port":     {"DB_PORT"},
	"database.username": {"DB_USER"},
	"database.password": {"DB_PASSWORD"},
	"database.database": {"DB_NAME"},

	"storage.backend":          {"STORAGE_BACKEND"},
	"storage.endpoint":         {"S3_ENDPOINT_URL"},
	"storage.region":           {"S3_REGION"},
	"storage.bucket":           {"S3_BUCKET"},
	"storage.access_key":       {"AWS_ACCESS_KEY"},
	"storage.secret_key":       {"AWS_SECRET_KEY"},
	"storage.prefix":           {"S3_PREFIX"},
	"storage.local_path":       {"LOCAL_STORAGE_PATH"},
	"storage.credentials_file": {"GDRIVE_CREDENTIALS_FILE"},
	"storage.folder_id":        {"GDRIVE_FOLDER_ID"},

	"schedule.interval":       {"BACKUP_INTERVAL"},
	"schedule.poll_tick":      {"BACKUP_POLL_TICK"},
	"schedule.cron":           {"BACKUP_SCHEDULE"},
	"schedule.retention_days": {"RETENTION_DAYS"},
	"schedule.shutdown_grace": {"BACKUP_SHUTDOWN_GRACE"},

	"notify.telegram_bot_token": {"TELEGRAM_BOT_TOKEN"},
	"notify.telegram_chat_id":   {"TELEGRAM_CHAT_ID"},
}

// Load resolves configuration from the environment (and a .env file in the
// working directory). path is an optional YAML file whose values are
// overridden by the environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "pgstash")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_file", "backup.log")
	v.SetDefault("app.work_dir", os.TempDir())
	v.SetDefault("database.type", "postgresql")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("schedule.interval", time.Hour)
	v.SetDefault("schedule.poll_tick", time.Second)
	v.SetDefault("schedule.shutdown_grace", 5*time.Minute)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultPort(cfg.Database.Type)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func defaultPort(dbType string) int {
	if dbType == "mysql" {
		return 3306
	}
	return 5432
}

// MissingError names every required environment variable that was not set.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required environment variable(s): %s", strings.Join(e.Vars, ", "))
}

func (c *Config) Validate() error {
	var missing []string
	require := func(value, key string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, envBindings[key][0])
		}
	}

	require(c.Database.Host, "database.host")
	require(c.Database.Database, "database.database")
	require(c.Database.Username, "database.username")
	require(c.Database.Password, "database.password")

	switch c.Storage.Backend {
	case "s3":
		require(c.Storage.AccessKey, "storage.access_key")
		require(c.Storage.SecretKey, "storage.secret_key")
		require(c.Storage.Bucket, "storage.bucket")
		require(c.Storage.Endpoint, "storage.endpoint")
	case "local":
		require(c.Storage.LocalPath, "storage.local_path")
	case "gdrive":
		require(c.Storage.CredentialsFile, "storage.credentials_file")
		require(c.Storage.FolderID, "storage.folder_id")
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}

	switch c.Database.Type {
	case "postgresql", "mysql":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Schedule.Interval <= 0 && c.Schedule.Cron == "" {
		return fmt.Errorf("BACKUP_INTERVAL must be positive")
	}
	if c.Schedule.PollTick <= 0 {
		return fmt.Errorf("BACKUP_POLL_TICK must be positive")
	}
	if c.Storage.Backend == "local" && sameDir(c.Storage.LocalPath, c.App.WorkDir) {
		return fmt.Errorf("LOCAL_STORAGE_PATH must differ from WORK_DIR: %s", c.Storage.LocalPath)
	}
	if c.Schedule.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative")
	}
	if c.Schedule.ShutdownGrace < 0 {
		return fmt.Errorf("BACKUP_SHUTDOWN_GRACE must not be negative")
	}

	return nil
}

func sameDir(a, b string) bool {
	if absA, err := filepath.Abs(a); err == nil {
		a = absA
	}
	if absB, err := filepath.Abs(b); err == nil {
		b = absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func (c *Config) TelegramEnabled() bool {
	return c.Notify.TelegramBotToken != "" && c.Notify.TelegramChatID != ""
}
