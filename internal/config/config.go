package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const FileName = "config.yaml"

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Accounts  AccountsConfig  `mapstructure:"accounts"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Mail      MailConfig      `mapstructure:"mail"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port    string
	Mode    string
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool   `mapstructure:"parse_time"`
	SSLMode   string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// AccountsConfig 账户生命周期配置
type AccountsConfig struct {
	ActivationLifetime time.Duration `mapstructure:"activation_lifetime"`
	PurgeSchedule      string        `mapstructure:"purge_schedule"`
	PasswordResetTTL   time.Duration `mapstructure:"password_reset_ttl"`
	MinPasswordLength  int           `mapstructure:"min_password_length"`
}

type QuizConfig struct {
	QuestionsPerTest int `mapstructure:"questions_per_test"`
}

type JobsConfig struct {
	Queue        string        `mapstructure:"queue"`
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
}

type MailConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parse_time", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("accounts.activation_lifetime", "24h")
	v.SetDefault("accounts.purge_schedule", "@hourly")
	v.SetDefault("accounts.password_reset_ttl", "72h")
	v.SetDefault("accounts.min_password_length", 8)
	v.SetDefault("quiz.questions_per_test", 10)
	v.SetDefault("jobs.queue", "langquiz:jobs")
	v.SetDefault("jobs.block_timeout", "5s")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	// .env 仅用于本地开发，缺失时直接读取系统环境变量
	_ = godotenv.Load(filepath.Join(path, "..", ".env"))

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LANGQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.base_url", "SERVER_BASE_URL")

	// Mail
	v.BindEnv("mail.host", "SMTP_HOST")
	v.BindEnv("mail.port", "SMTP_PORT")
	v.BindEnv("mail.username", "SMTP_USERNAME")
	v.BindEnv("mail.password", "SMTP_PASSWORD")
	v.BindEnv("mail.from", "SMTP_FROM")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Log.File); cfg.Log.File != "" && dir != "." {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			os.MkdirAll(dir, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Accounts.ActivationLifetime <= 0 {
		return fmt.Errorf("accounts.activation_lifetime must be positive, got %s", c.Accounts.ActivationLifetime)
	}
	if c.Quiz.QuestionsPerTest < 0 {
		return fmt.Errorf("quiz.questions_per_test must not be negative, got %d", c.Quiz.QuestionsPerTest)
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// FilePath 返回热加载监听的配置文件路径
func FilePath(dir string) string {
	return filepath.Join(dir, FileName)
}
