package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Auth     AuthConfig     `mapstructure:"jwt"`
	Leave    LeaveConfig    `mapstructure:"leave"`
	Logger   LoggerConfig   `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Host       string `mapstructure:"host"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	Port       string `mapstructure:"port"`
	SSLMode    string `mapstructure:"sslmode"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	CalendarTTL time.Duration `mapstructure:"calendar_ttl"`
}

type KafkaConfig struct {
	Broker       string        `mapstructure:"broker"`
	GroupID      string        `mapstructure:"group_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
}

// LeaveConfig holds the leave policy knobs.
type LeaveConfig struct {
	HoursPerDay        int   `mapstructure:"hours_per_day"`
	MinNoticeDays      int   `mapstructure:"min_notice_days"`
	CancelGraceDays    int   `mapstructure:"cancel_grace_days"`
	ControlNumberStart int64 `mapstructure:"control_number_start"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from the environment. DB_HOST maps to db.host,
// LEAVE_CANCEL_GRACE_DAYS to leave.cancel_grace_days and so on.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "empconnect")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_retries", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.calendar_ttl", 30*time.Minute)

	v.SetDefault("kafka.broker", "")
	v.SetDefault("kafka.group_id", "empconnect-notifications")
	v.SetDefault("kafka.poll_interval", 3*time.Second)

	v.SetDefault("jwt.secret", "")

	v.SetDefault("leave.hours_per_day", 8)
	v.SetDefault("leave.min_notice_days", 1)
	v.SetDefault("leave.cancel_grace_days", 0)
	v.SetDefault("leave.control_number_start", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "stdout")
	v.SetDefault("log.format", "console")
}

func (c *Config) Validate() error {
	if c.Leave.HoursPerDay <= 0 {
		return fmt.Errorf("leave.hours_per_day must be positive")
	}
	if c.Leave.MinNoticeDays < 0 {
		return fmt.Errorf("leave.min_notice_days must not be negative")
	}
	if c.Leave.CancelGraceDays < 0 {
		return fmt.Errorf("leave.cancel_grace_days must not be negative")
	}
	if c.Leave.ControlNumberStart < 1 {
		return fmt.Errorf("leave.control_number_start must be positive")
	}
	if c.Database.MaxRetries < 1 {
		return fmt.Errorf("db.max_retries must be at least 1")
	}
	return nil
}
