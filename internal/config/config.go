package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Etcd      EtcdConfig      `mapstructure:"etcd"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Channels  ChannelsConfig  `mapstructure:"channels"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

type ServerConfig struct {
	Environment string `mapstructure:"environment"`
	Port        string `mapstructure:"port"`
}

type DatabaseConfig struct {
	// Driver is "mysql" or "postgres".
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EtcdConfig is optional. With no endpoints the tick lock is process-local.
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	LockKey     string        `mapstructure:"lock_key"`
	LockTTL     int           `mapstructure:"lock_ttl"`
}

type DispatchConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	PrimaryBudget   int           `mapstructure:"primary_budget"`
	SecondaryBudget int           `mapstructure:"secondary_budget"`
	AvgThroughput   int           `mapstructure:"avg_throughput"`
	TickTimeout     time.Duration `mapstructure:"tick_timeout"`
	HistorySize     int           `mapstructure:"history_size"`
	AutoStart       bool          `mapstructure:"auto_start"`
}

type BroadcastConfig struct {
	// Greeting is a format string; %s is replaced by the recipient's name.
	Greeting      string `mapstructure:"greeting"`
	MaxBodyLength int    `mapstructure:"max_body_length"`
}

type ChannelConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ChannelsConfig struct {
	Kakao ChannelConfig `mapstructure:"kakao"`
	SMS   ChannelConfig `mapstructure:"sms"`
}

type StreamConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	HubBufferSize     int           `mapstructure:"hub_buffer_size"`
}

type AuthConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	BcryptCost      int           `mapstructure:"bcrypt_cost"`
}

type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.port", ":8080")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "root:root@tcp(127.0.0.1:3306)/assignment?charset=utf8mb4&parseTime=True&loc=Local")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("etcd.endpoints", []string{})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.lock_key", "/locks/dispatcher")
	v.SetDefault("etcd.lock_ttl", 60)

	v.SetDefault("dispatch.interval", time.Minute)
	v.SetDefault("dispatch.primary_budget", 100)
	v.SetDefault("dispatch.secondary_budget", 500)
	v.SetDefault("dispatch.avg_throughput", 450)
	v.SetDefault("dispatch.tick_timeout", 55*time.Second)
	v.SetDefault("dispatch.history_size", 100)
	v.SetDefault("dispatch.auto_start", true)

	v.SetDefault("broadcast.greeting", "%s님, 안녕하세요. 현대 오토에버입니다.")
	v.SetDefault("broadcast.max_body_length", 1000)

	v.SetDefault("channels.kakao.base_url", "http://localhost:8081")
	v.SetDefault("channels.kakao.username", "autoever")
	v.SetDefault("channels.kakao.password", "1234")
	v.SetDefault("channels.kakao.timeout", 5*time.Second)
	v.SetDefault("channels.sms.base_url", "http://localhost:8082")
	v.SetDefault("channels.sms.username", "autoever")
	v.SetDefault("channels.sms.password", "5678")
	v.SetDefault("channels.sms.timeout", 5*time.Second)

	v.SetDefault("stream.heartbeat_interval", 15*time.Second)
	v.SetDefault("stream.hub_buffer_size", 64)

	v.SetDefault("auth.secret", "assignment-auth-dev-secret")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "1212")

	v.SetDefault("ratelimit.requests_per_second", 20)
	v.SetDefault("cors.allow_origins", []string{"*"})
}

// Load reads .env (if any), then config.yaml, then ASSIGN_* environment variables.
func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("ASSIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []error

	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		problems = append(problems, fmt.Errorf("database.driver %q must be mysql or postgres", c.Database.Driver))
	}
	if c.Dispatch.Interval <= 0 {
		problems = append(problems, errors.New("dispatch.interval must be positive"))
	}
	if c.Dispatch.PrimaryBudget < 0 {
		problems = append(problems, errors.New("dispatch.primary_budget must not be negative"))
	}
	if c.Dispatch.SecondaryBudget <= 0 {
		problems = append(problems, errors.New("dispatch.secondary_budget must be positive"))
	}
	if c.Dispatch.AvgThroughput <= 0 {
		problems = append(problems, errors.New("dispatch.avg_throughput must be positive"))
	}
	if c.Dispatch.TickTimeout <= 0 {
		problems = append(problems, errors.New("dispatch.tick_timeout must be positive"))
	}
	if !strings.Contains(c.Broadcast.Greeting, "%s") {
		problems = append(problems, errors.New("broadcast.greeting must contain %s for the recipient name"))
	}
	if c.Auth.Secret == "" {
		problems = append(problems, errors.New("auth.secret is required"))
	}
	if c.Server.Environment == "prod" && c.Auth.Secret == "assignment-auth-dev-secret" {
		problems = append(problems, errors.New("auth.secret must be overridden in prod"))
	}

	return errors.Join(problems...)
}
