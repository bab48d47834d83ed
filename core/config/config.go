package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	// Cron specs for the periodic sweeps.
	VotingDeadlineSpec string `mapstructure:"voting_deadline_spec"`
	ReminderSpec       string `mapstructure:"reminder_spec"`
	RecurringSpec      string `mapstructure:"recurring_spec"`
	WaitlistExpirySpec string `mapstructure:"waitlist_expiry_spec"`
	CompletionSpec     string `mapstructure:"completion_spec"`
}

type VotingConfig struct {
	// QuorumRatio is the fraction of accepted participants that must have
	// voted before a winning option can be auto-confirmed.
	QuorumRatio float64 `mapstructure:"quorum_ratio"`
}

type WaitlistConfig struct {
	ResponseDeadlineMinutes int `mapstructure:"response_deadline_minutes"`
}

type ReminderConfig struct {
	LeadMinutes int `mapstructure:"lead_minutes"`
}

type AiConfig struct {
	TimeoutMinutes int `mapstructure:"timeout_minutes"`
}

type PlacesConfig struct {
	// BaseURL of the external place directory; empty disables lookups.
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Voting   VotingConfig   `mapstructure:"voting"`
	Waitlist WaitlistConfig `mapstructure:"waitlist"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Ai       AiConfig       `mapstructure:"ai"`
	Places   PlacesConfig   `mapstructure:"places"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

// Load reads config.yaml (plus .env overrides) and initializes the global config.
func Load() (*Config, error) {
	// .env is optional; environment wins over file values
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("HANGOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing file is fine; defaults + env carry the config
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7070)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_json", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "hangout")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.voting_deadline_spec", "@every 1m")
	v.SetDefault("worker.reminder_spec", "@every 1m")
	v.SetDefault("worker.recurring_spec", "@every 1h")
	v.SetDefault("worker.waitlist_expiry_spec", "@every 5m")
	v.SetDefault("worker.completion_spec", "@every 10m")

	v.SetDefault("voting.quorum_ratio", 0.5)
	v.SetDefault("waitlist.response_deadline_minutes", 1440)
	v.SetDefault("reminder.lead_minutes", 60)
	v.SetDefault("ai.timeout_minutes", 10)

	v.SetDefault("places.base_url", "")
	v.SetDefault("places.api_key", "")
	v.SetDefault("places.timeout_seconds", 5)
}

// Get returns the global config; panics if Load has not run.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("config: Get called before Load")
	}
	return instance
}

// GetSafe returns the global config and whether it has been initialized.
func GetSafe() (*Config, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return instance, instance != nil
}
