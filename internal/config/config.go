package config

import (
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Broker    BrokerConfig
	Logging   LoggingConfig
	Freshchat FreshchatConfig
	Scheduler SchedulerConfig
	Email     EmailConfig
	Engine    EngineConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Redis   RedisConfig
	MongoDB MongoDBConfig
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BrokerConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	GroupID    string   `mapstructure:"group_id"`
	InputTopic string   `mapstructure:"input_topic"`
	DLQTopic   string   `mapstructure:"dlq_topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type FreshchatConfig struct {
	APIURL   string  `mapstructure:"api_url"`
	APIToken string  `mapstructure:"api_token"`
	Domain   string  `mapstructure:"domain"`
	RPS      float64 `mapstructure:"rps"`
	Burst    int     `mapstructure:"burst"`
}

type SchedulerConfig struct {
	URL        string `mapstructure:"url"`
	Group      string `mapstructure:"group"`
	APIKey     string `mapstructure:"api_key"`
	WebhookURL string `mapstructure:"webhook_url"`
}

type EmailConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	From   string `mapstructure:"from"`
}

type EngineConfig struct {
	Retry RetryConfig `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}
