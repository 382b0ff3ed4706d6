package config

import (
	"fmt"
	"strings"
)

func Validate(cfg *Config) error {
	var problems []string

	if len(cfg.Broker.Kafka.Brokers) == 0 {
		problems = append(problems, "broker.kafka.brokers is required")
	}
	if cfg.Broker.Kafka.InputTopic == "" {
		problems = append(problems, "broker.kafka.input_topic is required")
	}
	if cfg.Database.MongoDB.URI == "" {
		problems = append(problems, "database.mongodb.uri is required")
	}
	if cfg.Database.Redis.Host == "" {
		problems = append(problems, "database.redis.host is required")
	}
	if cfg.Freshchat.APIURL == "" {
		problems = append(problems, "freshchat.api_url is required")
	}
	if cfg.Freshchat.APIToken == "" {
		problems = append(problems, "freshchat.api_token is required")
	}
	if cfg.Scheduler.URL == "" {
		problems = append(problems, "scheduler.url is required")
	}
	if cfg.Scheduler.WebhookURL == "" {
		problems = append(problems, "scheduler.webhook_url is required")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", cfg.Server.Port))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
