package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/freshdesk/jaya-lib/internal/config"
	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/pkg/logging"
	"github.com/freshdesk/jaya-lib/pkg/models"
	"github.com/freshdesk/jaya-lib/pkg/retry"
)

type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Async:        false,
	}
	return &KafkaProducer{writer: w, logger: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, payload models.ProductEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	key := ""
	if props, propErr := payload.Data.ModelProperties(); propErr == nil {
		// Partition by conversation so events for one conversation stay ordered.
		key = props.AppID + "_" + props.ConversationID
	}

	err = p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: body,
			Time:  time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type KafkaConsumer struct {
	cfg         config.KafkaConfig
	retryPolicy retry.Policy
	wg          sync.WaitGroup
	reader      *kafka.Reader
	logger      logger.Logger
	dlqProducer Producer
	serviceName string
}

func NewKafkaConsumer(cfg config.KafkaConfig, retryCfg config.RetryConfig, log logger.Logger) *KafkaConsumer {
	policy := retry.DefaultPolicy()
	if retryCfg.MaxAttempts > 0 {
		policy.MaxAttempts = retryCfg.MaxAttempts
	}
	if retryCfg.InitialInterval > 0 {
		policy.InitialInterval = retryCfg.InitialInterval
	}
	if retryCfg.MaxInterval > 0 {
		policy.MaxInterval = retryCfg.MaxInterval
	}
	if retryCfg.Multiplier > 0 {
		policy.Multiplier = retryCfg.Multiplier
	}
	if retryCfg.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = retryCfg.MaxElapsedTime
	}

	consumer := &KafkaConsumer{
		cfg:         cfg,
		retryPolicy: policy,
		logger:      log,
		serviceName: "unknown",
	}

	if cfg.DLQTopic != "" {
		consumer.dlqProducer = NewKafkaProducer(cfg, log)
	}

	return consumer
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

// Consume reads product events from topic until ctx is cancelled. Each
// message is handled with retries; messages that still fail go to the DLQ
// (when configured) and are committed either way so one poison event
// cannot wedge the partition.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		GroupID:  c.cfg.GroupID,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		consumeCtx := logging.WithServiceName(ctx, c.serviceName)
		c.logger.InfowCtx(consumeCtx, "Started consuming", "topic", topic)

		for {
			m, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.InfowCtx(consumeCtx, "Stopped consuming",
						"topic", topic,
						"reason", "context canceled",
					)
					return
				}
				c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
					"error", err,
					"topic", topic,
				)
				time.Sleep(time.Second)
				continue
			}

			var payload models.ProductEventPayload
			if err := json.Unmarshal(m.Value, &payload); err != nil {
				c.logger.ErrorwCtx(consumeCtx, "Failed to unmarshal product event",
					"error", err,
					"topic", topic,
				)
				_ = c.reader.CommitMessages(ctx, m)
				continue
			}

			msgCtx := logging.WithTraceID(consumeCtx, uuid.New().String())
			msgCtx = logging.WithEvent(msgCtx, string(payload.Event))

			if err := c.processWithRetry(msgCtx, payload, handler); err != nil {
				c.logger.ErrorwCtx(msgCtx, "Failed to process product event after retries",
					"error", err,
					"topic", topic,
				)
				if c.dlqProducer != nil && c.cfg.DLQTopic != "" {
					if dlqErr := c.dlqProducer.Publish(msgCtx, c.cfg.DLQTopic, payload); dlqErr != nil {
						c.logger.ErrorwCtx(msgCtx, "Failed to send product event to DLQ",
							"error", dlqErr,
							"topic", topic,
						)
					}
				}
			}

			if err := c.reader.CommitMessages(ctx, m); err != nil {
				c.logger.ErrorwCtx(msgCtx, "Failed to commit message",
					"error", err,
					"topic", topic,
				)
			}
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (c *KafkaConsumer) processWithRetry(ctx context.Context, payload models.ProductEventPayload, handler HandlerFunc) error {
	return retry.Do(ctx, c.retryPolicy, func() error {
		return handler(ctx, payload)
	})
}

func (c *KafkaConsumer) Close() error {
	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	if c.dlqProducer != nil {
		if closeErr := c.dlqProducer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	c.wg.Wait()
	return err
}
