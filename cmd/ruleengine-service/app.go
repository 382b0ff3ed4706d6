package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/freshdesk/jaya-lib/internal/broker"
	"github.com/freshdesk/jaya-lib/internal/config"
	"github.com/freshdesk/jaya-lib/internal/constants"
	"github.com/freshdesk/jaya-lib/internal/email"
	"github.com/freshdesk/jaya-lib/internal/freshchat"
	"github.com/freshdesk/jaya-lib/internal/logger"
	"github.com/freshdesk/jaya-lib/internal/plugins"
	"github.com/freshdesk/jaya-lib/internal/ruleengine"
	"github.com/freshdesk/jaya-lib/internal/scheduler"
	"github.com/freshdesk/jaya-lib/internal/storage"
	"github.com/freshdesk/jaya-lib/pkg/health"
	"github.com/freshdesk/jaya-lib/pkg/logging"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
	"github.com/freshdesk/jaya-lib/pkg/models"
)

type App struct {
	Config *config.Config
	Logger logger.Logger

	mongoClient *mongo.Client
	redisClient *redis.Client
	service     *ruleengine.Service
	consumer    broker.Consumer
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("ruleengine-service")
	}
	return &App{
		Config: cfg,
		Logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	a.initService()

	metrics.RegisterEngineMetrics()

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	a.consumer = broker.NewKafkaConsumer(a.Config.Broker.Kafka, a.Config.Engine.Retry, a.Logger)
	a.consumer.SetServiceName("ruleengine-service")

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	connectCtx, cancel := context.WithTimeout(ctx, constants.DatabaseConnectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, mongooptions.Client().ApplyURI(a.Config.Database.MongoDB.URI))
	if err != nil {
		return fmt.Errorf("mongodb connect failed: %w", err)
	}
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("mongodb ping failed: %w", err)
	}
	a.mongoClient = mongoClient

	a.redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", a.Config.Database.Redis.Host, a.Config.Database.Redis.Port),
		Password: a.Config.Database.Redis.Password,
		DB:       a.Config.Database.Redis.DB,
	})
	if err := a.redisClient.Ping(connectCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (a *App) initService() {
	db := a.mongoClient.Database(a.Config.Database.MongoDB.Database)
	repo := ruleengine.NewMongoRepository(db)

	sched := scheduler.NewClient(a.Config.Scheduler.URL, scheduler.Credentials{
		Group:  a.Config.Scheduler.Group,
		APIKey: a.Config.Scheduler.APIKey,
	})
	claimer := scheduler.NewRedisClaimer(a.redisClient)

	fcCfg := a.Config.Freshchat
	integ := &ruleengine.Integrations{
		Freshchat: freshchat.NewClient(fcCfg.APIURL, fcCfg.APIToken, fcCfg.RPS, fcCfg.Burst),
		Email:     email.NewClient(a.Config.Email.URL, a.Config.Email.APIKey),
		Storage:   storage.NewRedisStore(a.redisClient, constants.DefaultStorageTTL),
		Domain:    fcCfg.Domain,
	}

	registry := ruleengine.NewRegistry()
	svc := ruleengine.NewService(repo, registry, sched, claimer, integ, a.Config.Scheduler.WebhookURL, a.Logger)

	registry.RegisterPlugins(plugins.Default(plugins.Deps{
		Registry:  registry,
		Resolver:  svc.Resolver(),
		EmailFrom: a.Config.Email.From,
	}))

	a.service = svc
}

func (a *App) initHTTPServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engineHandler := ruleengine.NewHandler(a.service, a.Logger)
	engineHandler.RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	inputTopic := a.Config.Broker.Kafka.InputTopic
	g.Go(func() error {
		consumeCtx := logging.WithServiceName(gCtx, "ruleengine-service")
		a.Logger.InfowCtx(consumeCtx, "Starting product event consumer", "topic", inputTopic)
		return a.consumer.Consume(gCtx, inputTopic, func(cCtx context.Context, payload models.ProductEventPayload) error {
			return a.service.ProcessEvent(cCtx, &payload)
		})
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, "ruleengine-service")
	a.Logger.InfowCtx(shutdownCtx, "Shutting down rule engine service")

	var errs []error

	if a.server != nil {
		serverCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(serverCtx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer close error: %w", err))
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect error: %w", err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	if len(errs) > 0 {
		for _, err := range errs {
			a.Logger.ErrorwCtx(shutdownCtx, "Shutdown error", "error", err)
		}
		return errs[0]
	}
	return nil
}
