package main

import (
	"context"

	"github.com/clipline/sms-campaigns/internal/api"
	v1 "github.com/clipline/sms-campaigns/internal/api/v1"
	"github.com/clipline/sms-campaigns/internal/cache"
	"github.com/clipline/sms-campaigns/internal/config"
	"github.com/clipline/sms-campaigns/internal/middleware"
	"github.com/clipline/sms-campaigns/internal/repository"
	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/clipline/sms-campaigns/pkg/contentcheck"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/clipline/sms-campaigns/pkg/httpclient"
	"github.com/clipline/sms-campaigns/pkg/mq"
	"github.com/clipline/sms-campaigns/pkg/mysql"
	"github.com/clipline/sms-campaigns/pkg/preview"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			zap.NewProduction,
			NewConnectionDB,
			NewRedisClient,
			NewCache,
			NewPreviewCache,
			NewAllotmentCounter,
			NewMQConnection,
			NewMQPublisher,
			NewDispatchGateway,
			NewContentChecker,
			NewPreviewGateway,

			repository.NewMessageRepository,
			repository.NewCreditAccountRepository,
			repository.NewCreditTxRepository,
			repository.NewTransactionManager,

			service.NewMessageService,
			service.NewLedgerService,
			service.NewValidationService,
			service.NewRecipientService,
			service.NewCampaignWorkflowService,
			service.NewProgressService,
			NewTestSendService,

			NewFiberApp,
			v1.NewHandler,
		),
		fx.Invoke(startServer),
	).Run()
}

func startServer(app *fiber.App, handler *v1.Handler, cfg *config.Config, logger *zap.Logger,
	rabbit *mq.Broker, lc fx.Lifecycle) {
	api.SetupRoutes(app, handler)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := app.Listen(cfg.API.Port); err != nil {
					logger.Error("server stopped", zap.Error(err))
				}
			}()

			logger.Info("api server started", zap.String("port", cfg.API.Port))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := app.ShutdownWithContext(ctx); err != nil {
				return err
			}
			return rabbit.Close()
		},
	})
}

func NewFiberApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	ctx := context.Background()
	return mysql.NewConnection(ctx, cfg.Database, logger)
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func NewCache(cfg *config.Config, rdb *redis.Client) *cache.RedisCache {
	return cache.NewRedisCache(rdb, cfg.Redis.CacheTTL)
}

func NewPreviewCache(c *cache.RedisCache) cache.PreviewCache { return c }

func NewAllotmentCounter(c *cache.RedisCache) cache.AllotmentCounter { return c }

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.Broker, error) {
	return mq.Connect(cfg.RabbitMQ, logger)
}

func NewMQPublisher(broker *mq.Broker) (mq.Publisher, error) {
	return broker.Publisher(service.QueueTestSend)
}

func NewDispatchGateway(cfg *config.Config) dispatch.Gateway {
	client := httpclient.NewHTTPClient(cfg.Dispatch.Timeout)
	return dispatch.NewGateway(cfg.Dispatch, client)
}

func NewContentChecker(cfg *config.Config) contentcheck.Checker {
	client := httpclient.NewHTTPClient(cfg.ContentCheck.Timeout)
	return contentcheck.NewChecker(cfg.ContentCheck, client)
}

func NewPreviewGateway(cfg *config.Config) preview.Gateway {
	client := httpclient.NewHTTPClient(cfg.Preview.Timeout)
	return preview.NewGateway(cfg.Preview, client)
}

func NewTestSendService(cfg *config.Config, message service.MessageService, ledger service.LedgerService,
	allotment cache.AllotmentCounter, publisher mq.Publisher, dispatcher dispatch.Gateway,
	logger *zap.Logger) service.TestSendService {
	return service.NewTestSendService(message, ledger, allotment, publisher, dispatcher,
		cfg.Credits.FreeTestSendsPerDay, logger)
}
