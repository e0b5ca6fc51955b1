package main

import (
	"context"

	"github.com/clipline/sms-campaigns/internal/cache"
	"github.com/clipline/sms-campaigns/internal/config"
	"github.com/clipline/sms-campaigns/internal/consumers"
	"github.com/clipline/sms-campaigns/internal/repository"
	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/clipline/sms-campaigns/pkg/httpclient"
	"github.com/clipline/sms-campaigns/pkg/mq"
	"github.com/clipline/sms-campaigns/pkg/mysql"
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
			NewAllotmentCounter,
			NewMQConnection,
			NewMQPublisher,
			NewMQConsumer,
			NewDispatchGateway,

			repository.NewMessageRepository,
			repository.NewCreditAccountRepository,
			repository.NewCreditTxRepository,
			repository.NewTransactionManager,

			service.NewMessageService,
			service.NewLedgerService,
			NewTestSendService,

			consumers.NewTestSendConsumer,
		),
		fx.Invoke(runTestSendConsumer),
	).Run()
}

func runTestSendConsumer(cfg *config.Config, testSendConsumer consumers.TestSendConsumer, logger *zap.Logger,
	rabbit *mq.Broker, lc fx.Lifecycle,
) {
	appCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := testSendConsumer.Consume(appCtx); err != nil {
					logger.Error("consumer exited", zap.Error(err))
				}
			}()

			logger.Info("test send consumer started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping test send consumer")
			cancel()
			return rabbit.Close()
		},
	})
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

func NewAllotmentCounter(c *cache.RedisCache) cache.AllotmentCounter { return c }

func NewMQConnection(cfg *config.Config, logger *zap.Logger) (*mq.Broker, error) {
	return mq.Connect(cfg.RabbitMQ, logger)
}

func NewMQPublisher(broker *mq.Broker) (mq.Publisher, error) {
	return broker.Publisher(service.QueueTestSend)
}

func NewMQConsumer(broker *mq.Broker) (mq.Consumer, error) {
	return broker.Consumer(service.QueueTestSend)
}

func NewDispatchGateway(cfg *config.Config) dispatch.Gateway {
	client := httpclient.NewHTTPClient(cfg.Dispatch.Timeout)
	return dispatch.NewGateway(cfg.Dispatch, client)
}

func NewTestSendService(cfg *config.Config, message service.MessageService, ledger service.LedgerService,
	allotment cache.AllotmentCounter, publisher mq.Publisher, dispatcher dispatch.Gateway,
	logger *zap.Logger) service.TestSendService {
	return service.NewTestSendService(message, ledger, allotment, publisher, dispatcher,
		cfg.Credits.FreeTestSendsPerDay, logger)
}
