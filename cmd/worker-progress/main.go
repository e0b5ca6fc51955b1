package main

import (
	"context"
	"time"

	"github.com/clipline/sms-campaigns/internal/config"
	"github.com/clipline/sms-campaigns/internal/repository"
	"github.com/clipline/sms-campaigns/internal/service"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/clipline/sms-campaigns/pkg/httpclient"
	"github.com/clipline/sms-campaigns/pkg/mysql"
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
			NewDispatchGateway,

			repository.NewMessageRepository,
			repository.NewCreditAccountRepository,
			repository.NewCreditTxRepository,
			repository.NewTransactionManager,

			service.NewLedgerService,
			service.NewProgressService,
		),
		fx.Invoke(runProgressPoller),
	).Run()
}

func runProgressPoller(cfg *config.Config, progress service.ProgressService, logger *zap.Logger,
	lc fx.Lifecycle) {
	appCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(cfg.Progress.PollInterval)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						if err := progress.PollOnce(appCtx); err != nil {
							logger.Error("failed to poll progress", zap.Error(err))
						}
					case <-appCtx.Done():
						logger.Info("poller context cancelled")
						return
					}
				}
			}()

			logger.Info("progress poller started",
				zap.Duration("interval", cfg.Progress.PollInterval))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping progress poller")
			cancel()
			return nil
		},
	})
}

func NewConnectionDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	ctx := context.Background()
	return mysql.NewConnection(ctx, cfg.Database, logger)
}

func NewDispatchGateway(cfg *config.Config) dispatch.Gateway {
	client := httpclient.NewHTTPClient(cfg.Dispatch.Timeout)
	return dispatch.NewGateway(cfg.Dispatch, client)
}
