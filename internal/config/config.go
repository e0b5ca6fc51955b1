package config

import (
	"fmt"
	"time"

	"github.com/clipline/sms-campaigns/pkg/contentcheck"
	"github.com/clipline/sms-campaigns/pkg/dispatch"
	"github.com/clipline/sms-campaigns/pkg/mq"
	"github.com/clipline/sms-campaigns/pkg/mysql"
	"github.com/clipline/sms-campaigns/pkg/preview"
	"github.com/spf13/viper"
)

type Config struct {
	API          API                 `mapstructure:"api"`
	Database     mysql.Config        `mapstructure:"database"`
	Redis        Redis               `mapstructure:"redis"`
	RabbitMQ     mq.Config           `mapstructure:"rabbitmq"`
	Dispatch     dispatch.Config     `mapstructure:"dispatch"`
	ContentCheck contentcheck.Config `mapstructure:"content_check"`
	Preview      preview.Config      `mapstructure:"preview"`
	Credits      Credits             `mapstructure:"credits"`
	Progress     Progress            `mapstructure:"progress"`
}

type API struct {
	Port string `mapstructure:"port"`
}

type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type Credits struct {
	FreeTestSendsPerDay int64 `mapstructure:"free_test_sends_per_day"`
}

type Progress struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

func Load() (cfg *Config, err error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	viper.SetDefault("credits.free_test_sends_per_day", 10)
	viper.SetDefault("progress.poll_interval", 15*time.Second)
	viper.SetDefault("redis.cache_ttl", 5*time.Minute)

	err = viper.ReadInConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
