package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/followup/internal/config"
	"github.com/MrSnakeDoc/followup/internal/logger"
	"github.com/MrSnakeDoc/followup/internal/redis"
	"github.com/MrSnakeDoc/followup/internal/store"
	"github.com/MrSnakeDoc/followup/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/followup/internal/store/redis"
	"github.com/MrSnakeDoc/followup/internal/store/sqlite"
	"github.com/MrSnakeDoc/followup/internal/timer"
	"github.com/MrSnakeDoc/followup/internal/utils"
)

// Backends holds the store and timer facility selected by the config.
type Backends struct {
	KV     store.KV
	Timers timer.Facility

	client *goredis.Client // shared by the redis store and timer queue
	local  *timer.Local
	queue  *redisstore.TimerQueue
	logger logger.Logger
}

// OpenBackends connects the configured store and timer facility.
// Redis is dialled once and shared when both backends use it.
func OpenBackends(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backends, error) {
	log = log.With(logger.Component("backends"))
	b := &Backends{logger: log}

	if cfg.UsesRedis() {
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(ctx, redisOptions(cfg), log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Redis initialized successfully")
		b.client = client
	}

	switch cfg.Store {
	case config.StoreRedis:
		b.KV = redisstore.NewStore(b.client, log)
	case config.StoreSQLite:
		s, err := sqlite.Open(cfg.SQLiteDir)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		b.KV = s
	default:
		log.Warn("using the in-memory store, records are lost on restart")
		b.KV = memory.NewStore()
	}

	switch cfg.Timers {
	case config.TimersRedis:
		b.queue = redisstore.NewTimerQueue(b.client, log, cfg.TimerPoll)
		b.Timers = b.queue
	default:
		b.local = timer.NewLocal()
		b.Timers = b.local
	}

	log.Info("backends ready",
		logger.String("store", cfg.Store),
		logger.String("timers", cfg.Timers))
	return b, nil
}

func redisOptions(cfg *config.Config) redis.Options {
	return redis.Options{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}
}

// StartTimers starts polling the redis timer queue; local timers need nothing.
func (b *Backends) StartTimers(ctx context.Context) {
	if b.queue != nil {
		b.queue.Start(ctx)
	}
}

// Close stops the timer facility and releases the store and the redis client.
func (b *Backends) Close() {
	if b.local != nil {
		b.local.Stop()
	}
	if b.queue != nil {
		b.queue.Stop()
	}

	_, storeOwnsClient := b.KV.(*redisstore.Store)
	if b.KV != nil {
		utils.CloseLogged(b.KV, "store", b.logger)
	}
	if b.client != nil && !storeOwnsClient {
		utils.CloseLogged(b.client, "redis client", b.logger)
	}
}
