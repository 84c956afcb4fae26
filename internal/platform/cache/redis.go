package cache

import (
	"context"

	"contest_arena/internal/platform/config"
	"contest_arena/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if err := RDB.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", config.AppConfig.RedisAddr).Msg("Could not connect to Redis")
	}
	logger.Info().Str("addr", config.AppConfig.RedisAddr).Msg("Connected to Redis")
}

func CloseRedis() {
	if RDB != nil {
		RDB.Close()
		logger.Info().Msg("Redis connection closed")
	}
}
