package app

import (
	"database/sql"

	"go-ees/internal/config"
	"go-ees/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infrastructure holds the shared connection pools. Redis and Kafka are nil
// when not configured.
type Infrastructure struct {
	GormDB *gorm.DB
	SQLDB  *sql.DB
	Redis  *redis.Client
	Kafka  *kafkago.Writer
}

func (i *Infrastructure) Close() {
	if i.Kafka != nil {
		_ = i.Kafka.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.SQLDB != nil {
		_ = i.SQLDB.Close()
	}
}

// BuildApp connects the infrastructure and mounts every route on router. The
// caller closes the returned Infrastructure on shutdown.
func BuildApp(router *gin.Engine, cfg config.Config) (*Infrastructure, error) {
	logger := zap.L().Named("app")

	infra, err := connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := registerModules(router, cfg, infra, logger); err != nil {
		infra.Close()
		return nil, err
	}
	return infra, nil
}

func connect(cfg config.Config, logger *zap.Logger) (*Infrastructure, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Postgres, cfg.DBMaxRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	infra := &Infrastructure{GormDB: gormDB, SQLDB: sqlDB}
	logger.Info("database connection established")

	if cfg.RedisAddr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.DBMaxRetries)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Redis = rdb
		logger.Info("redis connection established")
	} else {
		logger.Warn("REDIS_ADDR not set, employee list cache disabled")
	}

	if cfg.KafkaBroker != "" {
		writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.DBMaxRetries)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Kafka = writer
		logger.Info("kafka connection established")
	} else {
		logger.Warn("KAFKA_BROKER not set, kafka alerts and outbox disabled")
	}

	return infra, nil
}
