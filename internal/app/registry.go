package app

import (
	"net/http"

	"go-ees/internal/config"
	"go-ees/internal/employee"
	"go-ees/internal/mediator"
	"go-ees/internal/messaging/kafka"
	"go-ees/internal/middleware"
	"go-ees/internal/notification"
	"go-ees/internal/shared/response"
	"go-ees/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func registerModules(
	router *gin.Engine,
	cfg config.Config,
	infra *Infrastructure,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	employeeRepo := employee.NewRepository(infra.GormDB)
	var outboxRepo kafka.OutboxRepository
	if infra.Kafka != nil {
		outboxRepo = kafka.NewOutboxRepository(infra.SQLDB)
	}

	// --- Alerts ---
	sinks := []notification.Sink{notification.NewLogSink(cfg.AlertRecipient, logger)}
	if infra.Kafka != nil {
		sinks = append(sinks, notification.NewKafkaSink(infra.Kafka, cfg.KafkaAlertTopic))
	}
	alerts := notification.Multi(sinks...)

	// --- Pipeline ---
	stage := validation.NewStage()
	employee.RegisterRules(stage)

	builder := mediator.NewBuilder().Use(
		mediator.LoggingBehavior(logger),
		mediator.ValidationBehavior(stage),
	)
	employee.RegisterHandlers(builder, employee.Dependencies{
		DB:     infra.SQLDB,
		Repo:   employeeRepo,
		Outbox: outboxRepo,
		Cache:  employee.NewListCache(infra.Redis, cfg.ListCacheTTL, logger),
		Logger: logger,
	})
	m, err := builder.Build(employee.Requests()...)
	if err != nil {
		return err
	}

	// --- Handlers ---
	employeeHandler := employee.NewHandler(m, logger)

	// --- Routes ---
	router.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.RequestID())
	api.Use(middleware.ContextLogger(logger))
	api.Use(middleware.ExceptionBoundary(alerts, cfg.AlertTimeout, logger))

	employee.RegisterRoutes(api, employeeHandler, rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	return nil
}
