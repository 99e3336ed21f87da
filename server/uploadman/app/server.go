package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	commonauth "upload_server/server/common/auth"
	"upload_server/server/common/infra/cache"
	"upload_server/server/common/infra/db"
	"upload_server/server/common/infra/mq"
	"upload_server/server/common/infra/object"
	commonlog "upload_server/server/common/log"
	"upload_server/server/uploadman/api"
	"upload_server/server/uploadman/repository"
	"upload_server/server/uploadman/service"
)

type Server struct {
	HTTPServer *http.Server
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	MQConn     *amqp.Connection
	Publisher  *service.AMQPPublisher
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	minioClient, err := object.NewClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		return nil, fmt.Errorf("initialize minio: %w", err)
	}
	// Degraded mode, not fatal: the service keeps serving and every upload
	// fails with a storage error until the store is reachable.
	if err := object.EnsureBucket(ctx, minioClient, cfg.MinioBucket); err != nil {
		commonlog.Errorf("ensure bucket %q: %v; uploads will fail until object storage is reachable", cfg.MinioBucket, err)
	}
	store := object.NewStore(minioClient, cfg.MinioBucket, cfg.MinioPublicEndpoint)

	pool, err := db.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres: %w", err)
	}
	fileRepo := repository.NewFileRepository(pool)
	if err := fileRepo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure files schema: %w", err)
	}

	redisClient := cache.NewClient(cfg.RedisAddr)
	if err := cache.Ping(ctx, redisClient); err != nil {
		commonlog.Warnf("ping redis: %v; upload counters degraded until redis is reachable", err)
	}
	stats := service.NewStatsService(redisClient)

	var (
		mqConn    *amqp.Connection
		publisher *service.AMQPPublisher
	)
	if cfg.UseMQ {
		mqConn, err = mq.NewConnection(cfg.LavinMQURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("initialize lavinmq: %w", err)
		}
		publisher, err = service.NewAMQPPublisher(mqConn)
		if err != nil {
			_ = mqConn.Close()
			pool.Close()
			return nil, fmt.Errorf("initialize amqp publisher: %w", err)
		}
	}

	uploadSvc := service.NewUploadService(store, fileRepo, publisher, stats, cfg.StoreTimeout)
	authSvc := commonauth.NewService(cfg.JWTSecret)

	h := api.NewHandler(uploadSvc, stats, authSvc, cfg.MaxUploadBytes)
	r := gin.Default()
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		HTTPServer: httpServer,
		Pool:       pool,
		Redis:      redisClient,
		MQConn:     mqConn,
		Publisher:  publisher,
	}, nil
}

// Shutdown drains in-flight requests before closing the shared clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTPServer.Shutdown(ctx)
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.MQConn != nil {
		_ = s.MQConn.Close()
	}
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
	return err
}
