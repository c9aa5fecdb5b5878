package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weiawesome/wes-io-live/relationship-service/internal/config"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/consumer"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/handler"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/media"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/notifier"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/reconciler"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/repository"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/service"
	"github.com/weiawesome/wes-io-live/relationship-service/internal/store"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/database"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/jwt"
	pkglog "github.com/weiawesome/wes-io-live/relationship-service/pkg/log"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/pubsub"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/storage"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty || cfg.Log.Level == "debug",
		ServiceName: "relationship-service",
	})
	logger := pkglog.L()

	// 3. Init DB and migrate every relationship table
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
		SlowThreshold:   cfg.Database.SlowThreshold,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	repo := repository.NewGormStore(db)
	if cfg.Database.AutoMigrate {
		if err := repo.Migrate(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("failed to auto-migrate")
		}
		logger.Info().Msg("database migration completed")
	}

	// Debezium "d" events must carry the full before-row.
	if cfg.Database.Driver == "postgres" {
		if err := db.Exec(`ALTER TABLE user_counters REPLICA IDENTITY FULL`).Error; err != nil {
			logger.Warn().Err(err).Msg("could not set REPLICA IDENTITY FULL on user_counters")
		}
	}

	// 4. Init counts cache
	var cache store.CountsStore
	redisStore, err := store.NewRedisCountsStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CountTTL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, falling back to in-process counts cache")
		cache = store.NewMemoryCountsStore()
	} else {
		cache = redisStore
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	defer cache.Close()

	// 5. Init notifier
	var (
		n         notifier.Notifier = notifier.Nop{}
		publisher pubsub.Publisher
	)
	if cfg.Notifier.Driver != "none" {
		p, err := pubsub.NewPublisher(cfg.Notifier.PubSub())
		if err != nil {
			logger.Warn().Err(err).Str("driver", cfg.Notifier.Driver).Msg("failed to create publisher, notifications disabled")
		} else {
			publisher = p
			n = notifier.NewPubSubNotifier(p)
			logger.Info().Str("driver", cfg.Notifier.Driver).Msg("notification publisher ready")
		}
	}

	// 6. Init media signer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var signer media.Signer
	objects, err := storage.New(ctx, cfg.Storage.Backend())
	if err != nil {
		logger.Warn().Err(err).Str("type", cfg.Storage.Type).Msg("failed to init storage, profile pictures unsigned")
	} else {
		signer = media.NewStorageSigner(objects, cfg.Storage.URLExpiry)
	}

	// 7. Create services
	counters := reconciler.NewCounters()
	opts := []service.Option{service.WithNotifyTimeout(cfg.Notifier.Timeout)}
	lists := service.NewListService(repo, signer, cfg.Pagination)
	counts := service.NewCountsService(repo, cache)
	svc := handler.Services{
		Follow:   service.NewFollowService(repo, counters, cache, n, opts...),
		Friend:   service.NewFriendService(repo, counters, cache, n, opts...),
		Block:    service.NewBlockService(repo, counters, cache, n, opts...),
		Lists:    lists,
		Counts:   counts,
		Profiles: service.NewProfileService(repo, counts, lists, signer),
	}

	// 8. Create JWT auth middleware
	verifier, err := jwt.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token verifier")
	}
	authMiddleware := middleware.NewAuthMiddleware(verifier)

	// 9. Init Kafka CDC consumer
	var kafkaConsumer *consumer.ConfluentConsumer
	if cfg.Kafka.Brokers != "" {
		kc, err := consumer.NewConfluentConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, counts)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create kafka consumer, CDC updates disabled")
		} else if err := kc.Start(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to start kafka consumer")
		} else {
			kafkaConsumer = kc
			logger.Info().Str("topic", cfg.Kafka.Topic).Msg("kafka CDC consumer started")
		}
	} else {
		logger.Warn().Msg("KAFKA_BROKERS not configured; CDC consumer disabled")
	}

	// 10. Init reconciler and start
	rec := reconciler.New(cache, repo, counters, cfg.Reconciler)
	rec.Start(ctx)
	logger.Info().Dur("interval", cfg.Reconciler.Interval).Int("top_n", cfg.Reconciler.TopN).Int("sweep_batch", cfg.Reconciler.SweepBatch).Msg("reconciler started")

	// 11. Setup Gin router + HTTP server
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.NewHandler(svc, authMiddleware).RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg("relationship-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 12. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		// Drain HTTP first so no transition commits after its notifier closes.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}

		cancel()

		if kafkaConsumer != nil {
			if err := kafkaConsumer.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing kafka consumer")
			}
		}

		rec.Stop()
		<-rec.Done()

		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing publisher")
			}
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("relationship-service stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
