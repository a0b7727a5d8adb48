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

	"github.com/gunuduru/assignment-auth/internal/agegroup"
	"github.com/gunuduru/assignment-auth/internal/api"
	"github.com/gunuduru/assignment-auth/internal/buffer"
	"github.com/gunuduru/assignment-auth/internal/channel"
	"github.com/gunuduru/assignment-auth/internal/config"
	"github.com/gunuduru/assignment-auth/internal/metrics"
	"github.com/gunuduru/assignment-auth/internal/middleware"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/repository"
	"github.com/gunuduru/assignment-auth/internal/service"
	"github.com/gunuduru/assignment-auth/pkg/logger"

	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// 1. Infrastructure
	rdb, err := initRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}

	locker, err := initTickLocker(cfg.Etcd)
	if err != nil {
		return err
	}
	defer locker.Close()

	if err := api.RegisterValidators(); err != nil {
		return err
	}

	// 2. Repositories
	userRepo := repository.NewUserRepository(db)
	queueRepo := repository.NewMessageQueueRepository(db)
	sessionRepo := repository.NewSessionRepository(rdb)
	auditSvc := service.NewAuditService(repository.NewAuditRepository(db))

	// 3. Services
	observer := metrics.NewPrometheusObserver()
	hub := service.NewHub(observer, cfg.Stream.HubBufferSize)
	history := buffer.NewTickHistory(cfg.Dispatch.HistorySize)

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	authSvc := service.NewAuthService(userRepo, sessionRepo, hasher, service.AuthConfig{
		Secret:          []byte(cfg.Auth.Secret),
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	})
	adminSvc := service.NewAdminService(userRepo, sessionRepo, hasher, auditSvc)
	broadcastSvc := service.NewBroadcastService(userRepo, queueRepo, agegroup.NewClassifier(time.Now), observer, service.BroadcastConfig{
		Greeting:      cfg.Broadcast.Greeting,
		AvgThroughput: cfg.Dispatch.AvgThroughput,
		TickInterval:  cfg.Dispatch.Interval,
	})

	primary := channel.NewKakaoClient(cfg.Channels.Kakao.BaseURL, channel.Credentials{
		Username: cfg.Channels.Kakao.Username,
		Password: cfg.Channels.Kakao.Password,
	}, cfg.Channels.Kakao.Timeout)
	secondary := channel.NewSMSClient(cfg.Channels.SMS.BaseURL, channel.Credentials{
		Username: cfg.Channels.SMS.Username,
		Password: cfg.Channels.SMS.Password,
	}, cfg.Channels.SMS.Timeout)

	dispatcher := service.NewDispatcher(queueRepo, primary, secondary, service.DispatcherConfig{
		PrimaryBudget:   cfg.Dispatch.PrimaryBudget,
		SecondaryBudget: cfg.Dispatch.SecondaryBudget,
		TickTimeout:     cfg.Dispatch.TickTimeout,
	},
		service.WithTickLocker(locker),
		service.WithTickHistory(history),
		service.WithTickPublisher(hub),
		service.WithDispatchObserver(observer),
	)
	worker := service.NewDispatchWorker(dispatcher, cfg.Dispatch.Interval)

	// 4. Background routines
	go func() {
		logger.Info("starting hub")
		hub.Run()
	}()
	if cfg.Dispatch.AutoStart {
		if _, err := worker.Start(); err != nil {
			return err
		}
	}

	// 5. HTTP server
	r := api.RegisterRoutes(api.Handlers{
		Auth:    api.NewAuthHandler(authSvc),
		Admin:   api.NewAdminHandler(adminSvc, auditSvc),
		Message: api.NewMessageHandler(broadcastSvc, worker, history, auditSvc, cfg.Broadcast.MaxBodyLength),
		Stream:  api.NewStreamHandler(hub, history, cfg.Stream.HeartbeatInterval),
		Health:  api.NewHealthHandler(service.NewHealthService(db, rdb)),
	}, rdb, api.RouterConfig{
		TokenParser:       authSvc,
		Admin:             middleware.AdminCredentials{Username: cfg.Admin.Username, Password: cfg.Admin.Password},
		AllowOrigins:      cfg.CORS.AllowOrigins,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// stop ticking first so no new sends start while requests drain
	worker.Stop()
	hub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited properly")
	return nil
}

// -- Infrastructure Initializers --

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// initTickLocker returns a process-local lock unless etcd endpoints are configured.
func initTickLocker(cfg config.EtcdConfig) (repository.TickLocker, error) {
	if len(cfg.Endpoints) == 0 {
		logger.Info("etcd not configured, dispatch ticks are guarded in-process only")
		return repository.NewNoopLocker(), nil
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	locker, err := repository.NewEtcdTickLocker(client, cfg.LockKey, cfg.LockTTL, cfg.DialTimeout)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create etcd lock session: %w", err)
	}
	return &etcdLocker{EtcdTickLocker: locker, client: client}, nil
}

// etcdLocker closes the client together with the lock session.
type etcdLocker struct {
	*repository.EtcdTickLocker
	client *clientv3.Client
}

func (l *etcdLocker) Close() error {
	return errors.Join(l.EtcdTickLocker.Close(), l.client.Close())
}

func initDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		dialector = mysql.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	// Simple auto-migrate for dev convenience
	if err := db.AutoMigrate(&model.User{}, &model.PendingMessage{}, &model.AdminAudit{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
