package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/devprofile/adapters/event"
	"github.com/khoahotran/devprofile/adapters/github"
	httpAdapter "github.com/khoahotran/devprofile/adapters/http"
	"github.com/khoahotran/devprofile/adapters/media_storage"
	"github.com/khoahotran/devprofile/adapters/persistence"
	"github.com/khoahotran/devprofile/adapters/persistence/memory"
	"github.com/khoahotran/devprofile/adapters/persistence/mongodb"
	"github.com/khoahotran/devprofile/internal/application/service"
	authUC "github.com/khoahotran/devprofile/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/devprofile/internal/application/usecase/profile"
	userUC "github.com/khoahotran/devprofile/internal/application/usecase/user"
	"github.com/khoahotran/devprofile/internal/config"
	"github.com/khoahotran/devprofile/internal/domain/profile"
	"github.com/khoahotran/devprofile/internal/domain/user"
	"github.com/khoahotran/devprofile/pkg/auth"
	"github.com/khoahotran/devprofile/pkg/logger"
	"github.com/khoahotran/devprofile/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewZapLogger("development").Fatal("cannot load config", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start devprofile API Server...", zap.String("env", cfg.App.Env), zap.String("db_driver", cfg.DB.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp, err := tracing.NewTracerProvider(cfg, appLogger, "devprofile-api")
	if err != nil {
		appLogger.Fatal("cannot init tracer", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", err)
		}
	}()

	// Repositories
	userRepo, profileRepo, closeStore, err := openStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot open store", err, zap.String("driver", cfg.DB.Driver))
	}
	defer closeStore()

	revoker := newTokenRevoker(cfg, appLogger)

	var publisher service.EventPublisher = event.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("Kafka brokers not configured, account events are dropped")
	}

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Warn("Cloudinary not configured, avatar uploads disabled", zap.Error(err))
		uploader = media_storage.NewDisabledUploader()
	}
	repoLister := github.NewRepoLister(cfg, appLogger)

	// Use Cases
	profileUseCase := profileUC.NewProfileUseCase(profileRepo, userRepo, publisher, revoker, repoLister, jwtSvc.TokenLifespan(), appLogger)
	registerUseCase := authUC.NewRegisterUseCase(userRepo, jwtSvc, publisher, appLogger)
	loginUseCase := authUC.NewLoginUseCase(userRepo, jwtSvc, appLogger)
	currentUserUseCase := authUC.NewCurrentUserUseCase(userRepo)
	uploadAvatarUseCase := userUC.NewUploadAvatarUseCase(userRepo, uploader, publisher, appLogger)
	feedUseCase := profileUC.NewFeedUseCase(profileRepo, cfg.App.PublicURL, appLogger)

	// Rate limiting for the GitHub proxy
	githubLimiter := httpAdapter.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go githubLimiter.RunSweeper(5*time.Minute, ctx.Done())

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		ProfileHandler: httpAdapter.NewProfileHandler(profileUseCase, appLogger),
		AuthHandler:    httpAdapter.NewAuthHandler(registerUseCase, loginUseCase, currentUserUseCase, appLogger),
		UserHandler:    httpAdapter.NewUserHandler(uploadAvatarUseCase, appLogger),
		FeedHandler:    httpAdapter.NewFeedHandler(feedUseCase, appLogger),
		JWTService:     jwtSvc,
		Revoker:        revoker,
		GithubLimiter:  githubLimiter,
		Logger:         appLogger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, log logger.Logger) (user.Repository, profile.Repository, func(), error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory store, data is lost on restart")
		users := memory.NewUserRepository()
		return users, memory.NewProfileRepository(users), func() {}, nil

	case config.DriverMongo:
		db, err := mongodb.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Error("Failed to disconnect MongoDB", err)
			}
		}
		return mongodb.NewMongoUserRepo(db, log), mongodb.NewMongoProfileRepo(db, log), closeFn, nil

	default:
		dbPool, err := persistence.NewPostgresPool(cfg, log)
		if err != nil {
			return nil, nil, nil, err
		}
		return persistence.NewPostgresUserRepo(dbPool, log), persistence.NewPostgresProfileRepo(dbPool, log), dbPool.Close, nil
	}
}

// newTokenRevoker prefers Redis so revocations are shared between replicas.
func newTokenRevoker(cfg config.Config, log logger.Logger) service.TokenRevoker {
	if cfg.Redis.Addr == "" {
		log.Warn("Redis not configured, token revocation is process-local")
		return memory.NewTokenRevoker()
	}
	redisClient, err := persistence.NewRedisClient(cfg, log)
	if err != nil {
		log.Warn("Redis unavailable, token revocation bypassed", zap.Error(err))
		return persistence.NewRedisTokenRevoker(nil, log)
	}
	return persistence.NewRedisTokenRevoker(redisClient, log)
}
