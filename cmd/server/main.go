package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/playschool-admin/api/swagger"
	"github.com/noah-isme/playschool-admin/internal/handler"
	internalmiddleware "github.com/noah-isme/playschool-admin/internal/middleware"
	"github.com/noah-isme/playschool-admin/internal/models"
	"github.com/noah-isme/playschool-admin/internal/repository"
	"github.com/noah-isme/playschool-admin/internal/service"
	"github.com/noah-isme/playschool-admin/pkg/cache"
	"github.com/noah-isme/playschool-admin/pkg/config"
	"github.com/noah-isme/playschool-admin/pkg/database"
	"github.com/noah-isme/playschool-admin/pkg/logger"
	corsmiddleware "github.com/noah-isme/playschool-admin/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/playschool-admin/pkg/middleware/requestid"
)

// @title Playschool Admin API
// @version 1.0.0
// @description Back office for a pre-school: students, staff, fee invoices, expenses and dashboard statistics.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const applicationName = "playschool-admin"

type backends struct {
	store   service.DocumentGateway
	users   userStore
	cleanup []func()
}

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	for _, warning := range cfg.Warnings() {
		logr.Warn("config", zap.String("warning", warning))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open document store", zap.Error(err))
	}
	defer b.close()

	allocator, closeAllocator, err := newAllocator(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init invoice sequence", zap.Error(err))
	}
	defer closeAllocator()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(b.users, validate, logr, service.AuthConfig{
		Secret:        cfg.Store.APIKey,
		SessionExpiry: cfg.Session.Expiration,
		Issuer:        applicationName,
	})

	state := service.NewAppState(service.AppStateParams{
		Store:     b.store,
		Identity:  authSvc,
		Allocator: allocator,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	})
	if err := state.Initialize(ctx); err != nil {
		logr.Fatal("failed to initialise dashboard state", zap.Error(err))
	}
	defer state.Close()

	seedSvc := service.NewSeedService(state, logr)
	if cfg.SeedOnStart {
		go seedOnStart(ctx, state, seedSvc, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, state)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Auth:      handler.NewAuthHandler(authSvc, state),
		Students:  handler.NewStudentHandler(state),
		Staff:     handler.NewStaffHandler(state),
		Invoices:  handler.NewInvoiceHandler(state),
		Expenses:  handler.NewExpenseHandler(state),
		Dashboard: handler.NewDashboardHandler(state),
		Reports:   handler.NewReportHandler(service.NewExportService(state, logr, nil, nil)),
		Admin:     handler.NewAdminHandler(seedSvc),
	}.Register(r.Group(cfg.APIPrefix), internalmiddleware.JWT(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openBackends(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*backends, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logr.Warn("using in-memory document store; data is lost on restart")
		return &backends{
			store: repository.NewMemoryDocumentStore(),
			users: repository.NewMemoryUserRepository(),
		}, nil
	}

	dsn := database.DSN(cfg.Database, applicationName)
	db, err := database.NewPostgres(dsn, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	docs := repository.NewDocumentRepository(db)
	listener := repository.NewListener(dsn, cfg.Store.ListenerMinReconnect, cfg.Store.ListenerMaxReconnect, logr)
	feed := repository.NewDocumentFeed(docs, listener, logr)
	if err := feed.Start(); err != nil {
		_ = feed.Close()
		_ = db.Close()
		return nil, fmt.Errorf("listen for document changes: %w", err)
	}
	go feed.Run(ctx)

	return &backends{
		store: repository.NewPostgresDocumentStore(docs, feed),
		users: repository.NewUserRepository(db),
		cleanup: []func(){
			func() { _ = feed.Close() },
			func() { _ = db.Close() },
		},
	}, nil
}

func (b *backends) close() {
	for _, fn := range b.cleanup {
		fn()
	}
}

func newAllocator(ctx context.Context, cfg *config.Config, logr *zap.Logger) (service.DisplayIDAllocator, func(), error) {
	if cfg.Invoices.SequenceBackend != config.SequenceBackendRedis {
		return service.SnapshotAllocator{}, func() {}, nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	logr.Info("invoice display ids reserved through redis", zap.String("addr", client.Options().Addr))
	allocator := service.NewSequenceAllocator(repository.NewSequenceRepository(client))
	return allocator, func() { _ = client.Close() }, nil
}

func seedOnStart(ctx context.Context, state *service.AppState, seeds *service.SeedService, logr *zap.Logger) {
	if err := state.WaitUntilLoaded(ctx); err != nil {
		return
	}
	if total := len(state.Students(models.StudentFilter{})); total > 0 {
		logr.Info("skipping seed; students already present", zap.Int("students", total))
		return
	}
	if _, err := seeds.Seed(ctx); err != nil {
		logr.Error("seed on start failed", zap.Error(err))
	}
}
