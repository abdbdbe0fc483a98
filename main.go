package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/asset-inventory-backend/controllers"
	"github.com/yashrajoria/asset-inventory-backend/database"
	"github.com/yashrajoria/asset-inventory-backend/middleware"
	"github.com/yashrajoria/asset-inventory-backend/pkg/apperrors"
	aws_pkg "github.com/yashrajoria/asset-inventory-backend/pkg/aws"
	ddb "github.com/yashrajoria/asset-inventory-backend/pkg/dynamodb"
	"github.com/yashrajoria/asset-inventory-backend/pkg/logger"
	"github.com/yashrajoria/asset-inventory-backend/repository"
	"github.com/yashrajoria/asset-inventory-backend/routes"
	"github.com/yashrajoria/asset-inventory-backend/services"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	// --- AWS setup ---
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var cwWriter io.Writer
	if awsErr == nil {
		if cw, err := aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName); err == nil && cw.IsEnabled() {
			cwWriter = cw
		}
	}

	zapLogger, err := logger.New(getEnv("ENV", "development"), cwWriter)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	if awsErr != nil {
		zapLogger.Warn("Failed to load AWS config (non-fatal)", zap.Error(awsErr))
	}

	cfg, err := LoadConfig(zapLogger)
	if err != nil {
		zapLogger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Databases ---
	mongoDB, err := database.ConnectMongo(cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		zapLogger.Fatal("MongoDB connection failed", zap.Error(err))
	}

	rdb, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Redis connection failed", zap.Error(err))
	}

	// --- Repositories ---
	assetRepo := repository.NewAssetRepository(mongoDB.DB, database.AssetsCollection)
	roomRepo := repository.NewRoomRepository(mongoDB.DB, database.RoomsCollection)

	idxCtx, idxCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := assetRepo.EnsureIndexes(idxCtx); err != nil {
		zapLogger.Warn("Failed to ensure asset indexes", zap.Error(err))
	}
	if err := roomRepo.EnsureIndexes(idxCtx); err != nil {
		zapLogger.Warn("Failed to ensure room indexes", zap.Error(err))
	}
	idxCancel()

	deps := services.ImportDeps{Assets: assetRepo, Rooms: roomRepo}
	if cfg.CampusLock {
		deps.Locker = repository.NewCampusLocker(rdb, 0)
	}

	var (
		fileStore     repository.ImportFileStore
		metricsClient *aws_pkg.MetricsClient
	)
	if awsErr == nil {
		ddbClient := ddb.NewClientFromConfig(awsCfg)
		if aws_pkg.UsesCustomEndpoint() {
			if err := ddb.EnsureHistoryTable(ctx, ddbClient, cfg.HistoryTable); err != nil {
				zapLogger.Warn("Failed to ensure import history table", zap.Error(err))
			}
		}
		deps.History = repository.NewImportHistoryRepository(ddbClient, cfg.HistoryTable)

		metricsClient = aws_pkg.NewMetricsClient(awsCfg)
		deps.Notifier = services.NewImportNotifier(aws_pkg.NewSNSClient(awsCfg), cfg.ImportSNSTopicARN, metricsClient, zapLogger)

		if cfg.StorageBucket != "" {
			fileStore = aws_pkg.NewS3ObjectStore(aws_pkg.NewS3Client(awsCfg), cfg.StorageBucket, "asset-imports")
		}
	}
	if fileStore == nil {
		local, err := repository.NewLocalFileStore(cfg.StorageDir)
		if err != nil {
			zapLogger.Fatal("Failed to prepare import storage", zap.Error(err))
		}
		fileStore = local
	}

	// --- Services ---
	importService := services.NewAssetImportService(deps, cfg.ImportOptions(), zapLogger)
	jobStore := repository.NewImportJobStore(rdb)
	jobService := services.NewImportJobService(jobStore, fileStore, zapLogger)

	workerCtx, stopWorker := context.WithCancel(ctx)
	services.NewImportWorker(jobStore, fileStore, importService, zapLogger).Start(workerCtx)

	importController := controllers.NewAssetImportController(
		importService,
		jobService,
		controllers.NewRequestValidator(cfg.MaxUploadMB),
		zapLogger,
	)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterImportRoutes(r, importController, cfg.JWTSecret)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		zapLogger.Info("Asset Import Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Initiating graceful shutdown...")
	stopWorker()

	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		zapLogger.Error("Server shutdown error", zap.Error(err))
	}
	if err := rdb.Close(); err != nil {
		zapLogger.Error("Redis close error", zap.Error(err))
	}
	if err := mongoDB.Close(); err != nil {
		zapLogger.Error("MongoDB close error", zap.Error(err))
	}

	log.Println("Asset Import Service stopped gracefully")
}
