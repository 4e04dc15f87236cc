package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/spaces-backend/internal/config"
	"github.com/ignatzorin/spaces-backend/internal/db"
	"github.com/ignatzorin/spaces-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/spaces-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/spaces-backend/internal/http/router"
	"github.com/ignatzorin/spaces-backend/internal/logger"
	"github.com/ignatzorin/spaces-backend/internal/repository"
	"github.com/ignatzorin/spaces-backend/internal/repository/embedded"
	"github.com/ignatzorin/spaces-backend/internal/service"
	"github.com/ignatzorin/spaces-backend/internal/storage"
	"github.com/ignatzorin/spaces-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
	}
	logger.Init(logLevel, cfg.Env == "development")

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	quarantine, err := storage.NewQuarantineStorage(cfg.QuarantineRoot, cfg.PublicMediaRoot, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Вебсокеты: лента событий для модераторов.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)
	defer hub.Stop()

	var (
		dbConn            *sqlx.DB
		authHandler       *httpHandlers.AuthHandler
		mediaHandler      *httpHandlers.MediaHandler
		moderationHandler *httpHandlers.ModerationHandler
		reportService     *service.ReportService
	)

	if cfg.SharedStoreConfigured() {
		// Общий durable backend: полный конвейер загрузки и модерации.
		dbConn, err = db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			log.Fatalf("main: ошибка миграций: %v", err)
		}

		userRepo := repository.NewUserRepository(dbConn)
		quotaRepo := repository.NewQuotaRepository(dbConn)
		mediaRepo := repository.NewMediaRepository(dbConn)
		queueRepo := repository.NewQueueRepository(dbConn)
		reportRepo := repository.NewReportRepository(dbConn)
		removalRepo := repository.NewRemovalRepository(dbConn)

		authService := service.NewAuthService(userRepo, tokenManager)
		uploadService := service.NewUploadService(userRepo, quotaRepo, mediaRepo, quarantine, cfg.MaxUploadsPerDay)
		moderationService := service.NewModerationService(mediaRepo, queueRepo, userRepo, quarantine)
		moderationService.SetEvents(ws.NewEventsAdapter(hub))
		reportService = service.NewReportService(reportRepo, removalRepo)

		authHandler = httpHandlers.NewAuthHandler(authService)
		mediaHandler = httpHandlers.NewMediaHandler(uploadService, moderationService)
		moderationHandler = httpHandlers.NewModerationHandler(moderationService)

		// Фоновая уборка осиротевших processing-записей и объектов карантина.
		reconciler := service.NewReconciler(mediaRepo, quarantine, cfg.StaleProcessingAge, cfg.ReconcileInterval)
		goroutine.SafeGoWithContext(ctx, reconciler.Run)
	} else {
		// Локальный режим: жалобы и набор скрытых постов живут в embedded базе,
		// конвейер загрузки недоступен до конфигурации общего backend'а.
		log.Printf("main: DATABASE_URL не задан, очередь жалоб работает в embedded режиме (%s)", cfg.EmbeddedDBPath)

		embeddedDB, err := db.NewEmbedded(cfg.EmbeddedDBPath)
		if err != nil {
			log.Fatalf("main: ошибка открытия embedded базы: %v", err)
		}
		defer safeClose(embeddedDB)

		store := embedded.NewReportStore(embeddedDB)
		reportService = service.NewReportService(store, store)
	}

	reportService.SetEvents(ws.NewEventsAdapter(hub))

	reportHandler := httpHandlers.NewReportHandler(reportService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	engine := httpRouter.SetupRouter(cfg, authHandler, mediaHandler, moderationHandler, reportHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	})

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
