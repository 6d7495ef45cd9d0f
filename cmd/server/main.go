package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/farm-market-backend/internal/config"
	"github.com/ignatzorin/farm-market-backend/internal/db"
	"github.com/ignatzorin/farm-market-backend/internal/export"
	"github.com/ignatzorin/farm-market-backend/internal/goroutine"
	httpRouter "github.com/ignatzorin/farm-market-backend/internal/http/router"
	"github.com/ignatzorin/farm-market-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/farm-market-backend/internal/interface/http/handler"
	"github.com/ignatzorin/farm-market-backend/internal/logger"
	"github.com/ignatzorin/farm-market-backend/internal/service"
	"github.com/ignatzorin/farm-market-backend/internal/storage"
	"github.com/ignatzorin/farm-market-backend/internal/usecase/listing"
	"github.com/ignatzorin/farm-market-backend/internal/usecase/offer"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.IsProduction() {
		logger.Init("info")
	} else {
		logger.Init("debug")
		logger.SetTextFormatter()
	}

	// Подключение к базе и миграции.
	dbConn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, db.MigrationsDir(cfg.MigrationsPath, cfg.DatabaseDriver)); err != nil {
		logger.Log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	imageStorage, err := storage.NewImageStorage(cfg.UploadsPath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.Log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := persistence.NewUserRepositoryAdapter(dbConn)
	listingRepo := persistence.NewListingRepositoryAdapter(dbConn)
	offerRepo := persistence.NewOfferRepositoryAdapter(dbConn)

	// Сервисы и сценарии.
	authService := service.NewAuthService(userRepo, tokenManager)

	listingHandler := handler.NewListingHandler(
		listing.NewCreateListingUseCase(listingRepo),
		listing.NewGetListingUseCase(listingRepo),
		listing.NewSearchListingsUseCase(listingRepo),
		listing.NewListMyListingsUseCase(listingRepo),
		listing.NewUpdateListingUseCase(listingRepo),
		listing.NewDeleteListingUseCase(listingRepo, imageStorage),
		listing.NewSetListingImageUseCase(listingRepo, imageStorage),
		imageStorage.MaxUploadBytes(),
	)

	offerHandler := handler.NewOfferHandler(
		offer.NewCreateOfferUseCase(offerRepo, listingRepo),
		offer.NewAcceptOfferUseCase(offerRepo, listingRepo),
		offer.NewRejectOfferUseCase(offerRepo, listingRepo),
		offer.NewGetOfferUseCase(offerRepo),
		offer.NewListReceivedOffersUseCase(offerRepo),
		offer.NewListSentOffersUseCase(offerRepo),
		offer.NewExportReceivedOffersUseCase(offerRepo, export.NewOffersWorkbook()),
	)

	// Роутер.
	engine := httpRouter.SetupRouter(
		cfg,
		tokenManager,
		handler.NewAuthHandler(authService),
		listingHandler,
		offerHandler,
		handler.NewHealthHandler(dbConn),
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	serverErr := make(chan error, 1)
	goroutine.SafeGo(func() {
		logger.Log.Infof("main: HTTP сервер запущен на порту %s (%s)", cfg.HTTPPort, cfg.DatabaseDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	})

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Log.Errorf("main: сервер завершился с ошибкой: %v", err)
	}

	// Завершаем сервер при получении сигнала.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("main: ошибка остановки http сервера: %v", err)
	}
	logger.Log.Info("main: сервер остановлен")
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.Errorf("main: ошибка закрытия базы: %v", err)
	}
}
