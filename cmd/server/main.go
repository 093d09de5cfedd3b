package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/skillmarket-backend/internal/config"
	"github.com/ignatzorin/skillmarket-backend/internal/db"
	"github.com/ignatzorin/skillmarket-backend/internal/gateway"
	httpHandlers "github.com/ignatzorin/skillmarket-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/skillmarket-backend/internal/http/router"
	"github.com/ignatzorin/skillmarket-backend/internal/logger"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
	"github.com/ignatzorin/skillmarket-backend/internal/service"
	"github.com/ignatzorin/skillmarket-backend/internal/storage"
	"github.com/ignatzorin/skillmarket-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	certStorage, err := storage.NewCertificateStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Общий HTTP-клиент для внешних шлюзов.
	gatewayClient := &http.Client{Timeout: cfg.GatewayTimeout}
	paymentGateway := gateway.NewPaymentClient(cfg.PaymentBaseURL, cfg.PaymentKeyID, cfg.PaymentKeySecret, gatewayClient)
	certGateway := gateway.NewCertificationClient(cfg.CertBaseURL, gatewayClient)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	contractRepo := repository.NewContractRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	userService := service.NewUserService(userRepo)
	jobService := service.NewJobService(jobRepo, contractRepo, userRepo)
	contractService := service.NewContractService(contractRepo, userRepo)
	paymentService := service.NewPaymentService(contractRepo, userRepo, paymentGateway)
	certificationService := service.NewCertificationService(userRepo, certGateway, certStorage)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Hub рассылает события о заявках, контрактах и оплатах.
	jobService.SetNotifier(hub)
	contractService.SetNotifier(hub)
	paymentService.SetNotifier(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(userService)
	jobHandler := httpHandlers.NewJobHandler(jobService)
	contractHandler := httpHandlers.NewContractHandler(contractService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	certificationHandler := httpHandlers.NewCertificationHandler(certificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, profileHandler, jobHandler, contractHandler, paymentHandler, certificationHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

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
