package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"campchat/backend/internal/api/handler"
	"campchat/backend/internal/botrouter"
	"campchat/backend/internal/chat"
	"campchat/backend/internal/chathub"
	"campchat/backend/internal/config"
	"campchat/backend/internal/crypto"
	"campchat/backend/internal/keyvault"
	"campchat/backend/internal/storage"
	"campchat/backend/pkg/apperrors"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Перевірка з'єднання Redis
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", apperrors.ErrCacheUnavailable(err))
	}

	log.Println("Database and Redis connections established.")
	return db, rdb
}

func main() {
	log.Println("Starting CampChat Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)
	if err := s.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// 2. Ключі та шифрування
	masterKey, err := keyvault.LoadMasterKey(cfg.Vault.MasterKeyFile)
	if err != nil {
		log.Fatalf("Failed to load master key: %v", err)
	}
	vault := keyvault.New(s, masterKey)
	engine := crypto.NewEngine(vault, s)

	// 3. Доменні сервіси
	chatSvc := chat.NewService(s, vault, engine, cfg.Updates.PollInterval, cfg.Updates.MaxTimeout)
	webhooks := botrouter.NewWebhookClient(cfg.Webhook.ConnectTimeout, cfg.Webhook.TotalTimeout)
	router := botrouter.NewRouter(s, chatSvc, webhooks)
	chatSvc.SetDispatcher(router)

	// 4. Realtime-хаб
	hub := chathub.NewManagerService()
	go hub.Run() // Головний диспетчер

	auth := handler.NewAuthService(cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	gateway := chathub.NewGateway(chatSvc, s, hub, auth)

	// 5. Налаштування Gin та роутингу
	r := gin.Default()
	h := handler.NewHandler(chatSvc, s, hub, gateway, auth)
	h.RegisterRoutes(r)

	// Запуск HTTP-сервера
	server := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        r,
		ReadTimeout:    90 * time.Second, // long-poll /api/updates тримає з'єднання
		WriteTimeout:   90 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
