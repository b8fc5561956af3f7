package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"campchat/backend/internal/botrouter"
	"campchat/backend/internal/chat"
	"campchat/backend/internal/config"
	"campchat/backend/internal/crypto"
	"campchat/backend/internal/keyvault"
	"campchat/backend/internal/storage"
	"campchat/backend/pkg/apperrors"
)

// botworker — окремий процес, що споживає потік bot_events і доставляє
// привітання/прощання та вебхук-події ботам груп.
func main() {
	log.Println("Starting CampChat bot worker...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Postgres.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", apperrors.ErrBrokerUnavailable(err))
	}

	s := storage.NewStorageService(db, rdb)

	masterKey, err := keyvault.LoadMasterKey(cfg.Vault.MasterKeyFile)
	if err != nil {
		log.Fatalf("Failed to load master key: %v", err)
	}
	vault := keyvault.New(s, masterKey)
	engine := crypto.NewEngine(vault, s)

	chatSvc := chat.NewService(s, vault, engine, cfg.Updates.PollInterval, cfg.Updates.MaxTimeout)
	webhooks := botrouter.NewWebhookClient(cfg.Webhook.ConnectTimeout, cfg.Webhook.TotalTimeout)
	router := botrouter.NewRouter(s, chatSvc, webhooks)

	consumer := "botworker-" + uuid.New().String()[:8]
	worker := botrouter.NewWorker(s, router, consumer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Bot worker stopped: %v", err)
	}
	log.Println("Bot worker shut down.")
}
