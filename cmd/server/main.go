package main

import (
	"github.com/kryail/settlement/config"
	"github.com/kryail/settlement/db"
	"github.com/kryail/settlement/internal/idempotency"
	"github.com/kryail/settlement/internal/ledger"
	"github.com/kryail/settlement/internal/provider"
	"github.com/kryail/settlement/internal/queue"
	"github.com/kryail/settlement/internal/repository"
	"github.com/kryail/settlement/internal/server"
	"github.com/kryail/settlement/internal/service"
	"github.com/kryail/settlement/internal/webhook"
	"github.com/kryail/settlement/utils"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := utils.InitLogger()
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		logger.Fatal("Failed to load config: ", err)
	}

	database, err := db.ConnectDb(cfg.DBURL, logger)
	if err != nil {
		logger.Fatal(err)
	}

	if err := db.Migrate(database, true, logger); err != nil {
		logger.Fatal(err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	claims := idempotency.NewStore(redisClient)

	verifier, err := webhook.NewVerifier(cfg.WebhookPublicKey, logger)
	if err != nil {
		logger.Fatal("Failed to create webhook verifier: ", err)
	}

	enqueuer := queue.NewEnqueuer(cfg.RedisAddr, logger)
	defer enqueuer.Close()

	repo := repository.NewRepository(database, logger)
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, logger)
	svc := service.NewService(repo, ledger.NewLedger(database, logger), providerClient, providerClient, enqueuer, cfg.SettlementAsset, logger)

	srv := server.NewServer(verifier, claims, enqueuer, svc, logger)
	logger.Infof("Starting settlement API on %s", cfg.HTTPAddr)
	if err := srv.Run(cfg.HTTPAddr); err != nil {
		logger.Fatal(err)
	}
}
