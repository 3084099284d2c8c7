package main

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kryail/settlement/config"
	"github.com/kryail/settlement/db"
	"github.com/kryail/settlement/internal/ledger"
	"github.com/kryail/settlement/internal/notifier"
	"github.com/kryail/settlement/internal/provider"
	"github.com/kryail/settlement/internal/queue"
	"github.com/kryail/settlement/internal/repository"
	"github.com/kryail/settlement/internal/service"
	"github.com/kryail/settlement/utils"
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

	telegramBot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("Failed to create bot API: ", err)
	}

	enqueuer := queue.NewEnqueuer(cfg.RedisAddr, logger)
	defer enqueuer.Close()

	repo := repository.NewRepository(database, logger)
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, logger)
	svc := service.NewService(repo, ledger.NewLedger(database, logger), providerClient, providerClient, enqueuer, cfg.SettlementAsset, logger)
	notif := notifier.NewNotifier(telegramBot, repo, logger)

	worker := queue.NewWorker(cfg.RedisAddr, svc, notif, logger)
	logger.Info("Starting settlement worker...")
	if err := worker.Run(); err != nil {
		logger.Fatal(err)
	}
}
