package notifier

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/utils"
)

type UserGetter interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Sender is the telegram surface the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier consumes the notification queue and delivers prebuilt messages to
// the user's chat.
type Notifier struct {
	bot    Sender
	repo   UserGetter
	logger *utils.Logger
}

func NewNotifier(bot Sender, repo UserGetter, logger *utils.Logger) *Notifier {
	return &Notifier{bot: bot, repo: repo, logger: logger}
}

// Notify resolves the user and sends message. Users without a reachable chat
// are logged and dropped; delivery is fire-and-forget for the settlement core.
func (n *Notifier) Notify(ctx context.Context, userID uint, message string) error {
	user, err := n.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.TelegramChatID == 0 {
		n.logger.Warnf("User %d not found or has no chat id, dropping notification", userID)
		return nil
	}

	msg := tgbotapi.NewMessage(user.TelegramChatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Errorf("Failed to send notification to user %d: %v", userID, err)
		return err
	}

	n.logger.Infof("Notification sent to user %d", userID)
	return nil
}
