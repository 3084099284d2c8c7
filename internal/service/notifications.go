package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/internal/webhook"
	"github.com/kryail/settlement/utils"
	"github.com/shopspring/decimal"
)

// notifyTransaction enqueues a user-facing status message. Delivery is
// fire-and-forget: a failed enqueue is logged, never surfaced, so a
// notification problem can't fail a settled transaction.
func (s *Service) notifyTransaction(ctx context.Context, userID uint, txType, status string, amount decimal.Decimal, currency string) {
	message := transactionMessage(txType, status, amount, currency)
	if message == "" {
		return
	}

	if err := s.queue.EnqueueNotification(ctx, userID, message); err != nil {
		s.logger.Errorf("Failed to enqueue notification for user %d: %v", userID, err)
	}
}

// NotifyWebhookFailure sends the final user-facing message after a settlement
// job exhausts its retry budget. Best effort: an unresolvable event is only
// logged, the job is parked either way.
func (s *Service) NotifyWebhookFailure(ctx context.Context, event *webhook.Event) {
	data, err := event.Transaction()
	if err != nil {
		s.logger.Errorf("Cannot build failure notification: %v", err)
		return
	}

	user, err := s.repo.GetUserByProviderCustomerID(ctx, data.CustomerID)
	if err != nil || user == nil {
		s.logger.Errorf("Cannot resolve user for failure notification (customer %s)", data.CustomerID)
		return
	}

	txType := models.TxTypeWithdrawal
	switch strings.ToLower(data.Type) {
	case "deposit", "collection":
		txType = models.TxTypeDeposit
	}

	s.notifyTransaction(ctx, user.ID, txType, models.TxStatusFailed, data.Amount, data.Currency)
}

func transactionMessage(txType, status string, amount decimal.Decimal, currency string) string {
	formatted := utils.FormatAmount(amount)

	switch status {
	case models.TxStatusCompleted:
		switch txType {
		case models.TxTypeDeposit:
			return fmt.Sprintf("✅ *Deposit Confirmed*\n\nYour deposit of %s %s has been credited to your wallet.\n\nType *balance* to check your updated balance.", formatted, currency)
		case models.TxTypeWithdrawal:
			return fmt.Sprintf("✅ *Withdrawal Completed*\n\nYour withdrawal of %s %s has been processed successfully.\n\nThe funds should arrive in your account shortly.", formatted, currency)
		case models.TxTypeTransferOut:
			return fmt.Sprintf("✅ *Transfer Completed*\n\nYou successfully sent %s %s.\n\nType *balance* to check your updated balance.", formatted, currency)
		case models.TxTypeTransferIn:
			return fmt.Sprintf("💰 *Transfer Received*\n\nYou received %s %s.\n\nType *balance* to check your updated balance.", formatted, currency)
		}
	case models.TxStatusFailed:
		switch txType {
		case models.TxTypeDeposit:
			return fmt.Sprintf("❌ *Deposit Failed*\n\nYour deposit of %s %s could not be processed.\n\nPlease contact support for assistance.", formatted, currency)
		case models.TxTypeWithdrawal:
			return fmt.Sprintf("❌ *Withdrawal Failed*\n\nYour withdrawal of %s %s could not be processed.\n\nYour wallet has been refunded. Please try again or contact support.", formatted, currency)
		case models.TxTypeTransferOut:
			return fmt.Sprintf("❌ *Transfer Failed*\n\nYour transfer of %s %s could not be completed.\n\nPlease try again or contact support.", formatted, currency)
		}
	case models.TxStatusProcessing:
		if txType == models.TxTypeWithdrawal {
			return fmt.Sprintf("⏳ *Withdrawal Processing*\n\nYour withdrawal of %s %s is being processed.\n\nYou'll be notified when it's complete.", formatted, currency)
		}
	}

	return ""
}
