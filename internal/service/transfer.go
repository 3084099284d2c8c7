package service

import (
	"context"
	"fmt"

	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/utils"
	"github.com/shopspring/decimal"
)

// StartSend performs a synchronous peer transfer: debit sender, lazily create
// the recipient wallet, credit recipient, and write both transaction records
// inside one atomic unit.
func (s *Service) StartSend(ctx context.Context, userID uint, amount decimal.Decimal, currency, recipientPhone string) (string, error) {
	if amount.Sign() <= 0 {
		return "", models.ErrInvalidAmount
	}

	sender, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if sender == nil {
		return "", models.ErrUserNotFound
	}

	recipient, err := s.repo.GetUserByPhone(ctx, recipientPhone)
	if err != nil {
		return "", err
	}
	if recipient == nil {
		return "", models.ErrRecipientNotFound
	}
	if recipient.ID == userID {
		return "", models.ErrSelfTransfer
	}

	outEntry := &models.Transaction{
		UserID:    userID,
		Type:      models.TxTypeTransferOut,
		Amount:    amount,
		Currency:  currency,
		Status:    models.TxStatusCompleted,
		Reference: utils.GenerateReference("SEND"),
		Narration: fmt.Sprintf("Sent to %s", recipient.FirstName),
	}
	inEntry := &models.Transaction{
		UserID:    recipient.ID,
		Type:      models.TxTypeTransferIn,
		Amount:    amount,
		Currency:  currency,
		Status:    models.TxStatusCompleted,
		Reference: utils.GenerateReference("RCV"),
		Narration: fmt.Sprintf("Received from %s", sender.FirstName),
	}

	if err := s.ledger.Transfer(ctx, userID, recipient.ID, currency, amount, outEntry, inEntry); err != nil {
		return "", err
	}

	s.notifyTransaction(ctx, userID, models.TxTypeTransferOut, models.TxStatusCompleted, amount, currency)
	s.notifyTransaction(ctx, recipient.ID, models.TxTypeTransferIn, models.TxStatusCompleted, amount, currency)

	return fmt.Sprintf("✅ Successfully sent %s %s to %s.", utils.FormatAmount(amount), currency, recipient.FirstName), nil
}
