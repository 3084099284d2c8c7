package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/internal/webhook"
	"github.com/kryail/settlement/utils"
)

// ProcessWebhookEvent is the routing step used by the queue worker. Event
// names and transaction types are matched exhaustively; unrecognized tags are
// a structural-validation failure, not a silent skip.
func (s *Service) ProcessWebhookEvent(ctx context.Context, event *webhook.Event) error {
	switch event.Name {
	case webhook.EventTransactionCreated:
		return s.HandleTransactionCreated(ctx, event)
	case webhook.EventTransactionUpdated:
		return s.handleTransactionUpdated(ctx, event)
	default:
		return fmt.Errorf("%w: %s", models.ErrUnknownEvent, event.Name)
	}
}

func (s *Service) handleTransactionUpdated(ctx context.Context, event *webhook.Event) error {
	data, err := event.Transaction()
	if err != nil {
		return err
	}

	switch strings.ToLower(data.Type) {
	case "deposit", "collection":
		return s.HandleDepositUpdate(ctx, event)
	case "withdrawal", "payout", "transfer":
		return s.HandleWithdrawalUpdate(ctx, event)
	default:
		return fmt.Errorf("%w: transaction type %q", models.ErrUnknownEvent, data.Type)
	}
}

// HandleDepositUpdate settles a confirmed inbound payment: convert the
// received amount into the settlement asset and credit the wallet once. The
// source amount and rate are preserved in the narration for audit.
func (s *Service) HandleDepositUpdate(ctx context.Context, event *webhook.Event) error {
	data, err := event.Transaction()
	if err != nil {
		return err
	}

	if data.Status != "successful" && data.Status != "completed" {
		s.logger.Infof("Ignoring deposit %s with non-final status %s", data.ID, data.Status)
		return nil
	}

	s.logger.Infof("Processing deposit webhook for tx: %s", data.ID)

	existing, err := s.repo.GetTransactionByProviderTxID(ctx, data.ID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Status == models.TxStatusCompleted {
		s.logger.Infof("Transaction %s already processed, skipping", data.ID)
		return nil
	}

	user, err := s.repo.GetUserByProviderCustomerID(ctx, data.CustomerID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: provider customer %s", models.ErrUserNotFound, data.CustomerID)
	}

	quotes, err := s.rates.GetRates(ctx, s.settlementAsset, []string{data.Currency})
	if err != nil {
		return err
	}
	rate := quotes[data.Currency]
	// A zero or negative quote is a broken oracle response; fail the job so
	// the queue retries, never divide by it.
	if rate.Sign() <= 0 {
		return fmt.Errorf("invalid %s/%s rate %s for deposit %s", data.Currency, s.settlementAsset, rate, data.ID)
	}
	creditAmount := data.Amount.Div(rate)

	providerTxID := data.ID
	entry := &models.Transaction{
		UserID:       user.ID,
		ProviderTxID: &providerTxID,
		Type:         models.TxTypeDeposit,
		Amount:       creditAmount,
		Currency:     s.settlementAsset,
		Status:       models.TxStatusCompleted,
		Reference:    "DEP-" + data.ID,
		Narration:    fmt.Sprintf("Deposit of %s %s @ %s %s/%s", data.Amount, data.Currency, rate, data.Currency, s.settlementAsset),
	}

	if err := s.ledger.Credit(ctx, user.ID, s.settlementAsset, creditAmount, entry); err != nil {
		if err == models.ErrAlreadySettled {
			return nil
		}
		return err
	}

	s.notifyTransaction(ctx, user.ID, models.TxTypeDeposit, models.TxStatusCompleted, creditAmount, s.settlementAsset)
	s.logger.Infof("Deposit processed for user %d: +%s %s", user.ID, creditAmount, s.settlementAsset)
	return nil
}

// HandleWithdrawalUpdate applies a payout status change. A terminal failure
// refunds the held amount; the status check against the stored record makes
// redeliveries no-ops beneath the idempotency claim.
func (s *Service) HandleWithdrawalUpdate(ctx context.Context, event *webhook.Event) error {
	data, err := event.Transaction()
	if err != nil {
		return err
	}

	tx, err := s.repo.GetTransactionByProviderTxID(ctx, data.ID)
	if err != nil {
		return err
	}
	if tx == nil {
		s.logger.Warnf("Transaction not found for withdrawal update: %s", data.ID)
		return nil
	}

	status, err := normalizeStatus(data.Status)
	if err != nil {
		return err
	}
	if tx.Status == status || tx.IsTerminal() {
		return nil
	}

	switch status {
	case models.TxStatusFailed:
		if err := s.ledger.Refund(ctx, tx); err != nil {
			if err == models.ErrAlreadySettled {
				return nil
			}
			return err
		}
		s.logger.Infof("Refunded %s %s to user %d", tx.Amount, tx.Currency, tx.UserID)
	default:
		if err := s.repo.UpdateTransactionStatus(ctx, tx.ID, status); err != nil {
			return err
		}
	}

	s.notifyTransaction(ctx, tx.UserID, models.TxTypeWithdrawal, status, tx.Amount, tx.Currency)
	return nil
}

// HandleTransactionCreated records a provider-initiated transaction for
// bookkeeping, idempotent on the provider reference.
func (s *Service) HandleTransactionCreated(ctx context.Context, event *webhook.Event) error {
	data, err := event.Transaction()
	if err != nil {
		return err
	}

	existing, err := s.repo.GetTransactionByProviderTxID(ctx, data.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		s.logger.Infof("Transaction %s already exists, skipping creation", data.ID)
		return nil
	}

	user, err := s.repo.GetUserByProviderCustomerID(ctx, data.CustomerID)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.Errorf("User with provider customer id %s not found", data.CustomerID)
		return nil
	}

	txType := strings.ToLower(data.Type)
	switch txType {
	case "collection":
		txType = models.TxTypeDeposit
	case "payout":
		txType = models.TxTypeWithdrawal
	}

	status, err := normalizeStatus(data.Status)
	if err != nil {
		return err
	}

	providerTxID := data.ID
	record := &models.Transaction{
		UserID:       user.ID,
		ProviderTxID: &providerTxID,
		Type:         txType,
		Amount:       data.Amount,
		Currency:     data.Currency,
		Status:       status,
		Reference:    utils.GenerateReference("TX"),
		Narration:    fmt.Sprintf("Provider %s transaction", txType),
	}
	if err := s.repo.CreateTransaction(ctx, record); err != nil {
		return err
	}

	s.logger.Infof("Created transaction record for %s", data.ID)
	return nil
}

// normalizeStatus maps provider statuses onto the ledger's forward-only set.
// A status outside the known vocabulary is a structural failure; guessing a
// mapping for it could mutate balances the wrong way.
func normalizeStatus(status string) (string, error) {
	switch strings.ToLower(status) {
	case "successful", "completed":
		return models.TxStatusCompleted, nil
	case "failed", "declined":
		return models.TxStatusFailed, nil
	case "pending":
		return models.TxStatusPending, nil
	case "processing", "in_progress":
		return models.TxStatusProcessing, nil
	default:
		return "", fmt.Errorf("%w: transaction status %q", models.ErrUnknownEvent, status)
	}
}
