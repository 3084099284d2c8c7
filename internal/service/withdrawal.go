package service

import (
	"context"
	"fmt"

	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/internal/provider"
	"github.com/kryail/settlement/utils"
	"github.com/shopspring/decimal"
)

// StartWithdrawal initiates a payout: balance check, quote when the payout
// currency differs from the source asset, then an atomic debit that holds the
// funds BEFORE the payout is submitted to the provider. Holding first means a
// concurrent spend can never leave an accepted payout without a ledger
// record; a rejected submission refunds the hold immediately.
func (s *Service) StartWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal, asset, currency, destinationID string) (string, error) {
	if amount.Sign() <= 0 {
		return "", models.ErrInvalidAmount
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.ErrUserNotFound
	}

	if err := s.ensureProviderCustomer(ctx, user); err != nil {
		return "", err
	}

	wallet, err := s.repo.GetWallet(ctx, userID, asset)
	if err != nil {
		return "", err
	}
	if wallet == nil || wallet.Balance.LessThan(amount) {
		return "", fmt.Errorf("%w: %s balance too low", models.ErrInsufficientFunds, asset)
	}

	amountToReceive := amount
	if asset != currency {
		quotes, err := s.rates.GetRates(ctx, asset, []string{currency})
		if err != nil {
			return "", err
		}
		rate := quotes[currency]
		if rate.Sign() <= 0 {
			return "", fmt.Errorf("invalid %s/%s rate %s", asset, currency, rate)
		}
		amountToReceive = amount.Mul(rate)
		s.logger.Infof("Quote: %s %s -> %s %s @ %s", amount, asset, amountToReceive, currency, rate)
	}

	reference := utils.GenerateReference("WDR")

	entry := &models.Transaction{
		UserID:    userID,
		Type:      models.TxTypeWithdrawal,
		Amount:    amount,
		Currency:  asset,
		Status:    models.TxStatusPending,
		Reference: reference,
		Narration: fmt.Sprintf("Withdrawal of %s %s to %s", amount, asset, currency),
	}

	if err := s.ledger.Debit(ctx, userID, asset, amount, entry); err != nil {
		return "", err
	}

	providerTx, err := s.provider.CreateTransaction(ctx, provider.CreateTransactionInput{
		CustomerID:        *user.ProviderCustomerID,
		DestinationAmount: amountToReceive,
		Currency:          currency,
		DestinationID:     destinationID,
		SourceCurrency:    asset,
		Meta:              map[string]string{"idempotencyKey": reference},
	})
	if err != nil {
		if rerr := s.ledger.Refund(ctx, entry); rerr != nil {
			s.logger.Errorf("Failed to refund held withdrawal %s: %v", reference, rerr)
		}
		return "", err
	}

	// Link the held entry to the provider reference so status webhooks can
	// find it. The payout is already submitted, so a linkage failure leaves
	// the entry pending under its own reference for manual reconciliation.
	if err := s.repo.SetTransactionProviderRef(ctx, entry.ID, providerTx.TransactionID); err != nil {
		s.logger.Errorf("Failed to link withdrawal %s to provider tx %s: %v", reference, providerTx.TransactionID, err)
	}

	return fmt.Sprintf("Withdrawal of %s %s initiated.", amount, asset), nil
}
