package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger is the only component that mutates wallet balances. Every operation
// runs inside a single database transaction that also writes the matching
// transaction record, so a crash can never leave a balance change without its
// entry or vice versa. Serialization of concurrent mutations on the same
// (user, asset) pair is delegated to the store's row locking.
type Ledger struct {
	db     *gorm.DB
	logger *utils.Logger
}

func NewLedger(db *gorm.DB, logger *utils.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// Credit adds amount to the (userID, asset) wallet, creating it lazily, and
// records entry. When entry carries a provider reference that already exists,
// the stored record is updated instead; a terminal stored record makes the
// whole call a no-op returning ErrAlreadySettled.
func (l *Ledger) Credit(ctx context.Context, userID uint, asset string, amount decimal.Decimal, entry *models.Transaction) error {
	if amount.Sign() <= 0 {
		return models.ErrInvalidAmount
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := l.findByProviderRef(tx, entry)
		if err != nil {
			return err
		}
		if existing != nil && existing.IsTerminal() {
			return models.ErrAlreadySettled
		}

		if err := l.creditWallet(tx, userID, asset, amount); err != nil {
			return err
		}

		if existing != nil {
			existing.Status = entry.Status
			existing.Amount = entry.Amount
			existing.Currency = entry.Currency
			return tx.Save(existing).Error
		}
		return tx.Create(entry).Error
	})
}

// Debit subtracts amount from the (userID, asset) wallet and records entry.
// It fails with ErrInsufficientFunds when the balance would go negative and
// applies nothing in that case.
func (l *Ledger) Debit(ctx context.Context, userID uint, asset string, amount decimal.Decimal, entry *models.Transaction) error {
	if amount.Sign() <= 0 {
		return models.ErrInvalidAmount
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.debitWallet(tx, userID, asset, amount); err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

// Refund returns a held withdrawal amount to the owner's wallet and marks the
// stored entry failed, atomically. Terminal entries are left untouched.
func (l *Ledger) Refund(ctx context.Context, entry *models.Transaction) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Transaction
		if err := tx.First(&current, "id = ?", entry.ID).Error; err != nil {
			return fmt.Errorf("failed to load entry %d: %w", entry.ID, err)
		}
		if current.IsTerminal() {
			return models.ErrAlreadySettled
		}

		if err := l.creditWallet(tx, current.UserID, current.Currency, current.Amount); err != nil {
			return err
		}

		return tx.Model(&current).Update("status", models.TxStatusFailed).Error
	})
}

// Transfer moves amount between two users' wallets of the same asset and
// writes both entries in one atomic unit. The recipient wallet is created
// lazily. Either both sides apply or neither does.
func (l *Ledger) Transfer(ctx context.Context, senderID, recipientID uint, asset string, amount decimal.Decimal, outEntry, inEntry *models.Transaction) error {
	if amount.Sign() <= 0 {
		return models.ErrInvalidAmount
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.debitWallet(tx, senderID, asset, amount); err != nil {
			return err
		}
		if err := tx.Create(outEntry).Error; err != nil {
			return fmt.Errorf("failed to record transfer_out: %w", err)
		}

		if err := l.creditWallet(tx, recipientID, asset, amount); err != nil {
			return err
		}
		if err := tx.Create(inEntry).Error; err != nil {
			return fmt.Errorf("failed to record transfer_in: %w", err)
		}

		return nil
	})
}

// creditWallet adds amount to the wallet row with an atomic UPDATE, creating
// the row when the user has never held the asset.
func (l *Ledger) creditWallet(tx *gorm.DB, userID uint, asset string, amount decimal.Decimal) error {
	res := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND asset = ?", userID, asset).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to credit wallet: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	l.logger.Infof("Creating %s wallet for user %d on first credit", asset, userID)
	wallet := &models.Wallet{UserID: userID, Asset: asset, Balance: amount}
	if err := tx.Create(wallet).Error; err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// debitWallet subtracts amount guarded by the non-negative balance invariant.
// The balance check and the subtraction are one statement, so a concurrent
// debit on the same row cannot slip between them.
func (l *Ledger) debitWallet(tx *gorm.DB, userID uint, asset string, amount decimal.Decimal) error {
	res := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND asset = ? AND balance >= ?", userID, asset, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to debit wallet: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND asset = ?", userID, asset).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check wallet existence: %w", err)
	}
	if count == 0 {
		return models.ErrWalletNotFound
	}
	return models.ErrInsufficientFunds
}

func (l *Ledger) findByProviderRef(tx *gorm.DB, entry *models.Transaction) (*models.Transaction, error) {
	if entry.ProviderTxID == nil || *entry.ProviderTxID == "" {
		return nil, nil
	}
	var existing models.Transaction
	err := tx.Where("provider_tx_id = ?", *entry.ProviderTxID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up provider ref %s: %w", *entry.ProviderTxID, err)
	}
	return &existing, nil
}
