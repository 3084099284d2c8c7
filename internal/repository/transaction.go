package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kryail/settlement/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) GetTransactionByProviderTxID(ctx context.Context, providerTxID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Where("provider_tx_id = ?", providerTxID).
		First(&tx).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", providerTxID, err)
	}
	return &tx, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *Repository) UpdateTransactionStatus(ctx context.Context, id uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update transaction status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d not found for status update", id)
	}
	return nil
}

// SetTransactionProviderRef links an entry to the payment processor's
// transaction id after submission.
func (r *Repository) SetTransactionProviderRef(ctx context.Context, id uint, providerTxID string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("provider_tx_id", providerTxID)
	if res.Error != nil {
		return fmt.Errorf("failed to set provider ref on transaction %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %d not found for provider ref update", id)
	}
	return nil
}

func (r *Repository) GetTransactionsByUser(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", userID, err)
	}
	return txs, nil
}
