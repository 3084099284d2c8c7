package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kryail/settlement/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) GetWallet(ctx context.Context, userID uint, asset string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND asset = ?", userID, asset).
		First(&wallet).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet for user %d asset %s: %w", userID, asset, err)
	}
	return &wallet, nil
}

func (r *Repository) GetWalletsByUser(ctx context.Context, userID uint) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("asset ASC").
		Find(&wallets).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets for user %d: %w", userID, err)
	}
	return wallets, nil
}

func (r *Repository) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}
