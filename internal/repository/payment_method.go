package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kryail/settlement/internal/models"
	"gorm.io/gorm"
)

// GetPaymentMethod looks up the cached provider deposit destination for a
// user. Crypto methods are keyed by asset, fiat ones by currency.
func (r *Repository) GetPaymentMethod(ctx context.Context, userID uint, methodType, symbol string) (*models.PaymentMethod, error) {
	column := "currency"
	if methodType == models.MethodCryptoWallet {
		column = "asset"
	}

	var method models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND "+column+" = ?", userID, methodType, symbol).
		First(&method).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment method for user %d: %w", userID, err)
	}
	return &method, nil
}

func (r *Repository) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}
