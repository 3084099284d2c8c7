package service

import (
	"context"
	"fmt"

	"github.com/kryail/settlement/internal/models"
)

// StartDeposit returns deposit instructions for the user. The provider-issued
// destination (virtual bank account or crypto address) is cached as a payment
// method on first request and reused afterwards.
func (s *Service) StartDeposit(ctx context.Context, userID uint, currency string) (string, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.ErrUserNotFound
	}
	if !user.HasCompletedOnboarding {
		return "", models.ErrNotOnboarded
	}

	if err := s.ensureProviderCustomer(ctx, user); err != nil {
		return "", err
	}

	if cryptoAssets[currency] {
		method, err := s.cryptoDepositMethod(ctx, user, currency)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"🪙 *Deposit %s*\n\nTo deposit %s, send to the address below:\n\n"+
				"Address: %s\nNetwork: %s\n\n⚠️ *Only send %s via the %s network*",
			currency, currency, method.Address, method.Network, currency, method.Network,
		), nil
	}

	method, err := s.fiatDepositMethod(ctx, user, currency)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"💰 *Deposit %s*\n\nTo deposit %s, transfer to:\n\n"+
			"Bank: %s\nAccount Number: %s\nAccount Name: %s\n\n"+
			"Your funds will be credited automatically once received.",
		currency, currency, method.InstitutionName, method.AccountNumber, method.AccountName,
	), nil
}

func (s *Service) cryptoDepositMethod(ctx context.Context, user *models.User, asset string) (*models.PaymentMethod, error) {
	method, err := s.repo.GetPaymentMethod(ctx, user.ID, models.MethodCryptoWallet, asset)
	if err != nil {
		return nil, err
	}
	if method != nil {
		return method, nil
	}

	wallet, err := s.provider.GetCryptoWallet(ctx, asset, *user.ProviderCustomerID)
	if err != nil {
		return nil, err
	}

	method = &models.PaymentMethod{
		UserID:                  user.ID,
		ProviderPaymentMethodID: wallet.PaymentMethodID,
		Type:                    models.MethodCryptoWallet,
		Asset:                   asset,
		Address:                 wallet.Address,
		Network:                 wallet.Network,
	}
	if err := s.repo.CreatePaymentMethod(ctx, method); err != nil {
		return nil, err
	}
	return method, nil
}

func (s *Service) fiatDepositMethod(ctx context.Context, user *models.User, currency string) (*models.PaymentMethod, error) {
	method, err := s.repo.GetPaymentMethod(ctx, user.ID, models.MethodVirtualAccount, currency)
	if err != nil {
		return nil, err
	}
	if method != nil {
		return method, nil
	}

	account, err := s.provider.GetVirtualAccount(ctx, currency, *user.ProviderCustomerID)
	if err != nil {
		return nil, err
	}

	method = &models.PaymentMethod{
		UserID:                  user.ID,
		ProviderPaymentMethodID: account.PaymentMethodID,
		Type:                    models.MethodVirtualAccount,
		Currency:                currency,
		InstitutionName:         account.InstitutionName,
		AccountNumber:           account.AccountNumber,
		AccountName:             account.AccountName,
	}
	if err := s.repo.CreatePaymentMethod(ctx, method); err != nil {
		return nil, err
	}
	return method, nil
}
