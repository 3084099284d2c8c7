package service

import (
	"context"
	"strings"

	"github.com/kryail/settlement/internal/ledger"
	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/internal/provider"
	"github.com/kryail/settlement/utils"
	"github.com/shopspring/decimal"
)

// Crypto assets the provider can issue deposit wallets for.
var cryptoAssets = map[string]bool{
	"USDT": true,
	"USDC": true,
}

type Repository interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUserByProviderCustomerID(ctx context.Context, customerID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error

	GetWallet(ctx context.Context, userID uint, asset string) (*models.Wallet, error)
	GetWalletsByUser(ctx context.Context, userID uint) ([]models.Wallet, error)

	GetTransactionByProviderTxID(ctx context.Context, providerTxID string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, id uint, status string) error
	SetTransactionProviderRef(ctx context.Context, id uint, providerTxID string) error
	GetTransactionsByUser(ctx context.Context, userID uint, limit int) ([]models.Transaction, error)

	GetPaymentMethod(ctx context.Context, userID uint, methodType, symbol string) (*models.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error
}

// RateOracle supplies cross-asset conversion rates. Each quote is the number
// of symbol units per one base unit.
type RateOracle interface {
	GetRates(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error)
}

// ProviderClient is the payment provider surface the orchestrator consumes.
type ProviderClient interface {
	CreateCustomer(ctx context.Context, input provider.CreateCustomerInput) (*provider.Customer, error)
	GetVirtualAccount(ctx context.Context, currency, customerID string) (*provider.VirtualAccount, error)
	GetCryptoWallet(ctx context.Context, asset, customerID string) (*provider.CryptoWallet, error)
	CreateTransaction(ctx context.Context, input provider.CreateTransactionInput) (*provider.Transaction, error)
}

// Enqueuer is the notification side of the durable queue.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, userID uint, message string) error
}

// Service orchestrates settlement: it consumes verified, de-duplicated
// webhook events and user-initiated requests, converts amounts through the
// rate oracle, drives the ledger, and emits notification jobs.
type Service struct {
	repo            Repository
	ledger          *ledger.Ledger
	rates           RateOracle
	provider        ProviderClient
	queue           Enqueuer
	settlementAsset string
	logger          *utils.Logger
}

func NewService(
	repo Repository,
	ldg *ledger.Ledger,
	rates RateOracle,
	providerClient ProviderClient,
	queue Enqueuer,
	settlementAsset string,
	logger *utils.Logger,
) *Service {
	return &Service{
		repo:            repo,
		ledger:          ldg,
		rates:           rates,
		provider:        providerClient,
		queue:           queue,
		settlementAsset: settlementAsset,
		logger:          logger,
	}
}

// ensureProviderCustomer provisions a provider customer for the user on
// first use of any payment flow. On return user.ProviderCustomerID is set.
func (s *Service) ensureProviderCustomer(ctx context.Context, user *models.User) error {
	if user.HasProviderCustomer && user.ProviderCustomerID != nil && *user.ProviderCustomerID != "" {
		return nil
	}

	fullName := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if fullName == "" {
		s.logger.Errorf("User %d has no name, cannot create provider customer", user.ID)
		return models.ErrNotOnboarded
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	customer, err := s.provider.CreateCustomer(ctx, provider.CreateCustomerInput{
		FullName:    fullName,
		Email:       email,
		Phone:       user.Phone,
		CountryCode: "NG",
	})
	if err != nil {
		return err
	}

	user.ProviderCustomerID = &customer.CustomerID
	user.HasProviderCustomer = true
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.logger.Infof("Created provider customer for user %d", user.ID)
	return nil
}

// GetBalance returns the user's per-asset balances.
func (s *Service) GetBalance(ctx context.Context, userID uint) (map[string]decimal.Decimal, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	wallets, err := s.repo.GetWalletsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]decimal.Decimal, len(wallets))
	for _, wallet := range wallets {
		balances[wallet.Asset] = wallet.Balance
	}
	return balances, nil
}

// GetHistory returns the user's most recent ledger entries, newest first.
func (s *Service) GetHistory(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.GetTransactionsByUser(ctx, userID, limit)
}
