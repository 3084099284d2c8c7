package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/kryail/settlement/internal/models"
	"github.com/kryail/settlement/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Wallet{}, &models.Transaction{}, &models.PaymentMethod{}))

	return NewRepository(db, utils.InitTestLogger()), db
}

func strptr(s string) *string { return &s }

func TestNotFoundReturnsNil(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetUserByPhone(ctx, "+2348000000000")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetUserByProviderCustomerID(ctx, "cust_missing")
	require.NoError(t, err)
	assert.Nil(t, user)

	wallet, err := repo.GetWallet(ctx, 42, "USDT")
	require.NoError(t, err)
	assert.Nil(t, wallet)

	wallets, err := repo.GetWalletsByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, wallets)

	tx, err := repo.GetTransactionByProviderTxID(ctx, "tx_missing")
	require.NoError(t, err)
	assert.Nil(t, tx)

	method, err := repo.GetPaymentMethod(ctx, 42, models.MethodVirtualAccount, "NGN")
	require.NoError(t, err)
	assert.Nil(t, method)
}

func TestCreateUsersWithoutProviderCustomer(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	// Unprovisioned users store NULL email and provider customer id, so any
	// number of them can coexist under the unique indexes.
	for i, phone := range []string{"+2348000000001", "+2348000000002", "+2348000000003"} {
		err := repo.CreateUser(ctx, &models.User{FirstName: "User", Phone: phone})
		require.NoError(t, err, "user %d", i+1)
	}
}

func TestUserRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{
		FirstName:          "Ada",
		Phone:              "+2348000000001",
		Email:              strptr("ada@example.com"),
		ProviderCustomerID: strptr("cust_1"),
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	byPhone, err := repo.GetUserByPhone(ctx, user.Phone)
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, user.ID, byPhone.ID)

	byCustomer, err := repo.GetUserByProviderCustomerID(ctx, "cust_1")
	require.NoError(t, err)
	require.NotNil(t, byCustomer)
	assert.Equal(t, user.ID, byCustomer.ID)

	byCustomer.HasProviderCustomer = true
	require.NoError(t, repo.UpdateUser(ctx, byCustomer))

	reloaded, err := repo.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasProviderCustomer)
}

func TestWalletRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{FirstName: "Ada", Phone: "+2348000000001"}
	require.NoError(t, repo.CreateUser(ctx, user))

	require.NoError(t, repo.CreateWallet(ctx, &models.Wallet{
		UserID:  user.ID,
		Asset:   "USDT",
		Balance: decimal.RequireFromString("12.5"),
	}))
	require.NoError(t, repo.CreateWallet(ctx, &models.Wallet{
		UserID: user.ID,
		Asset:  "USDC",
	}))

	// The unique (user, asset) index rejects a second wallet for the pair.
	require.Error(t, repo.CreateWallet(ctx, &models.Wallet{UserID: user.ID, Asset: "USDT"}))

	wallet, err := repo.GetWallet(ctx, user.ID, "USDT")
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("12.5")))

	wallets, err := repo.GetWalletsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "USDC", wallets[0].Asset)
	assert.Equal(t, "USDT", wallets[1].Asset)
}

func TestUpdateTransactionStatus(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{FirstName: "Ada", Phone: "+2348000000001"}
	require.NoError(t, repo.CreateUser(ctx, user))

	tx := &models.Transaction{
		UserID:   user.ID,
		Type:     models.TxTypeWithdrawal,
		Amount:   decimal.NewFromInt(10),
		Currency: "USDT",
		Status:   models.TxStatusPending,
	}
	require.NoError(t, repo.CreateTransaction(ctx, tx))

	require.NoError(t, repo.UpdateTransactionStatus(ctx, tx.ID, models.TxStatusProcessing))

	reloaded, err := repo.GetTransactionsByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, reloaded, 1)
	assert.Equal(t, models.TxStatusProcessing, reloaded[0].Status)

	// Updating a missing row is an error, not a silent no-op.
	require.Error(t, repo.UpdateTransactionStatus(ctx, 9999, models.TxStatusCompleted))
}

func TestSetTransactionProviderRef(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{FirstName: "Ada", Phone: "+2348000000001"}
	require.NoError(t, repo.CreateUser(ctx, user))

	tx := &models.Transaction{
		UserID:   user.ID,
		Type:     models.TxTypeWithdrawal,
		Amount:   decimal.NewFromInt(10),
		Currency: "USDT",
		Status:   models.TxStatusPending,
	}
	require.NoError(t, repo.CreateTransaction(ctx, tx))

	require.NoError(t, repo.SetTransactionProviderRef(ctx, tx.ID, "tx_wdr_1"))

	linked, err := repo.GetTransactionByProviderTxID(ctx, "tx_wdr_1")
	require.NoError(t, err)
	require.NotNil(t, linked)
	assert.Equal(t, tx.ID, linked.ID)

	require.Error(t, repo.SetTransactionProviderRef(ctx, 9999, "tx_ghost"))
}

func TestGetTransactionsByUserLimit(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{FirstName: "Ada", Phone: "+2348000000001"}
	require.NoError(t, repo.CreateUser(ctx, user))

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreateTransaction(ctx, &models.Transaction{
			UserID:   user.ID,
			Type:     models.TxTypeDeposit,
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Currency: "USDT",
			Status:   models.TxStatusCompleted,
		}))
	}

	txs, err := repo.GetTransactionsByUser(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestPaymentMethodLookupBySymbol(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	user := &models.User{FirstName: "Ada", Phone: "+2348000000001"}
	require.NoError(t, repo.CreateUser(ctx, user))

	require.NoError(t, repo.CreatePaymentMethod(ctx, &models.PaymentMethod{
		UserID:        user.ID,
		Type:          models.MethodVirtualAccount,
		Currency:      "NGN",
		AccountNumber: "0123456789",
	}))
	require.NoError(t, repo.CreatePaymentMethod(ctx, &models.PaymentMethod{
		UserID:  user.ID,
		Type:    models.MethodCryptoWallet,
		Asset:   "USDT",
		Address: "TXabc123",
	}))

	fiat, err := repo.GetPaymentMethod(ctx, user.ID, models.MethodVirtualAccount, "NGN")
	require.NoError(t, err)
	require.NotNil(t, fiat)
	assert.Equal(t, "0123456789", fiat.AccountNumber)

	crypto, err := repo.GetPaymentMethod(ctx, user.ID, models.MethodCryptoWallet, "USDT")
	require.NoError(t, err)
	require.NotNil(t, crypto)
	assert.Equal(t, "TXabc123", crypto.Address)
}
