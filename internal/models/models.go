package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxTypeDeposit     = "deposit"
	TxTypeWithdrawal  = "withdrawal"
	TxTypeTransferIn  = "transfer_in"
	TxTypeTransferOut = "transfer_out"
)

// Transaction statuses. Transitions move forward only:
// pending -> processing -> completed|failed.
const (
	TxStatusPending    = "pending"
	TxStatusProcessing = "processing"
	TxStatusCompleted  = "completed"
	TxStatusFailed     = "failed"
)

// Payment method types.
const (
	MethodVirtualAccount = "virtual_account"
	MethodCryptoWallet   = "crypto_wallet"
)

// User identity anchors on Phone. Email and ProviderCustomerID are pointers
// so absent values store as NULL instead of colliding in the unique indexes.
type User struct {
	ID                     uint    `gorm:"primaryKey" json:"id"`
	FirstName              string  `json:"first_name"`
	LastName               string  `json:"last_name"`
	Email                  *string `gorm:"uniqueIndex" json:"email"`
	Phone                  string  `gorm:"uniqueIndex;not null" json:"phone"`
	TelegramChatID         int64   `json:"telegram_chat_id"`
	ProviderCustomerID     *string `gorm:"uniqueIndex" json:"provider_customer_id"`
	HasProviderCustomer    bool    `gorm:"default:false" json:"has_provider_customer"`
	HasCompletedOnboarding bool    `gorm:"default:false" json:"has_completed_onboarding"`

	Wallets      []Wallet      `gorm:"foreignKey:UserID" json:"wallets,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Wallet holds the balance of one (user, asset) pair. Created lazily on the
// first credit, mutated only inside ledger transactions, never deleted.
type Wallet struct {
	ID      uint            `gorm:"primaryKey" json:"id"`
	UserID  uint            `gorm:"uniqueIndex:idx_user_asset;not null" json:"user_id"`
	Asset   string          `gorm:"uniqueIndex:idx_user_asset;not null" json:"asset"`
	Balance decimal.Decimal `gorm:"type:numeric(18,6);default:0" json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is an immutable ledger entry. ProviderTxID is the payment
// processor's identifier and the de-duplication anchor; unique when present.
type Transaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	ProviderTxID *string         `gorm:"uniqueIndex" json:"provider_tx_id"`
	Type         string          `gorm:"not null" json:"type"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"amount"`
	Currency     string          `gorm:"not null" json:"currency"`
	Status       string          `gorm:"default:pending" json:"status"`
	Reference    string          `json:"reference"`
	Narration    string          `json:"narration"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the entry may no longer be mutated.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TxStatusCompleted || t.Status == TxStatusFailed
}

// PaymentMethod caches a provider-issued deposit destination. Immutable once
// created; a new one is requested when the (user, currency/asset) pairing changes.
type PaymentMethod struct {
	ID                      uint   `gorm:"primaryKey" json:"id"`
	UserID                  uint   `gorm:"index;not null" json:"user_id"`
	ProviderPaymentMethodID string `json:"provider_payment_method_id"`
	Type                    string `gorm:"not null" json:"type"`
	Currency                string `json:"currency"`
	Asset                   string `json:"asset"`

	InstitutionName string `json:"institution_name"`
	AccountNumber   string `json:"account_number"`
	AccountName     string `json:"account_name"`

	Address string `json:"address"`
	Network string `json:"network"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
