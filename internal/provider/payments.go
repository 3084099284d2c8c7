package provider

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type Customer struct {
	CustomerID  string `json:"customerId"`
	FullName    string `json:"fullName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
}

type CreateCustomerInput struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
}

// VirtualAccount is a provider-issued fiat deposit destination.
type VirtualAccount struct {
	PaymentMethodID string `json:"paymentMethodId"`
	InstitutionName string `json:"institutionName"`
	AccountNumber   string `json:"accountNumber"`
	AccountName     string `json:"accountName"`
	Currency        string `json:"currency"`
}

// CryptoWallet is a provider-issued crypto deposit destination.
type CryptoWallet struct {
	PaymentMethodID string `json:"paymentMethodId"`
	Address         string `json:"address"`
	Network         string `json:"network"`
	Asset           string `json:"asset"`
}

type CreateTransactionInput struct {
	CustomerID        string            `json:"customerId"`
	DestinationAmount decimal.Decimal   `json:"destinationAmount"`
	Currency          string            `json:"currency"`
	DestinationID     string            `json:"destinationId"`
	SourceCurrency    string            `json:"sourceCurrency"`
	Meta              map[string]string `json:"meta,omitempty"`
}

type Transaction struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

func (c *Client) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*Customer, error) {
	var customer Customer
	if err := c.request(ctx, http.MethodPost, "/api/v1/customer", input, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) GetVirtualAccount(ctx context.Context, currency, customerID string) (*VirtualAccount, error) {
	params := url.Values{}
	params.Set("currency", currency)
	params.Set("customerId", customerID)

	var account VirtualAccount
	if err := c.request(ctx, http.MethodGet, "/api/v1/payment-method/virtual-account", nil, params, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) GetCryptoWallet(ctx context.Context, asset, customerID string) (*CryptoWallet, error) {
	params := url.Values{}
	params.Set("asset", asset)
	params.Set("customerId", customerID)

	var wallet CryptoWallet
	if err := c.request(ctx, http.MethodGet, "/api/v1/payment-method/crypto-wallet", nil, params, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// CreateTransaction submits a payout to the provider and returns its
// transaction id, the reference later quoted by status webhooks.
func (c *Client) CreateTransaction(ctx context.Context, input CreateTransactionInput) (*Transaction, error) {
	var tx Transaction
	if err := c.request(ctx, http.MethodPost, "/api/v1/transaction", input, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
