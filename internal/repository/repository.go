package repository

import (
	"github.com/kryail/settlement/utils"
	"gorm.io/gorm"
)

// Repository is the plain read/write surface over the store. Multi-step
// balance mutations live in the ledger, which runs its own transactions.
type Repository struct {
	db     *gorm.DB
	logger *utils.Logger
}

func NewRepository(db *gorm.DB, logger *utils.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}
