package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateReference builds a short human-readable reference like "WDR-1A2B3C4D".
func GenerateReference(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s", prefix, id[:8])
}

// FormatAmount renders a money amount with two decimal places for user-facing text.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
