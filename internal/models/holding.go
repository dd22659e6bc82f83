package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents one purchased lot of a ticker symbol, owned by a single
// user. Holdings are immutable once created: there is no update operation,
// only delete-by-symbol, which removes every lot of that symbol.
//
// A user may hold several lots of the same symbol; no uniqueness is enforced
// across (user_email, symbol).
type Holding struct {
	Base
	UserEmail    string          `gorm:"not null;index" json:"user_email"`
	Symbol       string          `gorm:"not null;index" json:"symbol"`
	BuyPrice     decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"buy_price"`
	Quantity     decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"quantity"`
	PurchaseDate time.Time       `gorm:"not null" json:"purchase_date"`
}
