package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"stockfolio/internal/marketdata"
	"stockfolio/internal/models"
	"stockfolio/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetOrCreateGoogleUser(googleID, email, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// HoldingServicer defines the contract for the holdings store.
type HoldingServicer interface {
	AddHolding(userEmail, symbol string, buyPrice, quantity decimal.Decimal, purchaseDate *time.Time) (*models.Holding, error)
	ListHoldings(userEmail string) ([]models.Holding, error)
	ListHoldingsPage(userEmail string, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
	DeleteHoldingsBySymbol(userEmail, symbol string) (int64, error)
}

// PriceSource resolves the latest market price for a symbol. The Alpha
// Vantage client satisfies it; report tests substitute a stub.
type PriceSource interface {
	GetLatestPrice(ctx context.Context, symbol string) (marketdata.Quote, error)
}

// ProfitLossLine is one holding's resolved-or-failed profit/loss
// computation. Exactly one of {Profit and CurrentValue set} or {Error set}
// holds per line.
type ProfitLossLine struct {
	Symbol       string           `json:"symbol"`
	Quantity     decimal.Decimal  `json:"quantity"`
	BuyPrice     decimal.Decimal  `json:"buy_price"`
	CurrentPrice *decimal.Decimal `json:"current_price,omitempty"`
	PriceDate    string           `json:"price_date,omitempty"`
	Profit       *decimal.Decimal `json:"profit,omitempty"`
	CurrentValue *decimal.Decimal `json:"current_value,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// ReportServicer defines the contract for the profit/loss report engine.
type ReportServicer interface {
	BuildReport(ctx context.Context, userEmail string) ([]ProfitLossLine, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userEmail, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
