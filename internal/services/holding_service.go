package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "stockfolio/internal/errors"
	"stockfolio/internal/models"
	"stockfolio/internal/pagination"
)

// holdingService is the data-access boundary for holdings. It carries no
// report logic; the report engine consumes it through HoldingServicer.
type holdingService struct {
	db *gorm.DB
}

// NewHoldingService creates a new HoldingServicer.
func NewHoldingService(db *gorm.DB) HoldingServicer {
	return &holdingService{db: db}
}

// AddHolding records a new purchase lot for a user. Validation failures
// leave the store untouched. The purchase date defaults to now when the
// caller does not supply one.
func (s *holdingService) AddHolding(userEmail, symbol string, buyPrice, quantity decimal.Decimal, purchaseDate *time.Time) (*models.Holding, error) {
	if userEmail == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "owner email is required")
	}
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}
	if !buyPrice.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "buy price must be greater than zero")
	}
	if !quantity.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be greater than zero")
	}

	date := time.Now()
	if purchaseDate != nil {
		date = *purchaseDate
	}

	holding := &models.Holding{
		UserEmail:    userEmail,
		Symbol:       symbol,
		BuyPrice:     buyPrice,
		Quantity:     quantity,
		PurchaseDate: date,
	}

	if err := s.db.Create(holding).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return holding, nil
}

// ListHoldings returns every lot owned by the user in creation order.
// The report engine relies on this ordering for its 1:1 output mapping.
func (s *holdingService) ListHoldings(userEmail string) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.db.Where("user_email = ?", userEmail).
		Order("created_at ASC").
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return holdings, nil
}

// ListHoldingsPage returns one page of the user's lots for the HTTP list
// endpoint.
func (s *holdingService) ListHoldingsPage(userEmail string, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	page.Defaults()

	var total int64
	if err := s.db.Model(&models.Holding{}).
		Where("user_email = ?", userEmail).
		Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var holdings []models.Holding
	if err := s.db.Where("user_email = ?", userEmail).
		Order("created_at ASC").
		Scopes(pagination.Paginate(page)).
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(holdings, page.Page, page.PageSize, total)
	return &resp, nil
}

// DeleteHoldingsBySymbol removes every lot of a symbol for the user and
// returns how many were removed. Lots are not distinguished at delete
// time; deleting "AAPL" removes all AAPL purchases.
func (s *holdingService) DeleteHoldingsBySymbol(userEmail, symbol string) (int64, error) {
	result := s.db.Where("user_email = ? AND symbol = ?", userEmail, symbol).
		Delete(&models.Holding{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, apperrors.ErrHoldingNotFound
	}
	return result.RowsAffected, nil
}
