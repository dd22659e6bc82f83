package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "stockfolio/internal/errors"
	"stockfolio/internal/pagination"
	"stockfolio/internal/services"
)

// HoldingHandler handles holding-related requests.
type HoldingHandler struct {
	holdingService services.HoldingServicer
	auditService   services.AuditServicer
}

// NewHoldingHandler creates a new HoldingHandler.
func NewHoldingHandler(holdingService services.HoldingServicer, auditService services.AuditServicer) *HoldingHandler {
	return &HoldingHandler{holdingService: holdingService, auditService: auditService}
}

// AddHoldingRequest represents the request payload for recording a purchase.
type AddHoldingRequest struct {
	Symbol       string          `json:"symbol" binding:"required,ticker"`
	BuyPrice     decimal.Decimal `json:"buy_price" binding:"required,positive_decimal"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required,positive_decimal"`
	PurchaseDate *time.Time      `json:"purchase_date,omitempty"`
}

// AddHolding records a new purchase lot for the authenticated user.
// @Summary     Add holding
// @Description Record a stock purchase for the authenticated user
// @Tags        stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddHoldingRequest true "Purchase details"
// @Success     201 {object} models.Holding "Holding created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks [post]
func (h *HoldingHandler) AddHolding(c *gin.Context) {
	identity := getIdentity(c)
	if identity.Email == "" {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	var req AddHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	holding, err := h.holdingService.AddHolding(identity.Email, req.Symbol, req.BuyPrice, req.Quantity, req.PurchaseDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(identity.Email, "CREATE_HOLDING", "holding", holding.ID, c.ClientIP(),
		map[string]interface{}{"symbol": holding.Symbol, "quantity": holding.Quantity.String()})

	c.JSON(http.StatusCreated, gin.H{"holding": holding})
}

// ListHoldings lists the authenticated user's holdings.
// @Summary     List holdings
// @Description Get a paginated list of the authenticated user's holdings
// @Tags        stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Holding] "Paginated holdings"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks [get]
func (h *HoldingHandler) ListHoldings(c *gin.Context) {
	identity := getIdentity(c)
	if identity.Email == "" {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.holdingService.ListHoldingsPage(identity.Email, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteHolding removes every lot of a symbol for the authenticated user.
// @Summary     Delete holdings by symbol
// @Description Remove all purchase lots of a symbol for the authenticated user
// @Tags        stocks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       symbol path string true "Ticker symbol"
// @Success     200 {object} map[string]int64 "Number of lots removed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No holdings for symbol"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stocks/{symbol} [delete]
func (h *HoldingHandler) DeleteHolding(c *gin.Context) {
	identity := getIdentity(c)
	if identity.Email == "" {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	symbol := c.Param("symbol")
	count, err := h.holdingService.DeleteHoldingsBySymbol(identity.Email, symbol)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(identity.Email, "DELETE_HOLDING", "holding", symbol, c.ClientIP(),
		map[string]interface{}{"symbol": symbol, "lots_removed": count})

	c.JSON(http.StatusOK, gin.H{"deleted": count})
}
