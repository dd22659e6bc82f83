package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "stockfolio/internal/errors"
	"stockfolio/internal/models"
	"stockfolio/internal/pagination"
	"stockfolio/internal/services"
	appvalidator "stockfolio/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	appvalidator.Register()
}

// --- shared test helpers ---

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v (%s)", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, expectedCode string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got %v", result)
	}
	if errObj["code"] != expectedCode {
		t.Errorf("expected error code %q, got %v", expectedCode, errObj["code"])
	}
}

// injectIdentity fakes the auth middleware for handler tests.
func injectIdentity(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", "test-user-id")
		c.Set("email", email)
		c.Next()
	}
}

// --- mock audit service ---

type mockAuditService struct {
	entries []string
}

func (m *mockAuditService) Log(_, action, _, _, _ string, _ map[string]any) {
	m.entries = append(m.entries, action)
}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- mock holding service ---

type mockHoldingService struct {
	addHoldingFn       func(userEmail, symbol string, buyPrice, quantity decimal.Decimal, purchaseDate *time.Time) (*models.Holding, error)
	listHoldingsFn     func(userEmail string) ([]models.Holding, error)
	listHoldingsPageFn func(userEmail string, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
	deleteFn           func(userEmail, symbol string) (int64, error)
}

func (m *mockHoldingService) AddHolding(userEmail, symbol string, buyPrice, quantity decimal.Decimal, purchaseDate *time.Time) (*models.Holding, error) {
	if m.addHoldingFn != nil {
		return m.addHoldingFn(userEmail, symbol, buyPrice, quantity, purchaseDate)
	}
	return &models.Holding{}, nil
}

func (m *mockHoldingService) ListHoldings(userEmail string) ([]models.Holding, error) {
	if m.listHoldingsFn != nil {
		return m.listHoldingsFn(userEmail)
	}
	return []models.Holding{}, nil
}

func (m *mockHoldingService) ListHoldingsPage(userEmail string, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	if m.listHoldingsPageFn != nil {
		return m.listHoldingsPageFn(userEmail, page)
	}
	resp := pagination.NewPageResponse([]models.Holding{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockHoldingService) DeleteHoldingsBySymbol(userEmail, symbol string) (int64, error) {
	if m.deleteFn != nil {
		return m.deleteFn(userEmail, symbol)
	}
	return 1, nil
}

var _ services.HoldingServicer = (*mockHoldingService)(nil)

func setupHoldingRouter(handler *HoldingHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectIdentity("alice@test.com"))
	auth.POST("/stocks", handler.AddHolding)
	auth.GET("/stocks", handler.ListHoldings)
	auth.DELETE("/stocks/:symbol", handler.DeleteHolding)
	return r
}

func TestHoldingHandler_AddHolding(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockHoldingService{
			addHoldingFn: func(userEmail, symbol string, buyPrice, quantity decimal.Decimal, _ *time.Time) (*models.Holding, error) {
				if userEmail != "alice@test.com" {
					t.Errorf("expected owner from auth context, got %s", userEmail)
				}
				return &models.Holding{
					Base:      models.Base{ID: "h-1"},
					UserEmail: userEmail,
					Symbol:    symbol,
					BuyPrice:  buyPrice,
					Quantity:  quantity,
				}, nil
			},
		}
		handler := NewHoldingHandler(svc, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "POST", "/stocks", `{"symbol":"AAPL","buy_price":100,"quantity":2}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		holding := result["holding"].(map[string]interface{})
		if holding["symbol"] != "AAPL" {
			t.Errorf("expected symbol AAPL, got %v", holding["symbol"])
		}
	})

	t.Run("returns 400 on missing symbol", func(t *testing.T) {
		handler := NewHoldingHandler(&mockHoldingService{}, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "POST", "/stocks", `{"buy_price":100,"quantity":2}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on zero buy price", func(t *testing.T) {
		handler := NewHoldingHandler(&mockHoldingService{}, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "POST", "/stocks", `{"symbol":"AAPL","buy_price":0,"quantity":2}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on negative quantity", func(t *testing.T) {
		handler := NewHoldingHandler(&mockHoldingService{}, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "POST", "/stocks", `{"symbol":"AAPL","buy_price":100,"quantity":-1}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewHoldingHandler(&mockHoldingService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/stocks", handler.AddHolding)

		rec := doRequest(r, "POST", "/stocks", `{"symbol":"AAPL","buy_price":100,"quantity":2}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("records audit entry", func(t *testing.T) {
		audit := &mockAuditService{}
		handler := NewHoldingHandler(&mockHoldingService{}, audit)
		r := setupHoldingRouter(handler)

		doRequest(r, "POST", "/stocks", `{"symbol":"AAPL","buy_price":100,"quantity":2}`)

		if len(audit.entries) != 1 || audit.entries[0] != "CREATE_HOLDING" {
			t.Errorf("expected CREATE_HOLDING audit entry, got %v", audit.entries)
		}
	})
}

func TestHoldingHandler_ListHoldings(t *testing.T) {
	t.Run("returns 200 with holdings", func(t *testing.T) {
		svc := &mockHoldingService{
			listHoldingsPageFn: func(userEmail string, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
				holdings := []models.Holding{
					{Base: models.Base{ID: "h-1"}, UserEmail: userEmail, Symbol: "AAPL"},
					{Base: models.Base{ID: "h-2"}, UserEmail: userEmail, Symbol: "MSFT"},
				}
				resp := pagination.NewPageResponse(holdings, 1, 20, 2)
				return &resp, nil
			},
		}
		handler := NewHoldingHandler(svc, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "GET", "/stocks", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		data := result["data"].([]interface{})
		if len(data) != 2 {
			t.Errorf("expected 2 holdings, got %d", len(data))
		}
	})

	t.Run("returns 400 on bad page size", func(t *testing.T) {
		handler := NewHoldingHandler(&mockHoldingService{}, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "GET", "/stocks?page_size=9999", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHoldingHandler_DeleteHolding(t *testing.T) {
	t.Run("returns 200 with removed count", func(t *testing.T) {
		svc := &mockHoldingService{
			deleteFn: func(userEmail, symbol string) (int64, error) {
				if symbol != "AAPL" {
					t.Errorf("expected symbol AAPL, got %s", symbol)
				}
				return 2, nil
			},
		}
		handler := NewHoldingHandler(svc, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "DELETE", "/stocks/AAPL", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["deleted"].(float64) != 2 {
			t.Errorf("expected deleted=2, got %v", result["deleted"])
		}
	})

	t.Run("returns 404 when nothing matched", func(t *testing.T) {
		svc := &mockHoldingService{
			deleteFn: func(_, _ string) (int64, error) {
				return 0, apperrors.ErrHoldingNotFound
			},
		}
		handler := NewHoldingHandler(svc, &mockAuditService{})
		r := setupHoldingRouter(handler)

		rec := doRequest(r, "DELETE", "/stocks/GOOG", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "HOLDING_NOT_FOUND")
	})
}
