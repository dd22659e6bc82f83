package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "stockfolio/internal/errors"
	"stockfolio/internal/services"
)

type mockReportService struct {
	buildReportFn func(ctx context.Context, userEmail string) ([]services.ProfitLossLine, error)
}

func (m *mockReportService) BuildReport(ctx context.Context, userEmail string) ([]services.ProfitLossLine, error) {
	if m.buildReportFn != nil {
		return m.buildReportFn(ctx, userEmail)
	}
	return []services.ProfitLossLine{}, nil
}

var _ services.ReportServicer = (*mockReportService)(nil)

func setupReportRouter(handler *ReportHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectIdentity("alice@test.com"))
	auth.GET("/stocks/report/:email", handler.GetProfitLossReport)
	return r
}

func TestReportHandler_GetProfitLossReport(t *testing.T) {
	t.Run("returns 200 with report lines", func(t *testing.T) {
		price := decimal.NewFromInt(120)
		profit := decimal.NewFromInt(40)
		value := decimal.NewFromInt(240)
		svc := &mockReportService{
			buildReportFn: func(_ context.Context, userEmail string) ([]services.ProfitLossLine, error) {
				if userEmail != "alice@test.com" {
					t.Errorf("expected report for alice@test.com, got %s", userEmail)
				}
				return []services.ProfitLossLine{
					{
						Symbol:       "AAPL",
						Quantity:     decimal.NewFromInt(2),
						BuyPrice:     decimal.NewFromInt(100),
						CurrentPrice: &price,
						PriceDate:    "2024-01-03",
						Profit:       &profit,
						CurrentValue: &value,
					},
					{
						Symbol:   "MSFT",
						Quantity: decimal.NewFromInt(1),
						BuyPrice: decimal.NewFromInt(300),
						Error:    "PROVIDER_FAILURE",
					},
				}, nil
			},
		}
		handler := NewReportHandler(svc, &mockAuditService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/stocks/report/alice@test.com", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		report := result["report"].([]interface{})
		if len(report) != 2 {
			t.Fatalf("expected 2 report lines, got %d", len(report))
		}
		first := report[0].(map[string]interface{})
		if first["symbol"] != "AAPL" {
			t.Errorf("expected first line AAPL, got %v", first["symbol"])
		}
		if _, present := first["error"]; present {
			t.Error("successful line should omit the error field")
		}
		second := report[1].(map[string]interface{})
		if second["error"] != "PROVIDER_FAILURE" {
			t.Errorf("expected PROVIDER_FAILURE on second line, got %v", second["error"])
		}
		if _, present := second["profit"]; present {
			t.Error("failed line should omit the profit field")
		}
	})

	t.Run("returns 403 for another user's report", func(t *testing.T) {
		svc := &mockReportService{
			buildReportFn: func(_ context.Context, _ string) ([]services.ProfitLossLine, error) {
				t.Error("report should not be built when ownership check fails")
				return nil, nil
			},
		}
		handler := NewReportHandler(svc, &mockAuditService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/stocks/report/bob@test.com", "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewReportHandler(&mockReportService{}, &mockAuditService{})
		r := gin.New()
		r.GET("/stocks/report/:email", handler.GetProfitLossReport)

		rec := doRequest(r, "GET", "/stocks/report/alice@test.com", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when user has no holdings", func(t *testing.T) {
		svc := &mockReportService{
			buildReportFn: func(_ context.Context, _ string) ([]services.ProfitLossLine, error) {
				return nil, apperrors.ErrNoHoldings
			},
		}
		handler := NewReportHandler(svc, &mockAuditService{})
		r := setupReportRouter(handler)

		rec := doRequest(r, "GET", "/stocks/report/alice@test.com", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NO_HOLDINGS")
	})

	t.Run("records audit entry", func(t *testing.T) {
		audit := &mockAuditService{}
		handler := NewReportHandler(&mockReportService{}, audit)
		r := setupReportRouter(handler)

		doRequest(r, "GET", "/stocks/report/alice@test.com", "")

		if len(audit.entries) != 1 || audit.entries[0] != "VIEW_REPORT" {
			t.Errorf("expected VIEW_REPORT audit entry, got %v", audit.entries)
		}
	})
}
