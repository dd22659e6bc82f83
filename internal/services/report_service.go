package services

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "stockfolio/internal/errors"
	"stockfolio/internal/logger"
	"stockfolio/internal/marketdata"
)

// lookupResult is the settled outcome of one symbol's price lookup:
// either a quote or the error that prevented one.
type lookupResult struct {
	quote marketdata.Quote
	err   error
}

// reportService builds per-user profit/loss reports. Price lookups are the
// only I/O-bound and failure-prone sub-operations, so they fan out
// concurrently per distinct symbol and fan back in before any line is
// emitted; a failed or delisted ticker degrades its own lines, never the
// report.
type reportService struct {
	holdings      HoldingServicer
	prices        PriceSource
	lookupTimeout time.Duration
}

// NewReportService creates a new ReportServicer. lookupTimeout bounds each
// symbol's price lookup; a hung provider call becomes a per-line provider
// failure instead of stalling the report.
func NewReportService(holdings HoldingServicer, prices PriceSource, lookupTimeout time.Duration) ReportServicer {
	return &reportService{
		holdings:      holdings,
		prices:        prices,
		lookupTimeout: lookupTimeout,
	}
}

// BuildReport loads the user's holdings, resolves each distinct symbol's
// latest price concurrently and emits one ProfitLossLine per holding, in
// the holdings' stored order. A user with no holdings at all is
// ErrNoHoldings, distinct from an empty-but-valid report.
func (s *reportService) BuildReport(ctx context.Context, userEmail string) ([]ProfitLossLine, error) {
	holdings, err := s.holdings.ListHoldings(userEmail)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, apperrors.ErrNoHoldings
	}

	// One lookup per distinct symbol; lots of the same symbol share it.
	symbols := make([]string, 0, len(holdings))
	seen := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			symbols = append(symbols, h.Symbol)
		}
	}

	results := make(map[string]lookupResult, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
			defer cancel()

			quote, err := s.prices.GetLatestPrice(lookupCtx, symbol)
			mu.Lock()
			results[symbol] = lookupResult{quote: quote, err: err}
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	lines := make([]ProfitLossLine, 0, len(holdings))
	for _, h := range holdings {
		line := ProfitLossLine{
			Symbol:   h.Symbol,
			Quantity: h.Quantity,
			BuyPrice: h.BuyPrice,
		}

		res := results[h.Symbol]
		if res.err != nil {
			line.Error = lookupErrorCode(res.err)
			logger.Get().Warnw("price lookup failed",
				"symbol", h.Symbol,
				"user", userEmail,
				"error", res.err.Error(),
			)
		} else {
			currentPrice := res.quote.Close
			profit := currentPrice.Sub(h.BuyPrice).Mul(h.Quantity)
			currentValue := currentPrice.Mul(h.Quantity)

			line.CurrentPrice = &currentPrice
			line.PriceDate = res.quote.Date
			line.Profit = &profit
			line.CurrentValue = &currentValue
		}

		lines = append(lines, line)
	}

	return lines, nil
}

// lookupErrorCode maps a lookup failure to the error code carried on the
// report line.
func lookupErrorCode(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return apperrors.ErrProviderFailure.Code
}
