package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stockfolio/internal/config"
	"stockfolio/internal/handlers"
	"stockfolio/internal/logger"
	"stockfolio/internal/marketdata"
	"stockfolio/internal/middleware"
	"stockfolio/internal/models"
	"stockfolio/internal/services"
	"stockfolio/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Prices *priceServer
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// priceServer fakes the Alpha Vantage daily series endpoint. Symbols
// registered via setQuote return a one-day series; setRateLimited makes a
// symbol answer with a throttling note; everything else returns an empty
// object, which the client treats as an unknown symbol.
type priceServer struct {
	server      *httptest.Server
	quotes      map[string]string
	rateLimited map[string]bool
}

func newPriceServer(t *testing.T) *priceServer {
	t.Helper()
	ps := &priceServer{
		quotes:      make(map[string]string),
		rateLimited: make(map[string]bool),
	}
	ps.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		if ps.rateLimited[symbol] {
			fmt.Fprint(w, `{"Note":"Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)
			return
		}
		close, ok := ps.quotes[symbol]
		if !ok {
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprintf(w, `{"Time Series (Daily)":{"2024-01-03":{"1. open":%q,"2. high":%q,"3. low":%q,"4. close":%q,"5. volume":"1000"}}}`,
			close, close, close, close)
	}))
	t.Cleanup(ps.server.Close)
	return ps
}

func (ps *priceServer) setQuote(symbol, close string) {
	ps.quotes[symbol] = close
}

func (ps *priceServer) setRateLimited(symbol string) {
	ps.rateLimited[symbol] = true
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Holding{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a fake market data server.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	prices := newPriceServer(t)

	// Services
	userService := services.NewUserService(db)
	holdingService := services.NewHoldingService(db)
	auditService := services.NewAuditService(db)
	priceClient := marketdata.NewClient(config.MarketDataConfig{
		APIKey:  "test-key",
		BaseURL: prices.server.URL,
		Timeout: 2 * time.Second,
	})
	reportService := services.NewReportService(holdingService, priceClient, 2*time.Second)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	holdingHandler := handlers.NewHoldingHandler(holdingService, auditService)
	reportHandler := handlers.NewReportHandler(reportService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	stocks := protected.Group("/stocks")
	stocks.POST("", holdingHandler.AddHolding)
	stocks.GET("", holdingHandler.ListHoldings)
	stocks.GET("/report/:email", reportHandler.GetProfitLossReport)
	stocks.DELETE("/:symbol", holdingHandler.DeleteHolding)

	return &testApp{DB: db, Router: router, Prices: prices}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access and refresh tokens.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string), result["refresh_token"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["token"].(string), result["refresh_token"].(string)
}
