package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"stockfolio/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestHolding creates a holding lot for the given owner.
func CreateTestHolding(t *testing.T, db *gorm.DB, userEmail, symbol string, buyPrice, quantity string) *models.Holding {
	t.Helper()

	price, err := decimal.NewFromString(buyPrice)
	if err != nil {
		t.Fatalf("invalid buy price %q: %v", buyPrice, err)
	}
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		t.Fatalf("invalid quantity %q: %v", quantity, err)
	}

	holding := &models.Holding{
		UserEmail:    userEmail,
		Symbol:       symbol,
		BuyPrice:     price,
		Quantity:     qty,
		PurchaseDate: time.Now(),
	}
	if err := db.Create(holding).Error; err != nil {
		t.Fatalf("failed to create test holding: %v", err)
	}
	return holding
}
