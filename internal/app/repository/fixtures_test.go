package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createTestUser(t *testing.T, testDB *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "hash", Name: "Rider", Role: model.RoleUser}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

var skuSeq atomic.Int64

func createTestProduct(t *testing.T, testDB *gorm.DB, price float64, variantStocks ...int) *model.Product {
	t.Helper()
	product := &model.Product{
		Name:     "Aero Full Face",
		Brand:    "Steelbird",
		Category: model.CategoryFullFace,
		Price:    price,
		Stock:    10,
		IsActive: true,
	}
	for i, stock := range variantStocks {
		product.Variants = append(product.Variants, model.ProductVariant{
			SKU:   fmt.Sprintf("AFF-%d", skuSeq.Add(1)),
			Size:  []string{"M", "L", "XL"}[i%3],
			Color: "Matte Black",
			Stock: stock,
		})
	}
	require.NoError(t, NewProductRepository(testDB).Create(product))
	return product
}
