package repository

import (
	"testing"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestProductRepository_CreateSumsVariantStock(t *testing.T) {
	testDB := setupTestDB(t)
	product := createTestProduct(t, testDB, 2499, 3, 4)

	found, err := NewProductRepository(testDB).FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, found.Stock)
	assert.Len(t, found.Variants, 2)
}

func TestProductRepository_GuardedDecrement(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	product := createTestProduct(t, testDB, 2499, 2)
	variantID := product.Variants[0].ID

	require.NoError(t, repo.DecrementVariantStock(variantID, 2))
	assert.ErrorIs(t, repo.DecrementVariantStock(variantID, 1), ErrStockGuard)

	require.NoError(t, repo.DecrementStock(product.ID, 2))
	assert.ErrorIs(t, repo.DecrementStock(product.ID, 1), ErrStockGuard)

	var p model.Product
	testDB.First(&p, product.ID)
	assert.Equal(t, 0, p.Stock)

	var v model.ProductVariant
	testDB.First(&v, variantID)
	assert.Equal(t, 0, v.Stock)
}

func TestProductRepository_Increment(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	product := createTestProduct(t, testDB, 2499, 1)

	require.NoError(t, repo.IncrementStock(product.ID, 3))
	require.NoError(t, repo.IncrementVariantStock(product.Variants[0].ID, 3))

	found, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, found.Stock)
	assert.Equal(t, 4, found.Variants[0].Stock)
}

func TestProductRepository_DecrementRollsBackWithTransaction(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	product := createTestProduct(t, testDB, 2499, 5)

	err := testDB.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		if err := txRepo.DecrementVariantStock(product.Variants[0].ID, 2); err != nil {
			return err
		}
		return txRepo.DecrementStock(product.ID, 99)
	})
	assert.ErrorIs(t, err, ErrStockGuard)

	found, err := repo.FindByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, found.Variants[0].Stock)
	assert.Equal(t, 5, found.Stock)
}

func TestProductRepository_FindVariantScopedToProduct(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	first := createTestProduct(t, testDB, 2499, 1)
	second := createTestProduct(t, testDB, 3499)

	_, err := repo.FindVariant(second.ID, first.Variants[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	v, err := repo.FindVariant(first.ID, first.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "M", v.Size)
}

func TestProductRepository_Delete(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewProductRepository(testDB)
	product := createTestProduct(t, testDB, 2499, 1)

	require.NoError(t, repo.Delete(product.ID))
	_, err := repo.FindByID(product.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(product.ID), gorm.ErrRecordNotFound)
}
