package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

// Sheet columns, in order. Rows sharing name and brand become variants of
// one product.
var productColumns = []string{
	"name", "brand", "category", "price", "discount_price", "description",
	"sku", "size", "color", "additional_price", "stock",
}

var validCategories = map[model.ProductCategory]bool{
	model.CategoryFullFace:  true,
	model.CategoryOpenFace:  true,
	model.CategoryModular:   true,
	model.CategoryOffRoad:   true,
	model.CategoryHalfFace:  true,
	model.CategoryAccessory: true,
}

type importReport struct {
	Variants int
	Skipped  int
}

func readProductsFromXLSX(filePath string) ([]model.Product, importReport, error) {
	var report importReport

	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, report, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, report, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, report, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, report, fmt.Errorf("no data found in XLSX file")
	}

	var products []model.Product
	index := make(map[string]int)
	seenSKU := make(map[string]bool)

	// first row is the header
	for _, row := range rows[1:] {
		product, variant, ok := parseProductRow(row)
		if !ok || seenSKU[variant.SKU] {
			report.Skipped++
			continue
		}
		seenSKU[variant.SKU] = true

		key := strings.ToLower(product.Name + "|" + product.Brand)
		i, exists := index[key]
		if !exists {
			products = append(products, product)
			i = len(products) - 1
			index[key] = i
		}
		products[i].Variants = append(products[i].Variants, variant)
		report.Variants++
	}

	return products, report, nil
}

func parseProductRow(row []string) (model.Product, model.ProductVariant, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := cell(0)
	sku := cell(6)
	category := model.ProductCategory(strings.ToLower(cell(2)))
	if name == "" || sku == "" || !validCategories[category] {
		return model.Product{}, model.ProductVariant{}, false
	}

	price, err := strconv.ParseFloat(cell(3), 64)
	if err != nil || price <= 0 {
		return model.Product{}, model.ProductVariant{}, false
	}
	stock, err := strconv.Atoi(cell(10))
	if err != nil || stock < 0 {
		return model.Product{}, model.ProductVariant{}, false
	}

	product := model.Product{
		Name:        name,
		Brand:       cell(1),
		Category:    category,
		Price:       price,
		Description: cell(5),
		IsActive:    true,
	}
	if discount, err := strconv.ParseFloat(cell(4), 64); err == nil && discount > 0 && discount < price {
		product.DiscountPrice = &discount
	}

	variant := model.ProductVariant{
		SKU:   strings.ToUpper(sku),
		Size:  strings.ToUpper(cell(7)),
		Color: cell(8),
		Stock: stock,
	}
	if extra, err := strconv.ParseFloat(cell(9), 64); err == nil && extra >= 0 {
		variant.AdditionalPrice = extra
	}

	return product, variant, true
}
