package service

import (
	"fmt"

	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const InvoiceContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const invoiceSheet = "Invoice"

func InvoiceFilename(order *model.Order) string {
	return fmt.Sprintf("invoice-%s.xlsx", order.OrderNumber)
}

// BuildInvoice renders an order snapshot as a single-sheet XLSX workbook.
// It reads only the order itself, never the live catalog.
func BuildInvoice(order *model.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), invoiceSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	address := order.ShippingAddress.Data()
	rows := [][]interface{}{
		{"HelmetKart Tax Invoice"},
		{"Order number", order.OrderNumber},
		{"Order date", order.CreatedAt.Format("2006-01-02")},
		{"Payment method", string(order.PaymentMethod)},
		{"Payment status", string(order.PaymentStatus)},
		{"Ship to", address.FullName},
		{"", address.Line1},
	}
	if address.Line2 != "" {
		rows = append(rows, []interface{}{"", address.Line2})
	}
	rows = append(rows,
		[]interface{}{"", fmt.Sprintf("%s, %s %s", address.City, address.State, address.PostalCode)},
		[]interface{}{"Phone", address.Phone},
		[]interface{}{},
		[]interface{}{"Item", "Size", "Color", "Unit price", "Quantity", "Amount"},
	)

	for _, item := range order.Items {
		rows = append(rows, []interface{}{
			item.ProductName, item.Size, item.Color, item.UnitPrice, item.Quantity, item.Subtotal,
		})
	}

	rows = append(rows,
		[]interface{}{},
		[]interface{}{"", "", "", "", "Subtotal", order.Subtotal},
		[]interface{}{"", "", "", "", "Discount", -order.Discount},
		[]interface{}{"", "", "", "", "Shipping", order.ShippingCharge},
		[]interface{}{"", "", "", "", "Tax", order.Tax},
		[]interface{}{"", "", "", "", "Total", order.Total},
	)
	if order.CouponCode != "" {
		rows = append(rows, []interface{}{"", "", "", "", "Coupon", order.CouponCode})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(invoiceSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write invoice row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(invoiceSheet, "A", "A", 40); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(invoiceSheet, "B", "F", 14); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write invoice: %w", err)
	}
	return buf.Bytes(), nil
}
