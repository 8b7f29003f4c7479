package core

import (
	"fmt"

	"ordersheet/internal/sheetstore"
)

// cellAt tolerates short rows; absent cells read as empty.
func cellAt(cells []sheetstore.Cell, i int) sheetstore.Cell {
	if i < len(cells) {
		return cells[i]
	}
	return sheetstore.Cell{}
}

func valueAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// MonthLabel is the "M/YYYY" tag attached to rows read from a partition.
func MonthLabel(year, month int) string {
	return fmt.Sprintf("%d/%d", month, year)
}

// MapOrderRows converts a typed grid into orders. Header rows are skipped
// per kind; blank rows are dropped by the kind's identity column
// (customerName for order sheets, productName for inventory).
func MapOrderRows(rows [][]sheetstore.Cell, kind SheetKind, year, month int) []Order {
	skip := kind.HeaderRows()
	if len(rows) <= skip {
		return []Order{}
	}

	orders := make([]Order, 0, len(rows)-skip)
	for i, row := range rows[skip:] {
		o := Order{
			RowIndex:     i,
			Date:         CellDate(cellAt(row, 0)),
			CustomerName: CellString(cellAt(row, 1)),
			ProductImage: ExtractImageURL(CellString(cellAt(row, 2))),
			ProductName:  CellString(cellAt(row, 3)),
			Color:        CellString(cellAt(row, 4)),
			Size:         CellString(cellAt(row, 5)),
			Quantity:     CellString(cellAt(row, 6)),
			Total:        CellString(cellAt(row, 7)),
			Status:       CellString(cellAt(row, 8)),
			LinkFb:       CellString(cellAt(row, 9)),
			ContactInfo:  CellString(cellAt(row, 10)),
			Note:         CellString(cellAt(row, 11)),
			ProductCode:  CellString(cellAt(row, 12)),
			OrderCode:    CellString(cellAt(row, 13)),
			ShippingCode: CellString(cellAt(row, 14)),
			Month:        MonthLabel(year, month),
		}
		if kind == KindInventory {
			if o.ProductName == "" {
				continue
			}
		} else if o.CustomerName == "" {
			continue
		}
		orders = append(orders, o)
	}
	return orders
}

// MapProductRows converts a typed grid into products, skipping the header
// row and dropping rows without a product code.
func MapProductRows(rows [][]sheetstore.Cell, year, month int) []Product {
	skip := KindProducts.HeaderRows()
	if len(rows) <= skip {
		return []Product{}
	}

	products := make([]Product, 0, len(rows)-skip)
	for i, row := range rows[skip:] {
		p := Product{
			RowIndex:     i,
			Date:         CellDate(cellAt(row, 0)),
			ProductCode:  CellString(cellAt(row, 1)),
			ProductImage: ExtractImageURL(CellString(cellAt(row, 2))),
			ProductName:  CellString(cellAt(row, 3)),
			Month:        MonthLabel(year, month),
		}
		if p.ProductCode == "" {
			continue
		}
		products = append(products, p)
	}
	return products
}

// orderRowValues lays out the 15-column A:O row written for an order.
func orderRowValues(date, customerName, productImage, productName, color, size, quantity, total, status, linkFb, contactInfo, note, productCode, orderCode, shippingCode string) []any {
	return []any{
		date,
		customerName,
		ImageFormula(productImage),
		productName,
		color,
		size,
		quantity,
		total,
		status,
		linkFb,
		contactInfo,
		note,
		productCode,
		orderCode,
		shippingCode,
	}
}
