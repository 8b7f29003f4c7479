// Package app assembles the service layer. Adapters depend on this bundle
// rather than constructing services themselves, so the wiring (shared
// store client, bill variants, side-effect dependencies) lives in one
// place.
package app

import (
	"ordersheet/internal/core"
	"ordersheet/internal/images"
	"ordersheet/internal/sheetstore"
)

// Services is the full service layer handed to the web adapter.
type Services struct {
	Accounts  core.AccountService
	Orders    core.OrderService
	Products  core.ProductService
	Customers core.CustomerService
	Imports   core.ImportService
	Revenue   core.RevenueService
	Export    core.ExportService

	// LegacyBills serves partitions written with two header rows; Bills
	// serves the current single-header layout.
	LegacyBills core.BillService
	Bills       core.BillService

	Uploader images.Uploader
}

// New wires every service against one store client.
func New(client sheetstore.Client, uploader images.Uploader) *Services {
	products := core.NewProductService(client)
	customers := core.NewCustomerService(client)
	orders := core.NewOrderService(client, products, customers)
	imports := core.NewImportService(client)

	return &Services{
		Accounts:    core.NewAccountService(client),
		Orders:      orders,
		Products:    products,
		Customers:   customers,
		Imports:     imports,
		Revenue:     core.NewRevenueService(orders, imports),
		Export:      core.NewExportService(client),
		LegacyBills: core.NewBillService(client, core.LegacyBillVariant),
		Bills:       core.NewBillService(client, core.StandardBillVariant),
		Uploader:    uploader,
	}
}
