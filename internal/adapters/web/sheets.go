package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ordersheet/internal/core"
)

// orderKind reads and validates the type= parameter, restricted to the
// order-family partitions this surface serves.
func orderKind(raw string) (core.SheetKind, error) {
	kind, err := core.ParseSheetKind(raw)
	if err != nil {
		return "", err
	}
	switch kind {
	case core.KindOrders, core.KindCTVOrders, core.KindInventory:
		return kind, nil
	}
	return "", core.Validationf("sheet type %q is not an order partition", raw)
}

// listSheet handles GET /api/sheets?type=&year=&month=.
func (h *Handler) listSheet(w http.ResponseWriter, r *http.Request) {
	kind, err := orderKind(r.URL.Query().Get("type"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	year, month := monthYearQuery(r)

	orders, err := h.svc.Orders.List(r.Context(), kind, year, month)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"data": orders})
}

type orderBody struct {
	Date         string `json:"date"`
	CustomerName string `json:"customerName"`
	ProductCode  string `json:"productCode"`
	OrderCode    string `json:"orderCode"`
	ShippingCode string `json:"shippingCode"`
	ProductImage string `json:"productImage"`
	ProductName  string `json:"productName"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	Quantity     string `json:"quantity"`
	Total        string `json:"total"`
	Status       string `json:"status"`
	LinkFb       string `json:"linkFb"`
	ContactInfo  string `json:"contactInfo"`
	Note         string `json:"note"`
}

// createOrder handles POST /api/sheets?type=.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	kind, err := orderKind(r.URL.Query().Get("type"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	var body orderBody
	if !decodeJSON(w, r, &body) {
		return
	}

	generatedCode, err := h.svc.Orders.Create(r.Context(), kind, core.OrderCreateRequest{
		Date:         body.Date,
		CustomerName: body.CustomerName,
		ProductCode:  body.ProductCode,
		OrderCode:    body.OrderCode,
		ShippingCode: body.ShippingCode,
		ProductImage: body.ProductImage,
		ProductName:  body.ProductName,
		Color:        body.Color,
		Size:         body.Size,
		Quantity:     body.Quantity,
		Total:        body.Total,
		Status:       body.Status,
		LinkFb:       body.LinkFb,
		ContactInfo:  body.ContactInfo,
		Note:         body.Note,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"message": "Order added successfully",
		"data":    map[string]string{"productCode": generatedCode},
	})
}

type orderUpdateBody struct {
	Date         *string `json:"date"`
	CustomerName *string `json:"customerName"`
	ProductCode  *string `json:"productCode"`
	OrderCode    *string `json:"orderCode"`
	ShippingCode *string `json:"shippingCode"`
	ProductImage *string `json:"productImage"`
	ProductName  *string `json:"productName"`
	Color        *string `json:"color"`
	Size         *string `json:"size"`
	Quantity     *string `json:"quantity"`
	Total        *string `json:"total"`
	Status       *string `json:"status"`
	LinkFb       *string `json:"linkFb"`
	ContactInfo  *string `json:"contactInfo"`
	Note         *string `json:"note"`
	Month        string  `json:"month"`
	SheetType    string  `json:"sheetType"`
}

// updateOrder handles PUT /api/sheets/{rowIndex}. Absent body fields keep
// the stored cell values.
func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	rowIndex, err := strconv.Atoi(chi.URLParam(r, "rowIndex"))
	if err != nil || rowIndex < 0 {
		writeError(w, r, "Missing rowIndex parameter", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	var body orderUpdateBody
	if !decodeJSON(w, r, &body) {
		return
	}
	kind, err := orderKind(body.SheetType)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	err = h.svc.Orders.Update(r.Context(), kind, rowIndex, core.OrderUpdateRequest{
		Date:         body.Date,
		CustomerName: body.CustomerName,
		ProductCode:  body.ProductCode,
		OrderCode:    body.OrderCode,
		ShippingCode: body.ShippingCode,
		ProductImage: body.ProductImage,
		ProductName:  body.ProductName,
		Color:        body.Color,
		Size:         body.Size,
		Quantity:     body.Quantity,
		Total:        body.Total,
		Status:       body.Status,
		LinkFb:       body.LinkFb,
		ContactInfo:  body.ContactInfo,
		Note:         body.Note,
		Month:        body.Month,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "message": "Order updated successfully"})
}

// updateOrderStatus handles PUT /api/sheets/status.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RowIndex     *int   `json:"rowIndex"`
		Status       string `json:"status"`
		SelectedDate *struct {
			Month int `json:"month"`
			Year  int `json:"year"`
		} `json:"selectedDate"`
		SheetType string `json:"sheetType"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.RowIndex == nil || body.Status == "" || body.SelectedDate == nil {
		writeError(w, r, "Missing required fields: rowIndex, status, selectedDate", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	kind, err := orderKind(body.SheetType)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	status, err := core.ParseOrderStatus(body.Status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	err = h.svc.Orders.UpdateStatus(r.Context(), kind, *body.RowIndex, body.SelectedDate.Year, body.SelectedDate.Month, status)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "message": "Status updated successfully"})
}

// deleteOrder handles DELETE /api/sheets/{rowIndex}?month=&year=&sheetType=.
// Rows below the deleted one shift up, so any rowIndex the caller still
// holds for this partition is stale afterwards.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	rowIndex, err := strconv.Atoi(chi.URLParam(r, "rowIndex"))
	if err != nil || rowIndex < 0 {
		writeError(w, r, "Missing rowIndex parameter", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	month, merr := strconv.Atoi(q.Get("month"))
	year, yerr := strconv.Atoi(q.Get("year"))
	if merr != nil || yerr != nil || q.Get("sheetType") == "" {
		writeError(w, r, "Missing month, year, or sheetType parameter", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	kind, err := orderKind(q.Get("sheetType"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}

	if err := h.svc.Orders.Delete(r.Context(), kind, rowIndex, year, month); err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "message": "Order deleted successfully"})
}

// exportSheet handles GET /api/sheets/export?type=&year=&month= and streams
// the partition as an XLSX workbook.
func (h *Handler) exportSheet(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseSheetKind(r.URL.Query().Get("type"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	year, month := monthYearQuery(r)

	workbook, err := h.svc.Export.MonthWorkbook(r.Context(), kind, year, month)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	filename := core.PartitionName(kind, year, month) + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(workbook)
}

// listProducts handles GET /api/sheets/products.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Products.ListAll(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "data": products, "total": len(products)})
}

// searchProduct handles GET /api/sheets/products/search/{productCode}.
func (h *Handler) searchProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Products.Search(r.Context(), chi.URLParam(r, "productCode"))
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "data": product})
}

// createProduct handles POST /api/sheets/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductCode  string `json:"productCode"`
		ProductImage string `json:"productImage"`
		ProductName  string `json:"productName"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	product, created, err := h.svc.Products.Create(r.Context(), body.ProductCode, body.ProductImage, body.ProductName)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	message := "Sản phẩm đã tồn tại"
	if created {
		message = "Đã thêm sản phẩm mới vào sheet"
	}
	writeJSON(w, map[string]any{"success": true, "message": message, "data": product})
}

// listCustomers handles GET /api/sheets/customers.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.svc.Customers.List(r.Context())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "data": customers, "total": len(customers)})
}

// revenue handles POST /api/sheets/revenue with {type:"month"|"year"}.
func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type  string `json:"type"`
		Year  int    `json:"year"`
		Month int    `json:"month"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	var (
		report *core.RevenueReport
		err    error
	)
	switch body.Type {
	case "month":
		report, err = h.svc.Revenue.Monthly(r.Context(), body.Year, body.Month)
	case "year":
		report, err = h.svc.Revenue.Yearly(r.Context(), body.Year)
	default:
		writeError(w, r, "type must be \"month\" or \"year\"", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// createImport handles POST /api/sheets/ordchina.
func (h *Handler) createImport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ManagementCode string `json:"managementCode"`
		ProductName    string `json:"productName"`
		ProductImage   string `json:"productImage"`
		Status         string `json:"status"`
		ShippingCodes  string `json:"shippingCodes"`
		Note           string `json:"note"`
		OrderDate      string `json:"orderDate"`
		Quantity       string `json:"quantity"`
		ImportPrice    string `json:"importPrice"`
		Date           struct {
			Month int `json:"month"`
			Year  int `json:"year"`
		} `json:"date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	err := h.svc.Imports.Create(r.Context(), core.ImportCreateRequest{
		ManagementCode: body.ManagementCode,
		ProductName:    body.ProductName,
		ProductImage:   body.ProductImage,
		Status:         body.Status,
		ShippingCodes:  body.ShippingCodes,
		Note:           body.Note,
		OrderDate:      body.OrderDate,
		Quantity:       body.Quantity,
		ImportPrice:    body.ImportPrice,
		Month:          body.Date.Month,
		Year:           body.Date.Year,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "managementCode": body.ManagementCode})
}
