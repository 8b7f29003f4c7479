package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ordersheet/internal/core"
)

// ── Current layout (/api/ordviet) ───────────────────────────────────────────

// listBills handles GET /api/ordviet/bills?month=&year=.
func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	month, merr := strconv.Atoi(r.URL.Query().Get("month"))
	year, yerr := strconv.Atoi(r.URL.Query().Get("year"))
	if merr != nil || yerr != nil {
		writeError(w, r, "Month and year are required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	bills, err := h.svc.Bills.List(r.Context(), year, month)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "data": bills})
}

// createBill handles POST /api/ordviet/bills.
func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BillImage   string `json:"billImage"`
		Status      string `json:"status"`
		Quantity    int    `json:"quantity"`
		TotalAmount int64  `json:"totalAmount"`
		Note        string `json:"note"`
		Month       int    `json:"month"`
		Year        int    `json:"year"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	bill, err := h.svc.Bills.Create(r.Context(), core.BillCreateRequest{
		BillImage:   body.BillImage,
		Status:      body.Status,
		Quantity:    body.Quantity,
		TotalAmount: body.TotalAmount,
		Note:        body.Note,
		Month:       body.Month,
		Year:        body.Year,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"success": true,
		"data":    map[string]string{"billCode": bill.BillCode},
		"message": "Bill created successfully",
	})
}

type billUpdateBody struct {
	BillImage   *string `json:"billImage"`
	Status      *string `json:"status"`
	Quantity    *int    `json:"quantity"`
	TotalAmount *int64  `json:"totalAmount"`
	Note        *string `json:"note"`
	Month       int     `json:"month"`
	Year        int     `json:"year"`
}

func (b billUpdateBody) toCore() core.BillUpdateRequest {
	return core.BillUpdateRequest{
		BillImage:   b.BillImage,
		Status:      b.Status,
		Quantity:    b.Quantity,
		TotalAmount: b.TotalAmount,
		Note:        b.Note,
		Month:       b.Month,
		Year:        b.Year,
	}
}

// updateBill handles PUT /api/ordviet/bills/{billCode}. Absent fields keep
// the stored values.
func (h *Handler) updateBill(w http.ResponseWriter, r *http.Request) {
	var body billUpdateBody
	if !decodeJSON(w, r, &body) {
		return
	}
	err := h.svc.Bills.Update(r.Context(), chi.URLParam(r, "billCode"), body.toCore())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "message": "Bill updated successfully"})
}

// domesticOrders handles GET /api/ordviet/hang-viet-orders?months=&year=&customerType=.
func (h *Handler) domesticOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, yerr := strconv.Atoi(q.Get("year"))
	customerType := q.Get("customerType")
	if q.Get("months") == "" || yerr != nil || customerType == "" {
		writeError(w, r, "Months, year, and customerType are required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	var months []int
	for _, raw := range strings.Split(q.Get("months"), ",") {
		m, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, r, fmt.Sprintf("invalid month %q", raw), "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
		months = append(months, m)
	}
	kind := core.KindCTVOrders
	if customerType == "customer" {
		kind = core.KindOrders
	}

	orders, err := h.svc.Orders.ListDomestic(r.Context(), kind, months, year)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "data": orders})
}

// processOrders handles POST /api/ordviet/process-orders.
func (h *Handler) processOrders(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BillCode        string `json:"billCode"`
		OrderRowIndices []struct {
			RowIndex int `json:"rowIndex"`
			Month    int `json:"month"`
		} `json:"orderRowIndices"`
		Months       []int  `json:"months"`
		Year         int    `json:"year"`
		CustomerType string `json:"customerType"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.BillCode == "" || len(body.OrderRowIndices) == 0 || len(body.Months) == 0 || body.Year == 0 || body.CustomerType == "" {
		writeError(w, r, "All fields are required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	kind := core.KindCTVOrders
	if body.CustomerType == "customer" {
		kind = core.KindOrders
	}
	refs := make([]core.OrderRef, 0, len(body.OrderRowIndices))
	for _, item := range body.OrderRowIndices {
		refs = append(refs, core.OrderRef{
			RowIndex: item.RowIndex,
			Month:    item.Month,
			Year:     body.Year,
			Kind:     kind,
		})
	}

	results, err := h.svc.Bills.ProcessOrders(r.Context(), core.ProcessOrdersRequest{
		BillCode:  body.BillCode,
		Orders:    refs,
		BillMonth: body.Months[0],
		BillYear:  body.Year,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"success": true,
		"results": results,
		"message": "Orders processed successfully",
	})
}

// ── Legacy layout (/api/sheets/ordviet) ─────────────────────────────────────

// legacyListBills handles GET /api/sheets/ordviet/bills?month=&year=. A
// missing partition reads as an empty list.
func (h *Handler) legacyListBills(w http.ResponseWriter, r *http.Request) {
	year, month := monthYearQuery(r)
	bills, err := h.svc.LegacyBills.List(r.Context(), year, month)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"data": bills})
}

// legacyCreateBill handles POST /api/sheets/ordviet/bills.
func (h *Handler) legacyCreateBill(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ImageURL string `json:"imageUrl"`
		Status   string `json:"status"`
		Quantity int    `json:"quantity"`
		Total    int64  `json:"total"`
		Note     string `json:"note"`
		Month    int    `json:"month"`
		Year     int    `json:"year"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	bill, err := h.svc.LegacyBills.Create(r.Context(), core.BillCreateRequest{
		BillImage:   body.ImageURL,
		Status:      body.Status,
		Quantity:    body.Quantity,
		TotalAmount: body.Total,
		Note:        body.Note,
		Month:       body.Month,
		Year:        body.Year,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "data": bill})
}

// legacyUpdateBill handles PUT /api/sheets/ordviet/bills/{billCode}. The
// bill is located by code; absent fields keep the stored values.
func (h *Handler) legacyUpdateBill(w http.ResponseWriter, r *http.Request) {
	var body billUpdateBody
	if !decodeJSON(w, r, &body) {
		return
	}
	err := h.svc.LegacyBills.Update(r.Context(), chi.URLParam(r, "billCode"), body.toCore())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "message": "Bill updated successfully"})
}

// legacyAwaitingOrders handles GET /api/sheets/ordviet/hang-viet-orders.
// months= repeats, one "M_YYYY" value per partition to scan.
func (h *Handler) legacyAwaitingOrders(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["months"]
	if len(raw) == 0 {
		writeError(w, r, "months parameter is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	var months []core.MonthYear
	for _, value := range raw {
		var my core.MonthYear
		if _, err := fmt.Sscanf(value, "%d_%d", &my.Month, &my.Year); err != nil {
			writeError(w, r, fmt.Sprintf("invalid months value %q", value), "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
		months = append(months, my)
	}

	orders, err := h.svc.Orders.ListAwaitingBill(r.Context(), months)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"data": orders})
}

// legacyProcessOrders handles POST /api/sheets/ordviet/process-orders. Each
// order entry carries its own "M/YYYY" partition and sheet type.
func (h *Handler) legacyProcessOrders(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BillCode string `json:"billCode"`
		Orders   []struct {
			RowIndex  int    `json:"rowIndex"`
			Month     string `json:"month"`
			SheetType string `json:"sheetType"`
		} `json:"orders"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if len(body.Orders) == 0 {
		writeError(w, r, "orders array is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if body.BillCode == "" {
		writeError(w, r, "billCode is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	refs := make([]core.OrderRef, 0, len(body.Orders))
	for _, item := range body.Orders {
		var month, year int
		if _, err := fmt.Sscanf(item.Month, "%d/%d", &month, &year); err != nil {
			writeError(w, r, fmt.Sprintf("invalid month value %q", item.Month), "VALIDATION_ERROR", http.StatusBadRequest)
			return
		}
		kind := core.KindOrders
		if item.SheetType == string(core.KindCTVOrders) {
			kind = core.KindCTVOrders
		}
		refs = append(refs, core.OrderRef{
			RowIndex: item.RowIndex,
			Month:    month,
			Year:     year,
			Kind:     kind,
		})
	}

	results, err := h.svc.LegacyBills.ProcessOrders(r.Context(), core.ProcessOrdersRequest{
		BillCode: body.BillCode,
		Orders:   refs,
	})
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	processed := 0
	for _, res := range results {
		if res.Success {
			processed++
		}
	}
	writeJSON(w, map[string]any{
		"success": true,
		"results": results,
		"message": fmt.Sprintf("Processed %d orders successfully", processed),
	})
}
