package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"ordersheet/internal/sheetstore"
)

// MonthYear addresses one monthly partition.
type MonthYear struct {
	Month int
	Year  int
}

// OrderCreateRequest carries the full column set for a new order row.
// ProductCode left empty together with a non-empty ProductImage triggers
// catalog registration, and the generated code is written into the row.
type OrderCreateRequest struct {
	Date         string
	CustomerName string
	ProductCode  string
	OrderCode    string
	ShippingCode string
	ProductImage string
	ProductName  string
	Color        string
	Size         string
	Quantity     string
	Total        string
	Status       string
	LinkFb       string
	ContactInfo  string
	Note         string
}

// OrderUpdateRequest updates a row in place. Nil fields keep the stored
// value; set fields overwrite it. Month ("M/YYYY") selects the partition,
// falling back to the partition of Date, then of the current time.
type OrderUpdateRequest struct {
	Date         *string
	CustomerName *string
	ProductCode  *string
	OrderCode    *string
	ShippingCode *string
	ProductImage *string
	ProductName  *string
	Color        *string
	Size         *string
	Quantity     *string
	Total        *string
	Status       *string
	LinkFb       *string
	ContactInfo  *string
	Note         *string
	Month        string
}

// OrderService is the record access layer for the order-family partitions
// (customer sales, CTV sales, inventory intake).
type OrderService interface {
	// List reads one partition. A missing partition reads as empty.
	List(ctx context.Context, kind SheetKind, year, month int) ([]Order, error)
	// Create appends a new row and runs the catalog and customer-directory
	// side effects. It returns the product code generated for the row, or
	// "" when the request already carried one.
	Create(ctx context.Context, kind SheetKind, req OrderCreateRequest) (string, error)
	Update(ctx context.Context, kind SheetKind, rowIndex int, req OrderUpdateRequest) error
	UpdateStatus(ctx context.Context, kind SheetKind, rowIndex, year, month int, status OrderStatus) error
	Delete(ctx context.Context, kind SheetKind, rowIndex, year, month int) error

	// ListAwaitingBill scans customer and CTV partitions for orders still in
	// the ordered state with no order code attached.
	ListAwaitingBill(ctx context.Context, months []MonthYear) ([]Order, error)
	// ListDomestic scans one kind's partitions for orders tagged HÀNG VIỆT.
	ListDomestic(ctx context.Context, kind SheetKind, months []int, year int) ([]Order, error)
}

type orderService struct {
	client    sheetstore.Client
	products  ProductService
	customers CustomerService
	now       func() time.Time
}

func NewOrderService(client sheetstore.Client, products ProductService, customers CustomerService) OrderService {
	return &orderService{
		client:    client,
		products:  products,
		customers: customers,
		now:       time.Now,
	}
}

func (s *orderService) List(ctx context.Context, kind SheetKind, year, month int) ([]Order, error) {
	rows, err := s.client.Grid(ctx, PartitionName(kind, year, month))
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return []Order{}, nil
		}
		return nil, fmt.Errorf("list %s %d/%d: %w", kind, month, year, err)
	}
	return MapOrderRows(rows, kind, year, month), nil
}

// ── Create ───────────────────────────────────────────────────────────────────

func (s *orderService) Create(ctx context.Context, kind SheetKind, req OrderCreateRequest) (string, error) {
	status := req.Status
	if status == "" {
		status = string(StatusOrdered)
	} else if _, err := ParseOrderStatus(status); err != nil {
		return "", err
	}

	date := s.now()
	if req.Date != "" {
		date = ParseFlexibleDate(req.Date)
	}

	// Register the product first: an order referencing an image without a
	// catalog code must not land if the catalog write fails.
	generatedCode := ""
	if req.ProductCode == "" && req.ProductImage != "" {
		code, err := s.products.Register(ctx, date, req.ProductImage, req.ProductName)
		if err != nil {
			return "", fmt.Errorf("register product for order: %w", err)
		}
		generatedCode = code
	}

	// Directory upkeep is best effort; a failure here never blocks the order.
	if err := s.customers.Ensure(ctx, req.CustomerName, req.ContactInfo, req.LinkFb); err != nil {
		log.Printf("order create: ensure customer %q: %v", req.CustomerName, err)
	}

	sheetName, err := EnsurePartition(ctx, s.client, kind, date.Year(), int(date.Month()))
	if err != nil {
		return "", fmt.Errorf("ensure %s partition: %w", kind, err)
	}

	productCode := req.ProductCode
	if productCode == "" {
		productCode = generatedCode
	}
	row := orderRowValues(
		FormatDateForSheet(date), req.CustomerName, req.ProductImage, req.ProductName,
		req.Color, req.Size, req.Quantity, req.Total, status,
		req.LinkFb, req.ContactInfo, req.Note, productCode, req.OrderCode, req.ShippingCode,
	)
	if err := s.client.Append(ctx, sheetName+"!A:O", [][]any{row}); err != nil {
		return "", fmt.Errorf("append order: %w", err)
	}
	return generatedCode, nil
}

// ── Update ───────────────────────────────────────────────────────────────────

// updatePartition resolves which partition an update addresses.
func (s *orderService) updatePartition(req OrderUpdateRequest) (year, month int) {
	if req.Month != "" {
		var m, y int
		if _, err := fmt.Sscanf(req.Month, "%d/%d", &m, &y); err == nil && m >= 1 && m <= 12 {
			return y, m
		}
	}
	t := s.now()
	if req.Date != nil && *req.Date != "" {
		t = ParseFlexibleDate(*req.Date)
	}
	return t.Year(), int(t.Month())
}

func (s *orderService) Update(ctx context.Context, kind SheetKind, rowIndex int, req OrderUpdateRequest) error {
	if rowIndex < 0 {
		return Validationf("rowIndex must not be negative")
	}
	if req.Status != nil && *req.Status != "" {
		if _, err := ParseOrderStatus(*req.Status); err != nil {
			return err
		}
	}

	year, month := s.updatePartition(req)
	sheetName := PartitionName(kind, year, month)
	targetRow := rowIndex + kind.HeaderRows() + 1

	grid, err := s.client.Grid(ctx, sheetName)
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return NotFoundf("sheet %q not found", sheetName)
		}
		return fmt.Errorf("read %s: %w", sheetName, err)
	}
	if targetRow > len(grid) {
		return NotFoundf("no order at row %d in %s", rowIndex, sheetName)
	}

	// Current raw cell text, formulas included, so unset fields survive the
	// full-row rewrite verbatim.
	current := make([]string, 15)
	for i := range current {
		current[i] = CellString(cellAt(grid[targetRow-1], i))
	}

	date := s.now()
	if req.Date != nil && *req.Date != "" {
		date = ParseFlexibleDate(*req.Date)
	}

	generatedCode := ""
	noCode := (req.ProductCode == nil || *req.ProductCode == "") && current[12] == ""
	if noCode && req.ProductImage != nil && *req.ProductImage != "" {
		code, err := s.products.Register(ctx, date, *req.ProductImage, strOr(req.ProductName, current[3]))
		if err != nil {
			return fmt.Errorf("register product for order update: %w", err)
		}
		generatedCode = code
	}

	name := strOr(req.CustomerName, current[1])
	if err := s.customers.Ensure(ctx, name, strOr(req.ContactInfo, current[10]), strOr(req.LinkFb, current[9])); err != nil {
		log.Printf("order update: ensure customer %q: %v", name, err)
	}

	merged := []any{
		strOr(req.Date, current[0]),
		name,
		imageOr(req.ProductImage, current[2]),
		strOr(req.ProductName, current[3]),
		strOr(req.Color, current[4]),
		strOr(req.Size, current[5]),
		strOr(req.Quantity, current[6]),
		strOr(req.Total, current[7]),
		strOr(req.Status, current[8]),
		strOr(req.LinkFb, current[9]),
		strOr(req.ContactInfo, current[10]),
		strOr(req.Note, current[11]),
		codeOr(req.ProductCode, generatedCode, current[12]),
		strOr(req.OrderCode, current[13]),
		strOr(req.ShippingCode, current[14]),
	}

	rng := fmt.Sprintf("%s!A%d:O%d", sheetName, targetRow, targetRow)
	if err := s.client.Update(ctx, rng, [][]any{merged}); err != nil {
		return fmt.Errorf("update order row %d: %w", targetRow, err)
	}
	return nil
}

func strOr(p *string, current string) string {
	if p != nil {
		return *p
	}
	return current
}

// imageOr re-wraps a newly supplied image URL as a formula; an unset field
// keeps the stored formula text untouched.
func imageOr(p *string, current string) string {
	if p != nil {
		return ImageFormula(*p)
	}
	return current
}

func codeOr(p *string, generated, current string) string {
	if p != nil && *p != "" {
		return *p
	}
	if generated != "" {
		return generated
	}
	return current
}

// ── Status and deletion ──────────────────────────────────────────────────────

func (s *orderService) UpdateStatus(ctx context.Context, kind SheetKind, rowIndex, year, month int, status OrderStatus) error {
	if rowIndex < 0 {
		return Validationf("rowIndex must not be negative")
	}
	sheetName := PartitionName(kind, year, month)
	targetRow := rowIndex + kind.HeaderRows() + 1
	rng := fmt.Sprintf("%s!I%d", sheetName, targetRow)

	rows, err := s.client.Values(ctx, rng)
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return NotFoundf("sheet %q not found", sheetName)
		}
		return fmt.Errorf("read status: %w", err)
	}
	currentText := ""
	if len(rows) > 0 && len(rows[0]) > 0 {
		currentText = rows[0][0]
	}
	if current, err := ParseOrderStatus(currentText); err == nil {
		if !current.CanTransitionTo(status) {
			return Validationf("cannot change status from %s to %s", current, status)
		}
	}

	if err := s.client.Update(ctx, rng, [][]any{{string(status)}}); err != nil {
		return fmt.Errorf("update status row %d: %w", targetRow, err)
	}
	return nil
}

func (s *orderService) Delete(ctx context.Context, kind SheetKind, rowIndex, year, month int) error {
	if rowIndex < 0 {
		return Validationf("rowIndex must not be negative")
	}
	sheetName := PartitionName(kind, year, month)
	sheetID, err := ResolveSheetID(ctx, s.client, sheetName)
	if err != nil {
		return err
	}
	targetRow := int64(rowIndex + kind.HeaderRows() + 1)
	if err := s.client.DeleteRows(ctx, sheetID, targetRow-1, targetRow); err != nil {
		return fmt.Errorf("delete order row %d: %w", targetRow, err)
	}
	return nil
}

// ── Bill eligibility scans ───────────────────────────────────────────────────

func (s *orderService) ListAwaitingBill(ctx context.Context, months []MonthYear) ([]Order, error) {
	all := []Order{}
	for _, my := range months {
		for _, kind := range []SheetKind{KindOrders, KindCTVOrders} {
			orders, err := s.List(ctx, kind, my.Year, my.Month)
			if err != nil {
				return nil, err
			}
			for _, o := range orders {
				if o.Status != string(StatusOrdered) || strings.TrimSpace(o.OrderCode) != "" {
					continue
				}
				o.SheetType = kind
				o.Year = my.Year
				all = append(all, o)
			}
		}
	}
	return all, nil
}

func (s *orderService) ListDomestic(ctx context.Context, kind SheetKind, months []int, year int) ([]Order, error) {
	all := []Order{}
	for _, month := range months {
		orders, err := s.List(ctx, kind, year, month)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			if o.Status != string(StatusDomestic) {
				continue
			}
			o.SheetType = kind
			o.Year = year
			all = append(all, o)
		}
	}
	return all, nil
}
