package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"ordersheet/internal/sheetstore"
)

// BillStatusShipping is the default state of a freshly created shipment bill.
const BillStatusShipping = "ĐANG VẬN CHUYỂN"

// BillStatusDone marks a bill whose orders were all processed (legacy flow).
const BillStatusDone = "HOÀN THÀNH"

// BillVariant parameterizes the two historical ORDVIET layouts. Both store
// six columns (A:F); they differ in header depth, defaults and how the bill
// code reaches the order rows they close out.
type BillVariant struct {
	// HeaderRows is the number of rows above the first bill.
	HeaderRows int
	// DefaultStatus is written when a create request has no status.
	DefaultStatus string
	// CompletionStatus is written into the bill after its orders process.
	CompletionStatus string
	// AppendOrderCode appends " | code" to the order-code column instead of
	// overwriting it.
	AppendOrderCode bool
	// EnsureOnList creates the partition during a list instead of reading a
	// missing partition as empty.
	EnsureOnList bool
	// MonthFromCode derives the bill's partition from the timestamp embedded
	// in its code rather than from request parameters.
	MonthFromCode bool
}

// LegacyBillVariant matches partitions written with two header rows.
var LegacyBillVariant = BillVariant{
	HeaderRows:       2,
	CompletionStatus: BillStatusDone,
	AppendOrderCode:  true,
	MonthFromCode:    true,
}

// StandardBillVariant matches partitions with a single header row.
var StandardBillVariant = BillVariant{
	HeaderRows:       1,
	DefaultStatus:    BillStatusShipping,
	CompletionStatus: string(StatusArrived),
	EnsureOnList:     true,
}

// NewBillCode derives a code from t: ODV{day}{month}{yy}{hour}{minute}{second}.
func NewBillCode(t time.Time) string {
	return "ODV" + t.Format("020106150405")
}

// BillCreateRequest carries a new shipment bill. The code is generated.
type BillCreateRequest struct {
	BillImage   string
	Status      string
	Quantity    int
	TotalAmount int64
	Note        string
	Month       int
	Year        int
}

// BillUpdateRequest updates a bill found by code. Nil fields keep the
// stored value.
type BillUpdateRequest struct {
	BillImage   *string
	Status      *string
	Quantity    *int
	TotalAmount *int64
	Note        *string
	Month       int
	Year        int
}

// OrderRef points at one order row to close out under a bill.
type OrderRef struct {
	RowIndex int
	Month    int
	Year     int
	Kind     SheetKind
}

// ProcessOrdersRequest attaches a bill code to a batch of arrived orders.
// BillMonth/BillYear locate the bill itself for variants that do not embed
// the partition in the code.
type ProcessOrdersRequest struct {
	BillCode  string
	Orders    []OrderRef
	BillMonth int
	BillYear  int
}

// ProcessResult reports the outcome for one order row. Failures do not
// abort the batch.
type ProcessResult struct {
	Success   bool      `json:"success"`
	RowIndex  int       `json:"rowIndex"`
	Month     string    `json:"month"`
	SheetType SheetKind `json:"sheetType"`
	Error     string    `json:"error,omitempty"`
}

// BillService manages ORDVIET shipment-bill partitions and the workflow
// that marks orders as arrived under a bill.
type BillService interface {
	List(ctx context.Context, year, month int) ([]Bill, error)
	Create(ctx context.Context, req BillCreateRequest) (*Bill, error)
	Update(ctx context.Context, billCode string, req BillUpdateRequest) error
	ProcessOrders(ctx context.Context, req ProcessOrdersRequest) ([]ProcessResult, error)
}

type billService struct {
	client  sheetstore.Client
	variant BillVariant
	now     func() time.Time
}

func NewBillService(client sheetstore.Client, variant BillVariant) BillService {
	return &billService{client: client, variant: variant, now: time.Now}
}

func (s *billService) List(ctx context.Context, year, month int) ([]Bill, error) {
	sheetName := PartitionName(KindOrdViet, year, month)
	if s.variant.EnsureOnList {
		if _, err := EnsurePartition(ctx, s.client, KindOrdViet, year, month); err != nil {
			return nil, err
		}
	}

	rows, err := s.client.Grid(ctx, sheetName)
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return []Bill{}, nil
		}
		return nil, fmt.Errorf("list bills %d/%d: %w", month, year, err)
	}

	skip := s.variant.HeaderRows
	bills := []Bill{}
	if len(rows) <= skip {
		return bills, nil
	}
	for i, row := range rows[skip:] {
		b := Bill{
			RowIndex:    i + skip + 1,
			BillCode:    CellString(cellAt(row, 0)),
			BillImage:   ExtractImageURL(CellString(cellAt(row, 1))),
			Status:      CellString(cellAt(row, 2)),
			Quantity:    atoi(CellString(cellAt(row, 3))),
			TotalAmount: ParseCurrency(CellString(cellAt(row, 4))),
			Note:        CellString(cellAt(row, 5)),
			Month:       month,
			Year:        year,
		}
		if b.BillCode == "" {
			continue
		}
		bills = append(bills, b)
	}
	return bills, nil
}

func (s *billService) Create(ctx context.Context, req BillCreateRequest) (*Bill, error) {
	if req.Month < 1 || req.Month > 12 || req.Year == 0 {
		return nil, Validationf("Month and year are required")
	}

	sheetName, err := EnsurePartition(ctx, s.client, KindOrdViet, req.Year, req.Month)
	if err != nil {
		return nil, err
	}

	billCode := NewBillCode(s.now())
	status := req.Status
	if status == "" {
		status = s.variant.DefaultStatus
	}

	row := []any{
		billCode,
		ImageFormula(req.BillImage),
		status,
		req.Quantity,
		req.TotalAmount,
		req.Note,
	}
	if err := s.client.Append(ctx, sheetName+"!A:F", [][]any{row}); err != nil {
		return nil, fmt.Errorf("append bill %s: %w", billCode, err)
	}

	return &Bill{
		BillCode:    billCode,
		BillImage:   req.BillImage,
		Status:      status,
		Quantity:    req.Quantity,
		TotalAmount: req.TotalAmount,
		Note:        req.Note,
		Month:       req.Month,
		Year:        req.Year,
	}, nil
}

func (s *billService) Update(ctx context.Context, billCode string, req BillUpdateRequest) error {
	if req.Month < 1 || req.Month > 12 || req.Year == 0 {
		return Validationf("Month and year are required")
	}
	sheetName := PartitionName(KindOrdViet, req.Year, req.Month)

	grid, err := s.client.Grid(ctx, sheetName)
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return NotFoundf("Bill not found")
		}
		return fmt.Errorf("read bills %s: %w", sheetName, err)
	}

	targetRow := 0
	var current []sheetstore.Cell
	for i, row := range grid {
		if i < s.variant.HeaderRows {
			continue
		}
		if CellString(cellAt(row, 0)) == billCode {
			targetRow = i + 1
			current = row
			break
		}
	}
	if targetRow == 0 {
		return NotFoundf("Bill not found")
	}

	merged := []any{
		billCode,
		imageOr(req.BillImage, CellString(cellAt(current, 1))),
		strOr(req.Status, CellString(cellAt(current, 2))),
		intOr(req.Quantity, CellString(cellAt(current, 3))),
		int64Or(req.TotalAmount, CellString(cellAt(current, 4))),
		strOr(req.Note, CellString(cellAt(current, 5))),
	}
	rng := fmt.Sprintf("%s!A%d:F%d", sheetName, targetRow, targetRow)
	if err := s.client.Update(ctx, rng, [][]any{merged}); err != nil {
		return fmt.Errorf("update bill %s: %w", billCode, err)
	}
	return nil
}

func intOr(p *int, current string) any {
	if p != nil {
		return *p
	}
	return current
}

func int64Or(p *int64, current string) any {
	if p != nil {
		return *p
	}
	return current
}

// ── Order processing ─────────────────────────────────────────────────────────

func (s *billService) ProcessOrders(ctx context.Context, req ProcessOrdersRequest) ([]ProcessResult, error) {
	if req.BillCode == "" {
		return nil, Validationf("billCode is required")
	}
	if len(req.Orders) == 0 {
		return nil, Validationf("orders array is required")
	}

	results := make([]ProcessResult, 0, len(req.Orders))
	for _, ref := range req.Orders {
		res := ProcessResult{
			RowIndex:  ref.RowIndex,
			Month:     MonthLabel(ref.Year, ref.Month),
			SheetType: ref.Kind,
		}
		if err := s.closeOrder(ctx, ref, req.BillCode); err != nil {
			log.Printf("process orders: row %d in %s %d/%d: %v", ref.RowIndex, ref.Kind, ref.Month, ref.Year, err)
			res.Error = err.Error()
		} else {
			res.Success = true
		}
		results = append(results, res)
	}

	// Marking the bill itself is best effort; the order updates stand
	// regardless.
	if err := s.completeBill(ctx, req); err != nil {
		log.Printf("process orders: complete bill %s: %v", req.BillCode, err)
	}
	return results, nil
}

// closeOrder flips one order to arrived and stamps the bill code into its
// order-code column.
func (s *billService) closeOrder(ctx context.Context, ref OrderRef, billCode string) error {
	sheetName := PartitionName(ref.Kind, ref.Year, ref.Month)
	targetRow := ref.RowIndex + ref.Kind.HeaderRows() + 1

	codeValue := billCode
	if s.variant.AppendOrderCode {
		rows, err := s.client.Values(ctx, fmt.Sprintf("%s!N%d", sheetName, targetRow))
		if err != nil {
			return fmt.Errorf("read order code: %w", err)
		}
		if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] != "" {
			codeValue = rows[0][0] + " | " + billCode
		}
	}

	return s.client.BatchUpdate(ctx, []sheetstore.ValueUpdate{
		{Range: fmt.Sprintf("%s!I%d", sheetName, targetRow), Values: [][]any{{string(StatusArrived)}}},
		{Range: fmt.Sprintf("%s!N%d", sheetName, targetRow), Values: [][]any{{codeValue}}},
	})
}

func (s *billService) completeBill(ctx context.Context, req ProcessOrdersRequest) error {
	month, year := req.BillMonth, req.BillYear
	if s.variant.MonthFromCode {
		var err error
		month, year, err = billPartitionFromCode(req.BillCode)
		if err != nil {
			return err
		}
	}
	if month < 1 || month > 12 || year == 0 {
		return fmt.Errorf("bill partition %d/%d out of range", month, year)
	}

	sheetName := PartitionName(KindOrdViet, year, month)
	rows, err := s.client.Values(ctx, sheetName+"!A:C")
	if err != nil {
		return fmt.Errorf("read bills: %w", err)
	}
	for i, row := range rows {
		if valueAt(row, 0) != req.BillCode {
			continue
		}
		rng := fmt.Sprintf("%s!C%d", sheetName, i+1)
		return s.client.Update(ctx, rng, [][]any{{s.variant.CompletionStatus}})
	}
	return fmt.Errorf("bill %s not found in %s", req.BillCode, sheetName)
}

// billPartitionFromCode reads the month and year out of ODVddmmyyhhmmss.
func billPartitionFromCode(code string) (month, year int, err error) {
	if len(code) < 9 {
		return 0, 0, fmt.Errorf("bill code %q too short", code)
	}
	month, err = strconv.Atoi(code[5:7])
	if err != nil {
		return 0, 0, fmt.Errorf("bill code %q: bad month", code)
	}
	yy, err := strconv.Atoi(code[7:9])
	if err != nil {
		return 0, 0, fmt.Errorf("bill code %q: bad year", code)
	}
	return month, 2000 + yy, nil
}
