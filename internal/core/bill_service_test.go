package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"ordersheet/internal/sheetstore"
)

func newTestBillService(f *sheetstore.Fake, v BillVariant) *billService {
	return &billService{client: f, variant: v, now: func() time.Time { return testNow }}
}

func TestBillCode(t *testing.T) {
	got := NewBillCode(time.Date(2024, time.November, 3, 9, 8, 7, 0, time.Local))
	if got != "ODV031124090807" {
		t.Errorf("NewBillCode() = %q", got)
	}
}

func TestBillList_StandardVariantCreatesPartition(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	s := newTestBillService(fake, StandardBillVariant)

	bills, err := s.List(ctx, 2025, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(bills) != 0 {
		t.Errorf("expected no bills, got %v", bills)
	}
	if rows := fake.Rows("ORDVIET_5_2025"); len(rows) != 1 {
		t.Errorf("partition should exist with its header row, got %d rows", len(rows))
	}
}

func TestBillList_LegacyVariantMissingPartitionIsEmpty(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	s := newTestBillService(fake, LegacyBillVariant)

	bills, err := s.List(ctx, 2025, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(bills) != 0 {
		t.Errorf("expected empty list, got %v", bills)
	}
	if _, err := fake.SheetID(ctx, "ORDVIET_5_2025"); !errors.Is(err, sheetstore.ErrSheetNotFound) {
		t.Error("legacy list must not create the partition")
	}
}

func TestBillList_RowIndexAndFields(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	fake.Seed("ORDVIET_5_2025", [][]any{
		{"Mã bill", "Hình ảnh bill", "Status", "Số lượng", "Tổng thanh toán", "Note"},
		{"ODV010525120000", `=IMAGE("https://cdn.example.com/bill.jpg")`, "ĐANG VẬN CHUYỂN", "3", "1.500.000đ", "gấp"},
	})
	s := newTestBillService(fake, StandardBillVariant)

	bills, err := s.List(ctx, 2025, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected 1 bill, got %d", len(bills))
	}
	b := bills[0]
	if b.RowIndex != 2 {
		t.Errorf("RowIndex = %d, want 2 (1-indexed sheet row)", b.RowIndex)
	}
	if b.BillImage != "https://cdn.example.com/bill.jpg" {
		t.Errorf("BillImage = %q", b.BillImage)
	}
	if b.Quantity != 3 || b.TotalAmount != 1500000 {
		t.Errorf("amounts = %d, %d", b.Quantity, b.TotalAmount)
	}
	if b.Month != 5 || b.Year != 2025 {
		t.Errorf("partition tags = %d/%d", b.Month, b.Year)
	}
}

func TestBillCreate_GeneratesCodeAndDefaults(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	s := newTestBillService(fake, StandardBillVariant)

	b, err := s.Create(ctx, BillCreateRequest{
		BillImage:   "https://cdn.example.com/b.jpg",
		Quantity:    2,
		TotalAmount: 800000,
		Month:       5,
		Year:        2025,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.BillCode != "ODV150525103000" {
		t.Errorf("BillCode = %q", b.BillCode)
	}
	if b.Status != BillStatusShipping {
		t.Errorf("default status = %q", b.Status)
	}

	rows := fake.Rows("ORDVIET_5_2025")
	if len(rows) != 2 {
		t.Fatalf("expected header plus bill row, got %d", len(rows))
	}
	if rows[1][0] != b.BillCode || rows[1][2] != BillStatusShipping {
		t.Errorf("stored row = %v", rows[1])
	}
}

func TestBillCreate_RequiresMonthYear(t *testing.T) {
	s := newTestBillService(sheetstore.NewFake(), StandardBillVariant)
	_, err := s.Create(context.Background(), BillCreateRequest{Month: 0, Year: 2025})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestBillUpdate_PreservesUnsetFields(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	fake.Seed("ORDVIET_5_2025", [][]any{
		{"Mã bill", "Hình ảnh bill", "Status", "Số lượng", "Tổng thanh toán", "Note"},
		{"ODV010525120000", `=IMAGE("https://cdn.example.com/old.jpg")`, "ĐANG VẬN CHUYỂN", 2, 500000, "ghi chú"},
	})
	s := newTestBillService(fake, StandardBillVariant)

	status := string(StatusArrived)
	err := s.Update(ctx, "ODV010525120000", BillUpdateRequest{
		Status: &status,
		Month:  5,
		Year:   2025,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	rows := fake.Rows("ORDVIET_5_2025")
	got := rows[1]
	if got[2] != string(StatusArrived) {
		t.Errorf("status not updated: %v", got[2])
	}
	if got[1] != `=IMAGE("https://cdn.example.com/old.jpg")` {
		t.Errorf("image formula not preserved: %v", got[1])
	}
	if got[5] != "ghi chú" {
		t.Errorf("note changed: %v", got[5])
	}
}

func TestBillUpdate_UnknownCode(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	fake.Seed("ORDVIET_5_2025", [][]any{
		{"Mã bill", "Hình ảnh bill", "Status", "Số lượng", "Tổng thanh toán", "Note"},
	})
	s := newTestBillService(fake, StandardBillVariant)

	note := "x"
	err := s.Update(ctx, "ODV999999999999", BillUpdateRequest{Note: &note, Month: 5, Year: 2025})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestProcessOrders_StandardVariant(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025",
		[]any{"1/5", "Khách", "", "A", "", "", "1", "100", string(StatusDomestic), "", "", "ghi chú", "", "", ""},
	)
	fake.Seed("ORDVIET_5_2025", [][]any{
		{"Mã bill", "Hình ảnh bill", "Status", "Số lượng", "Tổng thanh toán", "Note"},
		{"ODV150525103000", "", "ĐANG VẬN CHUYỂN", 1, 100, ""},
	})
	s := newTestBillService(fake, StandardBillVariant)

	results, err := s.ProcessOrders(ctx, ProcessOrdersRequest{
		BillCode:  "ODV150525103000",
		Orders:    []OrderRef{{RowIndex: 0, Month: 5, Year: 2025, Kind: KindOrders}},
		BillMonth: 5,
		BillYear:  2025,
	})
	if err != nil {
		t.Fatalf("ProcessOrders: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("results = %v", results)
	}

	orderRow := fake.Rows("BÁN HÀNG_5_2025")[3]
	if orderRow[8] != string(StatusArrived) {
		t.Errorf("order status = %v", orderRow[8])
	}
	if orderRow[13] != "ODV150525103000" {
		t.Errorf("order code = %v, want the bill code written directly", orderRow[13])
	}

	billRow := fake.Rows("ORDVIET_5_2025")[1]
	if billRow[2] != string(StatusArrived) {
		t.Errorf("bill completion status = %v", billRow[2])
	}
}

func TestProcessOrders_LegacyVariantAppendsCode(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "CTV_5_2025",
		[]any{"1/5", "CTV", "", "A", "", "", "1", "100", string(StatusOrdered), "", "", "", "", "ODVCŨ", ""},
	)
	// The bill partition is derived from the code: ODV15 05 25 → 5/2025.
	fake.Seed("ORDVIET_5_2025", [][]any{
		nil,
		{"Mã bill", "Hình ảnh bill", "Status", "Số lượng", "Tổng thanh toán", "Note"},
		{"ODV150525103000", "", "", 1, 100, ""},
	})
	s := newTestBillService(fake, LegacyBillVariant)

	results, err := s.ProcessOrders(ctx, ProcessOrdersRequest{
		BillCode: "ODV150525103000",
		Orders:   []OrderRef{{RowIndex: 0, Month: 5, Year: 2025, Kind: KindCTVOrders}},
	})
	if err != nil {
		t.Fatalf("ProcessOrders: %v", err)
	}
	if !results[0].Success {
		t.Fatalf("results = %v", results)
	}

	orderRow := fake.Rows("CTV_5_2025")[3]
	if orderRow[13] != "ODVCŨ | ODV150525103000" {
		t.Errorf("order code = %v, want appended", orderRow[13])
	}

	billRow := fake.Rows("ORDVIET_5_2025")[2]
	if billRow[2] != BillStatusDone {
		t.Errorf("bill completion status = %v, want %q", billRow[2], BillStatusDone)
	}
}

func TestProcessOrders_PartialFailureContinues(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025",
		[]any{"1/5", "Khách", "", "A", "", "", "1", "100", string(StatusDomestic), "", "", "", "", "", ""},
	)
	fake.Seed("ORDVIET_5_2025", [][]any{
		{"Mã bill", "Hình ảnh bill", "Status", "Số lượng", "Tổng thanh toán", "Note"},
		{"ODV150525103000", "", "", 1, 100, ""},
	})
	s := newTestBillService(fake, StandardBillVariant)

	results, err := s.ProcessOrders(ctx, ProcessOrdersRequest{
		BillCode: "ODV150525103000",
		Orders: []OrderRef{
			// Partition for 4/2025 does not exist; this ref fails.
			{RowIndex: 0, Month: 4, Year: 2025, Kind: KindOrders},
			{RowIndex: 0, Month: 5, Year: 2025, Kind: KindOrders},
		},
		BillMonth: 5,
		BillYear:  2025,
	})
	if err != nil {
		t.Fatalf("ProcessOrders: %v", err)
	}
	if results[0].Success {
		t.Error("expected first ref to fail")
	}
	if !results[1].Success {
		t.Errorf("expected second ref to succeed: %v", results[1])
	}
}

func TestProcessOrders_Validation(t *testing.T) {
	s := newTestBillService(sheetstore.NewFake(), StandardBillVariant)
	if _, err := s.ProcessOrders(context.Background(), ProcessOrdersRequest{BillCode: ""}); err == nil {
		t.Error("expected error for missing bill code")
	}
	if _, err := s.ProcessOrders(context.Background(), ProcessOrdersRequest{BillCode: "ODV1"}); err == nil {
		t.Error("expected error for empty orders")
	}
}
