package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"ordersheet/internal/sheetstore"
)

func newTestProductService(f *sheetstore.Fake) *productService {
	return &productService{client: f, now: func() time.Time { return testNow }}
}

func seedProductPartition(f *sheetstore.Fake, title string, dataRows ...[]any) {
	rows := [][]any{{"NGÀY", "MÃ SP", "HÌNH ẢNH", "TÊN SẢN PHẨM"}}
	rows = append(rows, dataRows...)
	f.Seed(title, rows)
}

func TestNewProductCode(t *testing.T) {
	got := NewProductCode(time.Date(2025, time.January, 2, 3, 4, 5, 0, time.Local))
	if got != "SP20250102030405" {
		t.Errorf("NewProductCode() = %q", got)
	}
}

func TestProductListAll_DeduplicatesAcrossMonths(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedProductPartition(fake, "SP_5_2025",
		[]any{"1/5", "SP20250501000000", "", "Áo tháng 5"},
	)
	seedProductPartition(fake, "SP_4_2025",
		[]any{"1/4", "SP20250401000000", "", "Áo tháng 4"},
		[]any{"2/4", "SP20250501000000", "", "Bản cũ của áo tháng 5"},
	)
	s := newTestProductService(fake)

	products, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products after dedupe, got %d", len(products))
	}
	// Newest timestamp first, and the current month's copy wins the dedupe.
	if products[0].ProductCode != "SP20250501000000" || products[0].ProductName != "Áo tháng 5" {
		t.Errorf("first product = %+v", products[0])
	}
	if products[1].ProductCode != "SP20250401000000" {
		t.Errorf("second product = %+v", products[1])
	}
}

func TestProductListAll_SortRanksTimestampCodesFirst(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedProductPartition(fake, "SP_5_2025",
		[]any{"1/5", "LEGACY-01", "", "Mã cũ"},
		[]any{"2/5", "SP20250502000000", "", "Mã mới"},
	)
	s := newTestProductService(fake)

	products, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if products[0].ProductCode != "SP20250502000000" {
		t.Errorf("timestamp code should rank first, got %q", products[0].ProductCode)
	}
}

func TestProductSearch_LooksBackTwoMonths(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedProductPartition(fake, "SP_3_2025",
		[]any{"1/3", "SP20250301000000", `=IMAGE("https://cdn.example.com/p.jpg")`, "Hàng tháng 3"},
	)
	s := newTestProductService(fake)

	p, err := s.Search(ctx, "SP20250301000000")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if p.ProductName != "Hàng tháng 3" || p.ProductImage != "https://cdn.example.com/p.jpg" {
		t.Errorf("Search = %+v", p)
	}
}

func TestProductSearch_NotFound(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	// Product exists, but three months back — outside the search window.
	seedProductPartition(fake, "SP_2_2025",
		[]any{"1/2", "SP20250201000000", "", "Quá cũ"},
	)
	s := newTestProductService(fake)

	_, err := s.Search(ctx, "SP20250201000000")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestProductCreate_ExistingCodeIsNotDuplicated(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedProductPartition(fake, "SP_5_2025",
		[]any{"1/5", "SP20250501000000", "", "Đã có"},
	)
	s := newTestProductService(fake)

	p, created, err := s.Create(ctx, "SP20250501000000", "https://cdn.example.com/i.jpg", "Đã có")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created {
		t.Error("expected created=false for an existing code")
	}
	if p.ProductName != "Đã có" {
		t.Errorf("returned product = %+v", p)
	}
	if rows := fake.Rows("SP_5_2025"); len(rows) != 2 {
		t.Errorf("duplicate row appended: %d rows", len(rows))
	}
}

func TestProductCreate_MissingFields(t *testing.T) {
	s := newTestProductService(sheetstore.NewFake())
	_, _, err := s.Create(context.Background(), "SP1", "", "Tên")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestProductCreate_AppendsNewRow(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	s := newTestProductService(fake)

	p, created, err := s.Create(ctx, "SPX001", "https://cdn.example.com/n.jpg", "Hàng mới")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if p.Month != "5/2025" {
		t.Errorf("Month = %q", p.Month)
	}

	rows := fake.Rows("SP_5_2025")
	if len(rows) != 2 {
		t.Fatalf("expected header plus product row, got %d", len(rows))
	}
	if rows[1][2] != `=IMAGE("https://cdn.example.com/n.jpg")` {
		t.Errorf("image column = %v", rows[1][2])
	}
}
