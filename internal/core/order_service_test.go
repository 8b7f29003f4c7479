package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ordersheet/internal/sheetstore"
)

var testNow = time.Date(2025, time.May, 15, 10, 30, 0, 0, time.Local)

func newTestOrderService(f *sheetstore.Fake) *orderService {
	now := func() time.Time { return testNow }
	return &orderService{
		client:    f,
		products:  &productService{client: f, now: now},
		customers: NewCustomerService(f),
		now:       now,
	}
}

func seedOrderPartition(f *sheetstore.Fake, title string, dataRows ...[]any) {
	rows := [][]any{nil, nil, {"NGÀY", "TÊN KHÁCH", "HÌNH ẢNH", "TÊN SẢN PHẨM"}}
	rows = append(rows, dataRows...)
	f.Seed(title, rows)
}

func TestOrderList_MissingPartitionIsEmpty(t *testing.T) {
	s := newTestOrderService(sheetstore.NewFake())

	orders, err := s.List(context.Background(), KindOrders, 2020, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Errorf("expected empty slice, got %v", orders)
	}
}

func TestOrderCreate_ListRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	s := newTestOrderService(fake)

	generated, err := s.Create(ctx, KindOrders, OrderCreateRequest{
		CustomerName: "Ngọc Anh",
		ProductCode:  "SP20250401120000",
		ProductImage: "https://cdn.example.com/shirt.jpg",
		ProductName:  "Áo sơ mi",
		Color:        "Trắng",
		Size:         "M",
		Quantity:     "2",
		Total:        "500.000đ",
		LinkFb:       "https://fb.com/ngocanh",
		ContactInfo:  "0901234567",
		Note:         "giao nhanh",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if generated != "" {
		t.Errorf("expected no generated code when request carries one, got %q", generated)
	}

	orders, err := s.List(ctx, KindOrders, 2025, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}

	o := orders[0]
	if o.RowIndex != 0 {
		t.Errorf("RowIndex = %d, want 0", o.RowIndex)
	}
	if o.Date != "15/5/2025" {
		t.Errorf("Date = %q", o.Date)
	}
	if o.CustomerName != "Ngọc Anh" || o.ProductName != "Áo sơ mi" {
		t.Errorf("identity columns wrong: %+v", o)
	}
	if o.ProductImage != "https://cdn.example.com/shirt.jpg" {
		t.Errorf("image URL not extracted from formula: %q", o.ProductImage)
	}
	if o.Status != string(StatusOrdered) {
		t.Errorf("Status = %q, want default %q", o.Status, StatusOrdered)
	}
	if o.Month != "5/2025" {
		t.Errorf("Month = %q", o.Month)
	}

	// The customer directory picks up the order's customer.
	customers, err := NewCustomerService(fake).List(ctx)
	if err != nil {
		t.Fatalf("customer List: %v", err)
	}
	if len(customers) != 1 || customers[0].CustomerName != "Ngọc Anh" {
		t.Errorf("customer directory = %v", customers)
	}
}

func TestOrderCreate_RegistersProductWithoutCode(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	s := newTestOrderService(fake)

	generated, err := s.Create(ctx, KindOrders, OrderCreateRequest{
		CustomerName: "Khách A",
		ProductImage: "https://cdn.example.com/new.jpg",
		ProductName:  "Váy mới",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := "SP20250515103000"
	if generated != want {
		t.Errorf("generated code = %q, want %q", generated, want)
	}

	products := fake.Rows("SP_5_2025")
	if len(products) != 2 {
		t.Fatalf("expected header plus one product row, got %d rows", len(products))
	}
	if products[1][1] != want {
		t.Errorf("product row code = %v", products[1][1])
	}

	orders, _ := s.List(ctx, KindOrders, 2025, 5)
	if len(orders) != 1 || orders[0].ProductCode != want {
		t.Errorf("order did not carry the generated code: %v", orders)
	}
}

func TestOrderCreate_AbortsWhenProductRegistrationFails(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	fake.AppendErr = map[string]error{"SP_5_2025": errors.New("quota exceeded")}
	s := newTestOrderService(fake)

	_, err := s.Create(ctx, KindOrders, OrderCreateRequest{
		CustomerName: "Khách B",
		ProductImage: "https://cdn.example.com/x.jpg",
		ProductName:  "SP hỏng",
	})
	if err == nil {
		t.Fatal("expected error when product registration fails")
	}

	orders, listErr := s.List(ctx, KindOrders, 2025, 5)
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(orders) != 0 {
		t.Errorf("order landed despite aborted product registration: %v", orders)
	}
}

func TestOrderCreate_CustomerFailureDoesNotAbort(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	fake.AppendErr = map[string]error{"KHÁCH HÀNG": errors.New("directory unavailable")}
	s := newTestOrderService(fake)

	if _, err := s.Create(ctx, KindOrders, OrderCreateRequest{
		CustomerName: "Khách C",
		ProductCode:  "SP1",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	orders, _ := s.List(ctx, KindOrders, 2025, 5)
	if len(orders) != 1 {
		t.Errorf("expected order despite directory failure, got %d", len(orders))
	}
}

func TestOrderCreate_ConcurrentCreatesLandDistinctRows(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025")
	s := newTestOrderService(fake)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, KindOrders, OrderCreateRequest{
				CustomerName: fmt.Sprintf("Khách %d", i),
				ProductCode:  fmt.Sprintf("SP%d", i),
			})
			if err != nil {
				t.Errorf("Create %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	orders, err := s.List(ctx, KindOrders, 2025, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != n {
		t.Fatalf("expected %d orders, got %d — concurrent appends overwrote rows", n, len(orders))
	}
	names := make(map[string]bool)
	for _, o := range orders {
		names[o.CustomerName] = true
	}
	if len(names) != n {
		t.Errorf("expected %d distinct customers, got %d", n, len(names))
	}
}

func TestOrderUpdate_PreservesUnsetFields(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025",
		[]any{"10/5/2025", "Hà", `=IMAGE("https://cdn.example.com/old.jpg")`, "Đầm dạ hội", "Đen", "S", "1", "1.200.000đ", "ĐÃ ĐẶT HÀNG", "fb", "0909", "ghi chú cũ", "SP9", "", ""},
	)
	s := newTestOrderService(fake)

	note := "đổi size"
	err := s.Update(ctx, KindOrders, 0, OrderUpdateRequest{
		Note:  &note,
		Month: "5/2025",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	rows := fake.Rows("BÁN HÀNG_5_2025")
	got := rows[3]
	if got[11] != "đổi size" {
		t.Errorf("note not updated: %v", got[11])
	}
	if got[1] != "Hà" || got[3] != "Đầm dạ hội" || got[7] != "1.200.000đ" {
		t.Errorf("unset fields changed: %v", got)
	}
	if got[2] != `=IMAGE("https://cdn.example.com/old.jpg")` {
		t.Errorf("image formula not preserved: %v", got[2])
	}
}

func TestOrderUpdate_MissingRow(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025")
	s := newTestOrderService(fake)

	note := "x"
	err := s.Update(ctx, KindOrders, 5, OrderUpdateRequest{Note: &note, Month: "5/2025"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestOrderUpdateStatus_Transitions(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025",
		[]any{"10/5/2025", "Hà", "", "Đầm", "", "", "1", "100", string(StatusOrdered), "", "", "", "", "", ""},
	)
	s := newTestOrderService(fake)

	if err := s.UpdateStatus(ctx, KindOrders, 0, 2025, 5, StatusArrived); err != nil {
		t.Fatalf("ordered → arrived should pass: %v", err)
	}
	rows := fake.Rows("BÁN HÀNG_5_2025")
	if rows[3][8] != string(StatusArrived) {
		t.Fatalf("status column = %v", rows[3][8])
	}

	// Arrived is terminal.
	err := s.UpdateStatus(ctx, KindOrders, 0, 2025, 5, StatusOrdered)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("arrived → ordered should fail with ValidationError, got %v", err)
	}
}

func TestOrderUpdateStatus_DomesticToArrived(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "CTV_5_2025",
		[]any{"10/5/2025", "CTV Hoa", "", "Áo", "", "", "1", "100", string(StatusDomestic), "", "", "", "", "", ""},
	)
	s := newTestOrderService(fake)

	if err := s.UpdateStatus(ctx, KindCTVOrders, 0, 2025, 5, StatusArrived); err != nil {
		t.Errorf("domestic → arrived should pass: %v", err)
	}
}

func TestOrderDelete_ShiftsFollowingRows(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025",
		[]any{"10/5/2025", "Đầu tiên", "", "A", "", "", "1", "100", "", "", "", "", "", "", ""},
		[]any{"11/5/2025", "Thứ hai", "", "B", "", "", "1", "200", "", "", "", "", "", "", ""},
	)
	s := newTestOrderService(fake)

	if err := s.Delete(ctx, KindOrders, 0, 2025, 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	orders, err := s.List(ctx, KindOrders, 2025, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 order after delete, got %d", len(orders))
	}
	if orders[0].CustomerName != "Thứ hai" || orders[0].RowIndex != 0 {
		t.Errorf("remaining order = %+v, want Thứ hai at rowIndex 0", orders[0])
	}
}

func TestListAwaitingBill_FiltersStatusAndOrderCode(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_5_2025",
		[]any{"1/5", "Chờ bill", "", "A", "", "", "1", "100", string(StatusOrdered), "", "", "", "", "", ""},
		[]any{"2/5", "Đã có bill", "", "B", "", "", "1", "100", string(StatusOrdered), "", "", "", "", "ODV1", ""},
		[]any{"3/5", "Đã về", "", "C", "", "", "1", "100", string(StatusArrived), "", "", "", "", "", ""},
	)
	seedOrderPartition(fake, "CTV_5_2025",
		[]any{"4/5", "CTV chờ", "", "D", "", "", "1", "100", string(StatusOrdered), "", "", "", "", "", ""},
	)
	s := newTestOrderService(fake)

	orders, err := s.ListAwaitingBill(ctx, []MonthYear{{Month: 5, Year: 2025}})
	if err != nil {
		t.Fatalf("ListAwaitingBill: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 eligible orders, got %d: %v", len(orders), orders)
	}
	if orders[0].SheetType != KindOrders || orders[1].SheetType != KindCTVOrders {
		t.Errorf("sheet types = %v, %v", orders[0].SheetType, orders[1].SheetType)
	}
}

func TestListDomestic(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	seedOrderPartition(fake, "BÁN HÀNG_4_2025",
		[]any{"1/4", "Nội địa", "", "A", "", "", "1", "100", string(StatusDomestic), "", "", "", "", "", ""},
		[]any{"2/4", "Ngoại", "", "B", "", "", "1", "100", string(StatusOrdered), "", "", "", "", "", ""},
	)
	s := newTestOrderService(fake)

	orders, err := s.ListDomestic(ctx, KindOrders, []int{4, 5}, 2025)
	if err != nil {
		t.Fatalf("ListDomestic: %v", err)
	}
	if len(orders) != 1 || orders[0].CustomerName != "Nội địa" {
		t.Errorf("ListDomestic = %v", orders)
	}
	if orders[0].Year != 2025 || orders[0].SheetType != KindOrders {
		t.Errorf("cross-partition tags missing: %+v", orders[0])
	}
}
