package core

import (
	"context"
	"errors"
	"fmt"

	"ordersheet/internal/sheetstore"
)

// AccountSheetName is the unpartitioned sheet holding login accounts.
const AccountSheetName = "Account"

// PartitionName maps a dataset kind plus calendar month/year to the
// physical sheet name, e.g. "BÁN HÀNG_5_2025". Month is not zero-padded.
// Customer and account sheets are unpartitioned and keep their bare label.
func PartitionName(kind SheetKind, year, month int) string {
	if kind == KindCustomers {
		return kind.Label()
	}
	return fmt.Sprintf("%s_%d_%d", kind.Label(), month, year)
}

// headerLayout returns the rows written into a freshly created partition.
// The layout mirrors the existing sheets: order partitions carry two banner
// rows above the column titles, every other kind a single title row.
func headerLayout(kind SheetKind) [][]any {
	switch kind {
	case KindOrders, KindCTVOrders, KindInventory:
		titles := []any{
			"NGÀY", "TÊN KHÁCH", "HÌNH ẢNH", "TÊN SẢN PHẨM", "MÀU", "SIZE",
			"SỐ LƯỢNG", "TỔNG TIỀN", "TRẠNG THÁI", "LINK FB", "LIÊN HỆ",
			"GHI CHÚ", "MÃ SP", "MÃ ĐẶT HÀNG", "MÃ VẬN ĐƠN",
		}
		if kind == KindInventory {
			return [][]any{titles}
		}
		return [][]any{nil, nil, titles}
	case KindProducts:
		return [][]any{{"NGÀY", "MÃ SP", "HÌNH ẢNH", "TÊN SẢN PHẨM"}}
	case KindCustomers:
		return [][]any{{"Tên khách hàng", "Địa chỉ/SDT", "Link FB"}}
	case KindOrdViet:
		return [][]any{{"Mã bill", "Hình ảnh bill", "Status", "Số lượng", "Tổng thanh toán", "Note"}}
	case KindOrdChina:
		return [][]any{{
			"Mã quản lý order", "Tên sản phẩm", "HÌNH ẢNH", "STATUS", "MÃ VẬN ĐƠN",
			"NOTE", "NGÀY CHỐT MUA", "NGÀY Hàng về", "Số lượng", "Giá nhập",
		}}
	}
	return nil
}

// EnsurePartition creates the partition for (kind, year, month) with its
// header rows if it does not exist yet. Idempotent; safe to call before
// every write.
func EnsurePartition(ctx context.Context, client sheetstore.Client, kind SheetKind, year, month int) (string, error) {
	name := PartitionName(kind, year, month)
	if err := ensureSheet(ctx, client, name, headerLayout(kind)); err != nil {
		return "", err
	}
	return name, nil
}

func ensureSheet(ctx context.Context, client sheetstore.Client, name string, header [][]any) error {
	titles, err := client.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	for _, t := range titles {
		if t == name {
			return nil
		}
	}
	if err := client.AddSheet(ctx, name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	if len(header) == 0 {
		return nil
	}
	if err := client.Update(ctx, name+"!A1", header); err != nil {
		return fmt.Errorf("write header for %s: %w", name, err)
	}
	return nil
}

// ResolveSheetID looks up the internal identifier of a named partition,
// required before row-deletion operations.
func ResolveSheetID(ctx context.Context, client sheetstore.Client, name string) (int64, error) {
	id, err := client.SheetID(ctx, name)
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return 0, NotFoundf("sheet %q not found", name)
		}
		return 0, err
	}
	return id, nil
}
