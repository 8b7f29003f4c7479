package core

import (
	"context"
	"errors"
	"fmt"

	"ordersheet/internal/sheetstore"
)

// ImportCreateRequest carries one ORDCHINA purchase row. The arrival-date
// column starts empty and is filled in the sheet once goods land.
type ImportCreateRequest struct {
	ManagementCode string
	ProductName    string
	ProductImage   string
	Status         string
	ShippingCodes  string
	Note           string
	OrderDate      string
	Quantity       string
	ImportPrice    string
	Month          int
	Year           int
}

// ImportService manages ORDCHINA purchase partitions. The partition's
// total import cost lives in cell K2 and feeds the revenue reports as the
// month's expense.
type ImportService interface {
	Create(ctx context.Context, req ImportCreateRequest) error
	// Expense reads the month's total import cost; a missing partition or
	// empty cell reads as zero.
	Expense(ctx context.Context, year, month int) (int64, error)
}

type importService struct {
	client sheetstore.Client
}

func NewImportService(client sheetstore.Client) ImportService {
	return &importService{client: client}
}

func (s *importService) Create(ctx context.Context, req ImportCreateRequest) error {
	if req.Month < 1 || req.Month > 12 || req.Year == 0 {
		return Validationf("date with month and year is required")
	}
	sheetName, err := EnsurePartition(ctx, s.client, KindOrdChina, req.Year, req.Month)
	if err != nil {
		return err
	}

	row := []any{
		req.ManagementCode,
		req.ProductName,
		ImageFormula(req.ProductImage),
		req.Status,
		req.ShippingCodes,
		req.Note,
		req.OrderDate,
		"", // arrival date, filled manually later
		req.Quantity,
		req.ImportPrice,
	}
	if err := s.client.Append(ctx, sheetName+"!A:J", [][]any{row}); err != nil {
		return fmt.Errorf("append import %s: %w", req.ManagementCode, err)
	}
	return nil
}

func (s *importService) Expense(ctx context.Context, year, month int) (int64, error) {
	sheetName := PartitionName(KindOrdChina, year, month)
	rows, err := s.client.Values(ctx, sheetName+"!K2")
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("read expense %s: %w", sheetName, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return ParseCurrency(rows[0][0]), nil
}
