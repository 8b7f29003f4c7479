package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"ordersheet/internal/sheetstore"
)

// ExportService renders one monthly partition as an XLSX workbook for
// offline bookkeeping.
type ExportService interface {
	// MonthWorkbook returns the partition's rows as a single-sheet workbook
	// named after the partition.
	MonthWorkbook(ctx context.Context, kind SheetKind, year, month int) ([]byte, error)
}

type exportService struct {
	client sheetstore.Client
}

func NewExportService(client sheetstore.Client) ExportService {
	return &exportService{client: client}
}

func (s *exportService) MonthWorkbook(ctx context.Context, kind SheetKind, year, month int) ([]byte, error) {
	sheetName := PartitionName(kind, year, month)
	rows, err := s.client.Values(ctx, sheetName+"!A:O")
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return nil, NotFoundf("sheet %q not found", sheetName)
		}
		return nil, fmt.Errorf("read %s for export: %w", sheetName, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("name export sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("address export row %d: %w", i+1, err)
		}
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &out); err != nil {
			return nil, fmt.Errorf("write export row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
