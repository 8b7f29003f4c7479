package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"ordersheet/internal/sheetstore"
)

// productLookbackMonths is how far back ListAll reaches; Search uses a
// shorter window because codes are usually fresh.
const (
	productLookbackMonths = 6
	searchLookbackMonths  = 2
)

var productTimestampRe = regexp.MustCompile(`^\d{14}$`)

// ProductService manages the SP catalog partitions.
type ProductService interface {
	// ListAll merges the current month with the previous six, deduplicated
	// by product code and sorted newest first.
	ListAll(ctx context.Context) ([]Product, error)
	// Search looks for a code in the current month, then two months back.
	Search(ctx context.Context, productCode string) (*Product, error)
	// Create inserts a product with a caller-supplied code unless it already
	// exists in the current month. The bool reports whether a row was added.
	Create(ctx context.Context, productCode, productImage, productName string) (*Product, bool, error)
	// Register generates a timestamp code and inserts a product row into the
	// partition of t. Used when an order arrives with an image but no code.
	Register(ctx context.Context, t time.Time, productImage, productName string) (string, error)
}

type productService struct {
	client sheetstore.Client
	now    func() time.Time
}

func NewProductService(client sheetstore.Client) ProductService {
	return &productService{client: client, now: time.Now}
}

// NewProductCode derives a chronologically sortable code from t:
// SP{year}{month}{day}{hour}{minute}{second}.
func NewProductCode(t time.Time) string {
	return "SP" + t.Format("20060102150405")
}

// listMonth reads one SP partition; a missing partition reads as empty.
func (s *productService) listMonth(ctx context.Context, year, month int) ([]Product, error) {
	rows, err := s.client.Grid(ctx, PartitionName(KindProducts, year, month))
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return []Product{}, nil
		}
		return nil, err
	}
	return MapProductRows(rows, year, month), nil
}

func (s *productService) ListAll(ctx context.Context) ([]Product, error) {
	now := s.now()
	seen := make(map[string]bool)
	var all []Product

	for i := 0; i <= productLookbackMonths; i++ {
		t := now.AddDate(0, -i, 0)
		products, err := s.listMonth(ctx, t.Year(), int(t.Month()))
		if err != nil {
			return nil, fmt.Errorf("list products %d/%d: %w", int(t.Month()), t.Year(), err)
		}
		for _, p := range products {
			if seen[p.ProductCode] {
				continue
			}
			seen[p.ProductCode] = true
			all = append(all, p)
		}
	}

	sortProductsNewestFirst(all)
	if all == nil {
		all = []Product{}
	}
	return all, nil
}

// sortProductsNewestFirst orders by the 14-digit timestamp embedded in the
// code when both sides carry one; rows with a valid timestamp rank above
// rows without; the remainder falls back to reverse lexical order.
func sortProductsNewestFirst(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a := strings.TrimPrefix(products[i].ProductCode, "SP")
		b := strings.TrimPrefix(products[j].ProductCode, "SP")
		validA := productTimestampRe.MatchString(a)
		validB := productTimestampRe.MatchString(b)
		switch {
		case validA && validB:
			return a > b
		case validA:
			return true
		case validB:
			return false
		}
		return products[i].ProductCode > products[j].ProductCode
	})
}

func (s *productService) Search(ctx context.Context, productCode string) (*Product, error) {
	now := s.now()
	for i := 0; i <= searchLookbackMonths; i++ {
		t := now.AddDate(0, -i, 0)
		products, err := s.listMonth(ctx, t.Year(), int(t.Month()))
		if err != nil {
			return nil, fmt.Errorf("search products %d/%d: %w", int(t.Month()), t.Year(), err)
		}
		for _, p := range products {
			if p.ProductCode == productCode {
				return &p, nil
			}
		}
	}
	return nil, NotFoundf("Không tìm thấy sản phẩm với mã này")
}

func (s *productService) Create(ctx context.Context, productCode, productImage, productName string) (*Product, bool, error) {
	if productCode == "" || productImage == "" || productName == "" {
		return nil, false, Validationf("Missing required fields: productCode, productImage, productName")
	}

	now := s.now()
	existing, err := s.listMonth(ctx, now.Year(), int(now.Month()))
	if err != nil {
		return nil, false, fmt.Errorf("check existing products: %w", err)
	}
	for _, p := range existing {
		if p.ProductCode == productCode {
			return &p, false, nil
		}
	}

	if err := s.insert(ctx, now, productCode, productImage, productName); err != nil {
		return nil, false, err
	}
	return &Product{
		Date:         FormatDateForSheet(now),
		ProductCode:  productCode,
		ProductImage: productImage,
		ProductName:  productName,
		Month:        MonthLabel(now.Year(), int(now.Month())),
	}, true, nil
}

func (s *productService) Register(ctx context.Context, t time.Time, productImage, productName string) (string, error) {
	code := NewProductCode(s.now())
	if err := s.insert(ctx, t, code, productImage, productName); err != nil {
		return "", err
	}
	return code, nil
}

func (s *productService) insert(ctx context.Context, t time.Time, code, image, name string) error {
	sheetName, err := EnsurePartition(ctx, s.client, KindProducts, t.Year(), int(t.Month()))
	if err != nil {
		return fmt.Errorf("ensure product sheet: %w", err)
	}
	row := []any{FormatDateForSheet(t), code, ImageFormula(image), name}
	if err := s.client.Append(ctx, sheetName+"!A:D", [][]any{row}); err != nil {
		return fmt.Errorf("append product %s: %w", code, err)
	}
	return nil
}
