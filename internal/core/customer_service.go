package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ordersheet/internal/sheetstore"
)

// CustomerService maintains the shared customer directory sheet. The
// directory is unpartitioned; orders feed it as a side effect of creation.
type CustomerService interface {
	List(ctx context.Context) ([]Customer, error)
	// Exists matches names case-insensitively after trimming whitespace.
	Exists(ctx context.Context, customerName string) (bool, error)
	Add(ctx context.Context, customerName, contactInfo, linkFb string) error
	// Ensure adds the customer only when the name is non-blank and unknown.
	Ensure(ctx context.Context, customerName, contactInfo, linkFb string) error
}

type customerService struct {
	client sheetstore.Client
}

func NewCustomerService(client sheetstore.Client) CustomerService {
	return &customerService{client: client}
}

func (s *customerService) List(ctx context.Context) ([]Customer, error) {
	rows, err := s.client.Values(ctx, KindCustomers.Label()+"!A:C")
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return []Customer{}, nil
		}
		return nil, fmt.Errorf("read customers: %w", err)
	}

	customers := []Customer{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		c := Customer{
			RowIndex:     i - 1,
			CustomerName: valueAt(row, 0),
			ContactInfo:  valueAt(row, 1),
			LinkFb:       valueAt(row, 2),
		}
		if c.CustomerName == "" {
			continue
		}
		customers = append(customers, c)
	}
	return customers, nil
}

func (s *customerService) Exists(ctx context.Context, customerName string) (bool, error) {
	customers, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	want := strings.ToLower(strings.TrimSpace(customerName))
	for _, c := range customers {
		if strings.ToLower(strings.TrimSpace(c.CustomerName)) == want {
			return true, nil
		}
	}
	return false, nil
}

func (s *customerService) Add(ctx context.Context, customerName, contactInfo, linkFb string) error {
	name := KindCustomers.Label()
	if err := ensureSheet(ctx, s.client, name, headerLayout(KindCustomers)); err != nil {
		return fmt.Errorf("ensure customer sheet: %w", err)
	}
	row := []any{customerName, contactInfo, linkFb}
	if err := s.client.Append(ctx, name+"!A:C", [][]any{row}); err != nil {
		return fmt.Errorf("append customer %s: %w", customerName, err)
	}
	return nil
}

func (s *customerService) Ensure(ctx context.Context, customerName, contactInfo, linkFb string) error {
	name := strings.TrimSpace(customerName)
	if name == "" {
		return nil
	}
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.Add(ctx, name, contactInfo, linkFb)
}
