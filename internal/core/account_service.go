package core

import (
	"context"
	"errors"
	"fmt"

	"ordersheet/internal/sheetstore"
)

// Authentication failures are distinguished so the login surface can tell
// the user which part was wrong, matching the established behavior.
var (
	ErrUnknownUser   = errors.New("account does not exist")
	ErrWrongPassword = errors.New("wrong password")
)

// defaultAccounts seeds an empty Account sheet.
var defaultAccounts = []Account{
	{Username: "admin", Password: "admin2808", Role: "admin"},
	{Username: "nv001", Password: "nv001", Role: "nv"},
}

// AccountService reads login accounts from the Account sheet. Passwords are
// stored as the sheet's operators maintain them: plain text, compared
// directly.
type AccountService interface {
	List(ctx context.Context) ([]Account, error)
	Authenticate(ctx context.Context, username, password string) (*Account, error)
	// InitDefaults seeds the default accounts when the sheet is empty. The
	// bool reports whether seeding happened.
	InitDefaults(ctx context.Context) ([]Account, bool, error)
}

type accountService struct {
	client sheetstore.Client
}

func NewAccountService(client sheetstore.Client) AccountService {
	return &accountService{client: client}
}

func (s *accountService) List(ctx context.Context) ([]Account, error) {
	rows, err := s.client.Values(ctx, AccountSheetName+"!A:C")
	if err != nil {
		if errors.Is(err, sheetstore.ErrSheetNotFound) {
			return []Account{}, nil
		}
		return nil, fmt.Errorf("read accounts: %w", err)
	}

	accounts := []Account{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		a := Account{
			Username: valueAt(row, 0),
			Password: valueAt(row, 1),
			Role:     valueAt(row, 2),
		}
		if a.Username == "" {
			continue
		}
		if a.Role == "" {
			a.Role = "nv"
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *accountService) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	accounts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.Username != username {
			continue
		}
		if a.Password != password {
			return nil, ErrWrongPassword
		}
		return &a, nil
	}
	return nil, ErrUnknownUser
}

func (s *accountService) InitDefaults(ctx context.Context) ([]Account, bool, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(existing) > 0 {
		return existing, false, nil
	}

	header := [][]any{{"Username", "Password", "Role"}}
	if err := ensureSheet(ctx, s.client, AccountSheetName, header); err != nil {
		return nil, false, fmt.Errorf("ensure account sheet: %w", err)
	}

	rows := make([][]any, len(defaultAccounts))
	for i, a := range defaultAccounts {
		rows[i] = []any{a.Username, a.Password, a.Role}
	}
	if err := s.client.Append(ctx, AccountSheetName+"!A:C", rows); err != nil {
		return nil, false, fmt.Errorf("seed default accounts: %w", err)
	}
	return defaultAccounts, true, nil
}
