package core

import (
	"context"
	"errors"
	"testing"

	"ordersheet/internal/sheetstore"
)

func seedAccounts(f *sheetstore.Fake) {
	f.Seed(AccountSheetName, [][]any{
		{"Username", "Password", "Role"},
		{"admin", "admin2808", "admin"},
		{"nv001", "nv001", "nv"},
		{"norole", "pw", ""},
	})
}

func TestAccountList(t *testing.T) {
	fake := sheetstore.NewFake()
	seedAccounts(fake)
	s := NewAccountService(fake)

	accounts, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
	if accounts[2].Role != "nv" {
		t.Errorf("blank role should default to nv, got %q", accounts[2].Role)
	}
}

func TestAccountList_MissingSheetIsEmpty(t *testing.T) {
	s := NewAccountService(sheetstore.NewFake())
	accounts, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("expected no accounts, got %v", accounts)
	}
}

func TestAuthenticate(t *testing.T) {
	fake := sheetstore.NewFake()
	seedAccounts(fake)
	s := NewAccountService(fake)
	ctx := context.Background()

	a, err := s.Authenticate(ctx, "admin", "admin2808")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if a.Role != "admin" {
		t.Errorf("role = %q", a.Role)
	}

	if _, err := s.Authenticate(ctx, "ghost", "x"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("unknown user: got %v", err)
	}
	if _, err := s.Authenticate(ctx, "admin", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password: got %v", err)
	}
}

func TestInitDefaults(t *testing.T) {
	ctx := context.Background()
	fake := sheetstore.NewFake()
	s := NewAccountService(fake)

	accounts, created, err := s.InitDefaults(ctx)
	if err != nil {
		t.Fatalf("InitDefaults: %v", err)
	}
	if !created {
		t.Error("expected seeding on an empty sheet")
	}
	if len(accounts) != 2 || accounts[0].Username != "admin" {
		t.Errorf("seeded accounts = %v", accounts)
	}

	// Second call must not duplicate.
	again, created, err := s.InitDefaults(ctx)
	if err != nil {
		t.Fatalf("InitDefaults again: %v", err)
	}
	if created {
		t.Error("expected no reseeding")
	}
	if len(again) != 2 {
		t.Errorf("accounts after second init = %v", again)
	}
}
