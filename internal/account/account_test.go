package account

import (
	"context"
	"errors"
	"testing"

	"multi-trader/internal/config"
)

func TestDeactivateIsIrreversible(t *testing.T) {
	acct := New("account_1", nil)
	if !acct.Active() {
		t.Fatal("new account should start active")
	}

	acct.Deactivate()
	if acct.Active() {
		t.Fatal("deactivated account reported active")
	}
}

func TestInitialize_AllCredentialsMissing(t *testing.T) {
	cfgs := []config.AccountConfig{
		{Name: "account_1"},
		{Name: "account_2", APIKey: "k"},
	}

	accounts, err := Initialize(context.Background(), cfgs, nil)
	if !errors.Is(err, ErrNoActiveAccounts) {
		t.Fatalf("expected ErrNoActiveAccounts, got %v", err)
	}
	// 不可用账户保留在列表中，只是被排除出批量操作
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	for _, acct := range accounts {
		if acct.Active() {
			t.Errorf("account %s should be inactive", acct.Name)
		}
	}
}

func TestInitialize_KeepsConfigurationOrder(t *testing.T) {
	cfgs := []config.AccountConfig{
		{Name: "b"},
		{Name: "a"},
		{Name: "c"},
	}

	accounts, _ := Initialize(context.Background(), cfgs, nil)
	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
	for i, want := range []string{"b", "a", "c"} {
		if accounts[i].Name != want {
			t.Errorf("position %d: expected %s, got %s", i, want, accounts[i].Name)
		}
	}
}
