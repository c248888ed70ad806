package market

import (
	"context"
	"strings"
	"testing"

	"telegram-finance-bot/internal/models"
)

func TestInvestmentSuggestions(t *testing.T) {
	cases := []struct {
		name   string
		totals models.Totals
		want   string
	}{
		{"low spend", models.Totals{Salary: 4500, Expense: 1000}, "renda fixa"},
		{"mid spend", models.Totals{Salary: 4500, Expense: 2500}, "Reduza gastos"},
		{"high spend", models.Totals{Salary: 4500, Expense: 4000}, "quitação de dívidas"},
		{"no salary", models.Totals{Expense: 500}, "Registre seu salário"},
	}
	for _, c := range cases {
		got := InvestmentSuggestions(c.totals)
		if len(got) != 2 {
			t.Errorf("%s: %d tips, want 2 (ratio tip + diversify tip)", c.name, len(got))
			continue
		}
		if !strings.Contains(got[0], c.want) {
			t.Errorf("%s: tip = %q, want contains %q", c.name, got[0], c.want)
		}
		if !strings.Contains(got[1], "Diversifique") {
			t.Errorf("%s: second tip = %q", c.name, got[1])
		}
	}
}

func TestCryptoPricesEmptyWatchlist(t *testing.T) {
	c := NewClient()
	if got := c.CryptoPrices(context.Background(), nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestCryptoPricesFetchFailure(t *testing.T) {
	c := NewClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := c.CryptoPrices(ctx, []string{"BTC", "ETH"})
	if len(got) != 2 {
		t.Fatalf("got %d quotes, want one per symbol", len(got))
	}
	for _, q := range got {
		if q.Err == nil {
			t.Errorf("quote %s carries no error", q.ID)
		}
	}
}

func TestHeadlinesFallback(t *testing.T) {
	c := NewClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := c.Headlines(ctx, 3)
	if len(got) == 0 {
		t.Fatal("headlines empty, want placeholder lines")
	}
	got = c.Headlines(ctx, 1)
	if len(got) != 1 {
		t.Errorf("limit 1 returned %d headlines", len(got))
	}
}
