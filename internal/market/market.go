// Package market fetches crypto quotes and headline snippets for the
// morning briefing. Failures degrade to placeholder content; a broken
// market feed must never break the digest.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"telegram-finance-bot/internal/models"
)

const coingeckoURL = "https://api.coingecko.com/api/v3/simple/price?ids=%s&vs_currencies=usd,brl&include_24hr_change=true"

var feedURLs = []string{
	"https://feeds.finance.yahoo.com/rss/2.0/headline?s=AAPL&region=US&lang=en-US",
	"https://www.infomoney.com.br/feed/",
}

var titleRx = regexp.MustCompile(`<title>([^<]+)</title>`)

// Quote is one crypto price point. Err is set per symbol on fetch failure.
type Quote struct {
	ID       string
	USD      float64
	BRL      float64
	Change24 float64
	Err      error
}

type Headline struct {
	Title string
}

type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 8 * time.Second}}
}

// CryptoPrices resolves the watchlist against the CoinGecko simple-price
// endpoint. Symbols are CoinGecko ids, lower-cased.
func (c *Client) CryptoPrices(ctx context.Context, symbols []string) []Quote {
	if len(symbols) == 0 {
		return nil
	}
	ids := make([]string, len(symbols))
	for i, s := range symbols {
		ids[i] = strings.ToLower(s)
	}
	url := fmt.Sprintf(coingeckoURL, strings.Join(ids, ","))

	body, err := c.get(ctx, url)
	if err != nil {
		out := make([]Quote, len(symbols))
		for i, s := range symbols {
			out[i] = Quote{ID: s, Err: err}
		}
		return out
	}

	var parsed map[string]struct {
		USD       float64 `json:"usd"`
		BRL       float64 `json:"brl"`
		Change24h float64 `json:"usd_24h_change"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		out := make([]Quote, len(symbols))
		for i, s := range symbols {
			out[i] = Quote{ID: s, Err: err}
		}
		return out
	}
	var out []Quote
	for id, q := range parsed {
		out = append(out, Quote{ID: id, USD: q.USD, BRL: q.BRL, Change24: q.Change24h})
	}
	return out
}

// Headlines scrapes feed titles, best effort. Always returns at least one
// generic line so the briefing never goes out empty.
func (c *Client) Headlines(ctx context.Context, limit int) []Headline {
	var items []Headline
	for _, feed := range feedURLs {
		body, err := c.get(ctx, feed)
		if err != nil {
			continue
		}
		titles := titleRx.FindAllStringSubmatch(string(body), -1)
		// the first <title> is the feed's own name
		for i, m := range titles {
			if i == 0 {
				continue
			}
			if len(items) >= limit {
				break
			}
			items = append(items, Headline{Title: m[1]})
		}
		if len(items) >= limit {
			break
		}
	}
	if len(items) == 0 {
		items = []Headline{
			{Title: "Mercado estável, sem grandes movimentos reportados."},
			{Title: "Acompanhe seus gastos para investir melhor."},
		}
		if limit < len(items) {
			items = items[:limit]
		}
	}
	return items
}

// InvestmentSuggestions derives simple tips from the expense/salary ratio.
func InvestmentSuggestions(totals models.Totals) []string {
	var out []string
	if totals.Salary > 0 {
		pct := totals.Expense / totals.Salary * 100
		switch {
		case pct < 40:
			out = append(out, "Você mantém bons níveis de gasto: considere aportar em renda fixa (Tesouro Selic/CDI).")
		case pct < 70:
			out = append(out, "Reduza gastos supérfluos para liberar capital para investimentos mensais.")
		default:
			out = append(out, "Gastos altos: priorize quitação de dívidas antes de novos aportes.")
		}
	} else {
		out = append(out, "Registre seu salário para gerar sugestões mais precisas.")
	}
	out = append(out, "Diversifique: considere alocar parte em ETFs globais para proteção cambial.")
	return out
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}
