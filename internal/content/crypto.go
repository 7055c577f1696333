package content

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aircast-dev/aircast/internal/broadcast"
	"github.com/aircast-dev/aircast/internal/config"
)

// CryptoCollector fetches spot prices from the CoinGecko simple price API.
// Relevance scales with the size of the 24h move so a quiet market does not
// crowd out real news.
type CryptoCollector struct {
	cfg        config.CryptoConfig
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

func NewCryptoCollector(cfg config.CryptoConfig, client *http.Client) *CryptoCollector {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CryptoCollector{
		cfg:        cfg,
		endpoint:   "https://api.coingecko.com/api/v3/simple/price",
		httpClient: client,
		now:        time.Now,
	}
}

func (c *CryptoCollector) Name() string { return "crypto" }

func (c *CryptoCollector) Collect(ctx context.Context) ([]Item, error) {
	coins := c.cfg.Coins
	if len(coins) == 0 {
		coins = []string{"bitcoin"}
	}
	vs := c.cfg.VsCurrency
	if vs == "" {
		vs = "usd"
	}

	query := url.Values{}
	query.Set("ids", strings.Join(coins, ","))
	query.Set("vs_currencies", vs)
	query.Set("include_24hr_change", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crypto fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crypto fetch: unexpected status %s", resp.Status)
	}

	var raw map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("crypto decode: %w", err)
	}

	now := c.now().UTC()
	var items []Item
	for _, coin := range coins {
		prices, ok := raw[coin]
		if !ok {
			continue
		}
		price := prices[vs]
		change := prices[vs+"_24h_change"]
		items = append(items, Item{
			Category:    broadcast.CategoryBitcoin,
			Source:      "coingecko",
			Title:       fmt.Sprintf("%s price update", titleCase(coin)),
			Summary:     priceSummary(coin, price, change, vs),
			Relevance:   priceRelevance(change),
			PublishedAt: now,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("crypto fetch: no prices for %v", coins)
	}
	return items, nil
}

func priceSummary(coin string, price, change float64, vs string) string {
	direction := "up"
	if change < 0 {
		direction = "down"
	}
	return fmt.Sprintf("%s is trading at %s %s, %s %.1f percent over the last day.",
		titleCase(coin), formatPrice(price), strings.ToUpper(vs), direction, math.Abs(change))
}

// priceRelevance starts at 0.5 and grows with the absolute 24h move,
// capped at 1.0. A 10 percent day maxes the score.
func priceRelevance(change float64) float64 {
	r := 0.5 + math.Abs(change)/20
	if r > 1 {
		r = 1
	}
	return r
}

func formatPrice(p float64) string {
	if p >= 1000 {
		whole := int64(math.Round(p))
		s := fmt.Sprintf("%d", whole)
		var b strings.Builder
		for i, digit := range s {
			if i > 0 && (len(s)-i)%3 == 0 {
				b.WriteByte(',')
			}
			b.WriteRune(digit)
		}
		return b.String()
	}
	return fmt.Sprintf("%.2f", p)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
