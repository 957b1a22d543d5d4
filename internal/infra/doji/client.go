// Package doji implements the client for the DOJI gold price XML feed.
package doji

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/toannhu96/gia-vang-365/internal/config"
	"github.com/toannhu96/gia-vang-365/internal/domain"
)

const retryBaseDelay = 500 * time.Millisecond

type Client struct {
	cfg        config.DojiConfig
	httpClient *http.Client
}

// feedDocument mirrors the feed XML: one table of currency-gold bars and one
// of jewelry, rows carrying everything in attributes.
type feedDocument struct {
	XMLName  xml.Name  `xml:"GoldList"`
	Currency feedTable `xml:"DGPlist"`
	Jewelry  feedTable `xml:"JewelryList"`
}

type feedTable struct {
	Rows []feedRow `xml:"Row"`
}

type feedRow struct {
	Key  string `xml:"Key,attr"`
	Name string `xml:"Name,attr"`
	Buy  string `xml:"Buy,attr"`
	Sell string `xml:"Sell,attr"`
}

func NewClient(cfg config.DojiConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchGoldPrices issues one GET to the feed and normalizes the XML payload.
// DateTime is the fetch time, not anything the feed claims.
func (c *Client) FetchGoldPrices(ctx context.Context) (domain.GoldPrices, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return domain.GoldPrices{}, err
	}

	var doc feedDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return domain.GoldPrices{}, fmt.Errorf("parsing feed: %w", err)
	}

	now := time.Now().UTC()
	return domain.GoldPrices{
		Currency: domain.PriceList{DateTime: now, Prices: toQuotes(doc.Currency.Rows)},
		Jewelry:  domain.PriceList{DateTime: now, Prices: toQuotes(doc.Jewelry.Rows)},
	}, nil
}

// fetch runs the GET with the retry budget: up to cfg.Retries extra attempts
// on network errors, 429 and 5xx, exponential backoff in between. A timed-out
// attempt is fatal and is not retried.
func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path, _ = url.JoinPath(u.Path, "giavang")

	q := u.Query()
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	u.RawQuery = q.Encode()

	attempts := c.cfg.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, retryBaseDelay<<(attempt-1)); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/xml")
		ua := c.cfg.UserAgent
		if ua == "" {
			ua = "gia-vang-365/1.0"
		}
		req.Header.Set("User-Agent", ua)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isTimeout(err) {
				return nil, fmt.Errorf("request timed out: %w", err)
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("request failed: %s", resp.Status)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("request failed: %s", resp.Status)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response: %w", err)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

func toQuotes(rows []feedRow) []domain.PriceQuote {
	out := make([]domain.PriceQuote, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.PriceQuote{
			Name: r.Name,
			Key:  r.Key,
			Buy:  ParseFormattedNumber(r.Buy),
			Sell: ParseFormattedNumber(r.Sell),
		})
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
