package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/metrics"
	"github.com/bessleague/bessleague/pkg/types"
)

// Source fetches the raw datasets the revenue calculators consume. Dates are
// YYYY-MM-DD settlement dates and both bounds are inclusive.
type Source interface {
	PhysicalNotifications(ctx context.Context, from, to string, units []string) ([]types.PhysicalInterval, error)
	MarketIndexPrices(ctx context.Context, from, to string) ([]types.MarketIndexQuote, error)
	SystemPrices(ctx context.Context, from, to string) ([]types.SystemPrice, error)
	BalancingSettlements(ctx context.Context, from, to string) ([]types.BalancingRecord, error)
	AuctionResults(ctx context.Context, from, to string) ([]types.AuctionRecord, error)
}

// StatusError is returned when an upstream answers with a non-200 status.
type StatusError struct {
	Provider   string
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status: %d", e.Provider, e.Endpoint, e.StatusCode)
}

// getJSON performs a GET and decodes a 200 response into out.
func getJSON(ctx context.Context, client *http.Client, provider, endpoint, u string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	log.Ctx(ctx).DebugContext(ctx, "fetching upstream", slog.String("provider", provider), slog.String("endpoint", endpoint))

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		metrics.ObserveFetch(provider, endpoint, metrics.ResultError, time.Since(start))
		return fmt.Errorf("failed to fetch %s %s: %w", provider, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveFetch(provider, endpoint, metrics.ResultError, time.Since(start))
		return &StatusError{Provider: provider, Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.ObserveFetch(provider, endpoint, metrics.ResultError, time.Since(start))
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode upstream response", slog.String("provider", provider), slog.String("endpoint", endpoint), slog.Any("error", err))
		return fmt.Errorf("failed to decode %s %s response: %w", provider, endpoint, err)
	}
	metrics.ObserveFetch(provider, endpoint, metrics.ResultSuccess, time.Since(start))
	return nil
}

// datesBetween returns every date from from to to inclusive.
func datesBetween(from, to string) ([]string, error) {
	start, err := time.Parse(types.DateFormat, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse(types.DateFormat, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(types.DateFormat))
	}
	return dates, nil
}
