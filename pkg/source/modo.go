package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/metrics"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/levenlabs/go-lflag"
	"golang.org/x/sync/errgroup"
)

const providerModo = "modo"

// Modo reads balancing mechanism settlements and frequency response auction
// results from the Modo API. Both endpoints are paginated.
type Modo struct {
	apiURL  string
	apiKey  string
	workers int
	client  *http.Client
}

// configuredModo registers the Modo flags.
func configuredModo() *Modo {
	m := &Modo{}
	apiURL := lflag.String("modo-api-url", "https://api.modo.energy/public/v1", "Base URL for the Modo API")
	apiKey := lflag.String("modo-api-key", "", "Modo API key (defaults to $MODO_API_KEY)")
	workers := lflag.Int("modo-page-workers", 12, "Maximum number of Modo pages decoded concurrently")

	lflag.Do(func() {
		m.apiURL = strings.TrimRight(*apiURL, "/")
		m.apiKey = *apiKey
		m.workers = *workers
	})
	return m
}

// Validate ensures the configuration is valid.
func (m *Modo) Validate() error {
	if m.apiURL == "" {
		return fmt.Errorf("modo-api-url is required")
	}
	if _, err := url.Parse(m.apiURL); err != nil {
		return fmt.Errorf("failed to parse modo url (%s): %w", m.apiURL, err)
	}
	if m.apiKey == "" {
		return fmt.Errorf("modo-api-key is required")
	}
	if m.workers < 1 {
		return fmt.Errorf("modo-page-workers must be at least 1")
	}
	return nil
}

type modoPage struct {
	Next    *string         `json:"next"`
	Results json.RawMessage `json:"results"`
}

// paginate follows the next link until it is empty. Each page's results are
// decoded on a bounded pool while the next page is fetched, and the pages
// are concatenated in the order they were served.
func paginate[T any](ctx context.Context, m *Modo, endpoint, first string) ([]T, error) {
	header := http.Header{}
	header.Set("X-Token", m.apiKey)

	workers := m.workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var pages []*[]T
	next := first
	for next != "" {
		var page modoPage
		if err := getJSON(gctx, m.client, providerModo, endpoint, next, header, &page); err != nil {
			// a failed decoder cancels gctx, prefer its error
			if werr := g.Wait(); werr != nil {
				return nil, werr
			}
			return nil, err
		}
		metrics.IncFetchPage(endpoint)

		results := new([]T)
		pages = append(pages, results)
		raw := page.Results
		n := len(pages)
		g.Go(func() error {
			if len(raw) == 0 || string(raw) == "null" {
				return nil
			}
			if err := json.Unmarshal(raw, results); err != nil {
				return fmt.Errorf("failed to decode %s page %d: %w", endpoint, n, err)
			}
			return nil
		})

		if page.Next == nil || *page.Next == "" {
			break
		}
		resolved, err := resolveNext(next, *page.Next)
		if err != nil {
			_ = g.Wait()
			return nil, err
		}
		next = resolved
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, p := range pages {
		total += len(*p)
	}
	out := make([]T, 0, total)
	for _, p := range pages {
		out = append(out, *p...)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetched paginated results", slog.String("endpoint", endpoint), slog.Int("pages", len(pages)), slog.Int("count", total))
	return out, nil
}

// resolveNext supports both absolute and relative next links.
func resolveNext(current, next string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", current, err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("invalid next url %q: %w", next, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (m *Modo) dateRangeURL(path, from, to string) string {
	params := url.Values{}
	params.Set("date_from", from)
	params.Set("date_to", to)
	return m.apiURL + path + "?" + params.Encode()
}

// BalancingSettlements returns the detailed system price records, one per
// accepted bid or offer.
func (m *Modo) BalancingSettlements(ctx context.Context, from, to string) ([]types.BalancingRecord, error) {
	return paginate[types.BalancingRecord](ctx, m, "detail_system_price", m.dateRangeURL("/detail_system_price", from, to))
}

// AuctionResults returns the frequency response auction results by unit.
func (m *Modo) AuctionResults(ctx context.Context, from, to string) ([]types.AuctionRecord, error) {
	return paginate[types.AuctionRecord](ctx, m, "results_by_unit", m.dateRangeURL("/response_reform/results_by_unit", from, to))
}
