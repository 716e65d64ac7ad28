package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/levenlabs/go-lflag"
)

const providerElexon = "elexon"

// Elexon reads physical notifications, market index data and system prices
// from the Elexon Insights API.
type Elexon struct {
	apiURL string
	apiKey string
	client *http.Client
}

// configuredElexon registers the Elexon flags.
func configuredElexon() *Elexon {
	e := &Elexon{}
	apiURL := lflag.String("elexon-api-url", "https://data.elexon.co.uk/bmrs/api/v1", "Base URL for the Elexon Insights API")
	apiKey := lflag.String("elexon-api-key", "", "Optional Elexon API key (defaults to $ELEXON_API_KEY)")

	lflag.Do(func() {
		e.apiURL = strings.TrimRight(*apiURL, "/")
		e.apiKey = *apiKey
	})
	return e
}

// Validate ensures the configuration is valid.
func (e *Elexon) Validate() error {
	if e.apiURL == "" {
		return fmt.Errorf("elexon-api-url is required")
	}
	if _, err := url.Parse(e.apiURL); err != nil {
		return fmt.Errorf("failed to parse elexon url (%s): %w", e.apiURL, err)
	}
	return nil
}

func (e *Elexon) url(path string, params url.Values) string {
	if e.apiKey != "" {
		params.Set("apiKey", e.apiKey)
	}
	u := e.apiURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func settlementPeriodParams(from, to string) url.Values {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	params.Set("settlementPeriodFrom", "1")
	params.Set("settlementPeriodTo", fmt.Sprint(types.PeriodsPerDay))
	return params
}

// PhysicalNotifications returns the PN stream for the given balancing units.
// With no units there is nothing to ask for and nil is returned.
func (e *Elexon) PhysicalNotifications(ctx context.Context, from, to string, units []string) ([]types.PhysicalInterval, error) {
	if len(units) == 0 {
		return nil, nil
	}
	params := settlementPeriodParams(from, to)
	for _, u := range units {
		params.Add("bmUnit", u)
	}

	var out []types.PhysicalInterval
	if err := getJSON(ctx, e.client, providerElexon, "pn", e.url("/datasets/PN/stream", params), nil, &out); err != nil {
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "fetched physical notifications", slog.Int("count", len(out)), slog.Int("units", len(units)))
	return out, nil
}

// MarketIndexPrices returns every provider's market index quotations.
func (e *Elexon) MarketIndexPrices(ctx context.Context, from, to string) ([]types.MarketIndexQuote, error) {
	var out []types.MarketIndexQuote
	if err := getJSON(ctx, e.client, providerElexon, "mid", e.url("/datasets/MID/stream", settlementPeriodParams(from, to)), nil, &out); err != nil {
		return nil, err
	}
	log.Ctx(ctx).DebugContext(ctx, "fetched market index prices", slog.Int("count", len(out)))
	return out, nil
}

type systemPriceResponse struct {
	Data []types.SystemPrice `json:"data"`
}

// SystemPrices returns the system sell price per settlement period. The
// endpoint serves one date per request.
func (e *Elexon) SystemPrices(ctx context.Context, from, to string) ([]types.SystemPrice, error) {
	dates, err := datesBetween(from, to)
	if err != nil {
		return nil, err
	}
	var out []types.SystemPrice
	for _, d := range dates {
		var resp systemPriceResponse
		path := "/balancing/settlement/system-prices/" + url.PathEscape(d)
		if err := getJSON(ctx, e.client, providerElexon, "system-prices", e.url(path, url.Values{}), nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Data...)
	}
	log.Ctx(ctx).DebugContext(ctx, "fetched system prices", slog.Int("count", len(out)))
	return out, nil
}
