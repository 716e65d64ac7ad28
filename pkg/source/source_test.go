package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bessleague/bessleague/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElexon(t *testing.T) {
	t.Run("PhysicalNotifications", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/datasets/PN/stream", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "2024-03-01", q.Get("from"))
			assert.Equal(t, "2024-03-01", q.Get("to"))
			assert.Equal(t, "1", q.Get("settlementPeriodFrom"))
			assert.Equal(t, "48", q.Get("settlementPeriodTo"))
			assert.Equal(t, []string{"T_ALPHA-1", "T_BRAVO-1"}, q["bmUnit"])
			assert.Empty(t, q.Get("apiKey"))
			_, _ = w.Write([]byte(`[
				{"dataset":"PN","settlementDate":"2024-03-01","settlementPeriod":1,"timeFrom":"2024-03-01T00:00:00Z","timeTo":"2024-03-01T00:30:00Z","levelFrom":5,"levelTo":5,"nationalGridBmUnit":"ALPHA-1","bmUnit":"T_ALPHA-1"},
				{"dataset":"PN","settlementDate":"2024-03-01","settlementPeriod":2,"timeFrom":"2024-03-01T00:30:00Z","timeTo":"2024-03-01T00:45:00Z","levelFrom":0,"levelTo":-10,"nationalGridBmUnit":"BRAVO-1","bmUnit":"T_BRAVO-1"}
			]`))
		}))
		defer ts.Close()

		e := &Elexon{apiURL: ts.URL, client: ts.Client()}
		out, err := e.PhysicalNotifications(context.Background(), "2024-03-01", "2024-03-01", []string{"T_ALPHA-1", "T_BRAVO-1"})
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "T_ALPHA-1", out[0].BalancingUnitID)
		assert.Equal(t, "ALPHA-1", out[0].NationalGridBMUnit)
		assert.Equal(t, 30*time.Minute, out[0].TimeTo.Sub(out[0].TimeFrom))
		assert.Equal(t, -10.0, out[1].LevelTo)
		assert.Equal(t, 2, out[1].SettlementPeriod)
	})

	t.Run("PhysicalNotificationsNoUnits", func(t *testing.T) {
		e := &Elexon{apiURL: "http://127.0.0.1:1", client: http.DefaultClient}
		out, err := e.PhysicalNotifications(context.Background(), "2024-03-01", "2024-03-01", nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("MarketIndexPrices", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/datasets/MID/stream", r.URL.Path)
			assert.Equal(t, "secret", r.URL.Query().Get("apiKey"))
			_, _ = w.Write([]byte(`[
				{"dataset":"MID","startTime":"2024-03-01T00:00:00Z","dataProvider":"N2EXMIDP","settlementDate":"2024-03-01","settlementPeriod":1,"price":50,"volume":10},
				{"dataset":"MID","startTime":"2024-03-01T00:00:00Z","dataProvider":"APXMIDP","settlementDate":"2024-03-01","settlementPeriod":1,"price":70,"volume":30}
			]`))
		}))
		defer ts.Close()

		e := &Elexon{apiURL: ts.URL, apiKey: "secret", client: ts.Client()}
		out, err := e.MarketIndexPrices(context.Background(), "2024-03-01", "2024-03-01")
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, types.MarketIndexQuote{Provider: "APXMIDP", SettlementDate: "2024-03-01", SettlementPeriod: 1, Price: 70, Volume: 30}, out[1])
	})

	t.Run("SystemPricesPerDate", func(t *testing.T) {
		var paths []string
		var mu sync.Mutex
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			paths = append(paths, r.URL.Path)
			mu.Unlock()
			date := r.URL.Path[len("/balancing/settlement/system-prices/"):]
			fmt.Fprintf(w, `{"data":[{"settlementDate":%q,"settlementPeriod":1,"systemSellPrice":81.5,"systemBuyPrice":81.5}]}`, date)
		}))
		defer ts.Close()

		e := &Elexon{apiURL: ts.URL, client: ts.Client()}
		out, err := e.SystemPrices(context.Background(), "2024-02-28", "2024-03-01")
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, []string{
			"/balancing/settlement/system-prices/2024-02-28",
			"/balancing/settlement/system-prices/2024-02-29",
			"/balancing/settlement/system-prices/2024-03-01",
		}, paths)
		assert.Equal(t, 81.5, out[2].Price)
		assert.Equal(t, "2024-03-01", out[2].SettlementDate)
	})

	t.Run("StatusError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		e := &Elexon{apiURL: ts.URL, client: ts.Client()}
		_, err := e.MarketIndexPrices(context.Background(), "2024-03-01", "2024-03-01")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
		assert.Equal(t, "elexon", se.Provider)
		assert.Equal(t, "mid", se.Endpoint)
	})

	t.Run("BadJSON", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer ts.Close()

		e := &Elexon{apiURL: ts.URL, client: ts.Client()}
		_, err := e.MarketIndexPrices(context.Background(), "2024-03-01", "2024-03-01")
		assert.ErrorContains(t, err, "failed to decode")
	})

	t.Run("Validate", func(t *testing.T) {
		assert.Error(t, (&Elexon{}).Validate())
		assert.NoError(t, (&Elexon{apiURL: "https://example.com"}).Validate())
	})
}

// modoServer serves pages of n records each, linking pages with next.
func modoServer(t *testing.T, path string, pages [][]map[string]any) (*httptest.Server, *int32) {
	var hits int32
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "key", r.Header.Get("X-Token"))
		assert.Equal(t, path, r.URL.Path)

		page := 0
		if p := r.URL.Query().Get("page"); p != "" {
			_, err := fmt.Sscanf(p, "%d", &page)
			require.NoError(t, err)
		} else {
			assert.Equal(t, "2024-03-01", r.URL.Query().Get("date_from"))
			assert.Equal(t, "2024-03-01", r.URL.Query().Get("date_to"))
		}

		var next *string
		if page+1 < len(pages) {
			n := fmt.Sprintf("%s%s?page=%d", ts.URL, path, page+1)
			// exercise relative links too
			if page%2 == 1 {
				n = fmt.Sprintf("%s?page=%d", path, page+1)
			}
			next = &n
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"next":    next,
			"results": pages[page],
		}))
	}))
	return ts, &hits
}

func TestModo(t *testing.T) {
	t.Run("PaginationKeepsOrder", func(t *testing.T) {
		var pages [][]map[string]any
		for p := 0; p < 5; p++ {
			var page []map[string]any
			for i := 0; i < 3; i++ {
				page = append(page, map[string]any{
					"sys_price_id": fmt.Sprintf("T_UNIT-%d", p*3+i),
					"date":         "2024-03-01",
					"period":       p + 1,
					"record_type":  "OFFER",
					"price":        float64(p*3 + i),
					"volume":       1.5,
					"so_flag":      i == 0,
				})
			}
			pages = append(pages, page)
		}
		ts, hits := modoServer(t, "/detail_system_price", pages)
		defer ts.Close()

		m := &Modo{apiURL: ts.URL, apiKey: "key", workers: 2, client: ts.Client()}
		out, err := m.BalancingSettlements(context.Background(), "2024-03-01", "2024-03-01")
		require.NoError(t, err)
		require.Len(t, out, 15)
		for i, r := range out {
			assert.Equal(t, fmt.Sprintf("T_UNIT-%d", i), r.BalancingUnitID)
			assert.Equal(t, float64(i), r.Price)
		}
		assert.True(t, out[0].SOFlag)
		assert.Equal(t, int32(5), atomic.LoadInt32(hits))
	})

	t.Run("AuctionResults", func(t *testing.T) {
		ts, _ := modoServer(t, "/response_reform/results_by_unit", [][]map[string]any{
			{{
				"company":         "Co",
				"unit_name":       "ALPHA1",
				"efa_date":        "2024-03-01",
				"delivery_start":  "2024-02-29T23:00:00",
				"delivery_end":    "2024-03-01T03:00:00",
				"efa":             1,
				"service":         "DCL",
				"cleared_volume":  2,
				"clearing_price":  4,
				"technology_type": "Battery",
				"cancelled":       false,
			}},
		})
		defer ts.Close()

		m := &Modo{apiURL: ts.URL, apiKey: "key", workers: 4, client: ts.Client()}
		out, err := m.AuctionResults(context.Background(), "2024-03-01", "2024-03-01")
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "ALPHA1", out[0].UnitName)
		assert.Equal(t, 1, out[0].EFABlock)
		assert.Equal(t, 4.0, out[0].ClearingPrice)
		assert.Equal(t, "2024-02-29T23:00:00", out[0].DeliveryStart)
	})

	t.Run("EmptyResults", func(t *testing.T) {
		ts, _ := modoServer(t, "/detail_system_price", [][]map[string]any{nil})
		defer ts.Close()

		m := &Modo{apiURL: ts.URL, apiKey: "key", workers: 1, client: ts.Client()}
		out, err := m.BalancingSettlements(context.Background(), "2024-03-01", "2024-03-01")
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("PageFailure", func(t *testing.T) {
		var hits int32
		var ts *httptest.Server
		ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&hits, 1) > 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprintf(w, `{"next":"%s/detail_system_price?page=1","results":[]}`, ts.URL)
		}))
		defer ts.Close()

		m := &Modo{apiURL: ts.URL, apiKey: "key", workers: 1, client: ts.Client()}
		_, err := m.BalancingSettlements(context.Background(), "2024-03-01", "2024-03-01")
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
		assert.Equal(t, "modo", se.Provider)
	})

	t.Run("Validate", func(t *testing.T) {
		assert.ErrorContains(t, (&Modo{apiURL: "https://example.com", workers: 1}).Validate(), "modo-api-key")
		assert.ErrorContains(t, (&Modo{apiURL: "https://example.com", apiKey: "k"}).Validate(), "modo-page-workers")
		assert.NoError(t, (&Modo{apiURL: "https://example.com", apiKey: "k", workers: 1}).Validate())
	})
}

func TestResolveNext(t *testing.T) {
	u, err := resolveNext("https://api.example.com/public/v1/x?page=1", "/public/v1/x?page=2")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/public/v1/x?page=2", u)

	u, err = resolveNext("https://api.example.com/x", "https://other.example.com/y")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/y", u)
}

func TestDatesBetween(t *testing.T) {
	dates, err := datesBetween("2024-02-28", "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, dates)

	_, err = datesBetween("2024-03-02", "2024-03-01")
	assert.Error(t, err)
	_, err = datesBetween("yesterday", "2024-03-01")
	assert.Error(t, err)
}
