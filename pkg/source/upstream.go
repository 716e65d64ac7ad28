package source

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/bessleague/bessleague/pkg/common"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// Stream names used for cache keys and metrics.
const (
	StreamPhysicalNotifications = "pn"
	StreamMarketIndex           = "mid"
	StreamSystemPrices          = "system-prices"
	StreamBalancing             = "balancing"
	StreamAuction               = "auction"
)

// Upstream is the Source backed by Elexon and Modo, with every result cached
// for a short TTL.
type Upstream struct {
	elexon *Elexon
	modo   *Modo
	cache  *Cache
}

var _ Source = (*Upstream)(nil)

// Configured registers the upstream flags and returns the Source.
func Configured() *Upstream {
	u := &Upstream{
		elexon: configuredElexon(),
		modo:   configuredModo(),
	}
	timeout := lflag.Duration("fetch-timeout", 30*time.Second, "Timeout for each upstream HTTP request")
	ttl := lflag.Duration("fetch-cache-ttl", 60*time.Second, "How long fetched datasets are reused (0 disables)")
	elexonInterval := lflag.Duration("elexon-request-interval", 200*time.Millisecond, "Minimum spacing between Elexon requests (0 is unlimited)")
	modoInterval := lflag.Duration("modo-request-interval", 500*time.Millisecond, "Minimum spacing between Modo requests (0 is unlimited)")

	lflag.Do(func() {
		u.elexon.client = common.RateLimitedHTTPClient(*timeout, common.Every(*elexonInterval, 1))
		u.modo.client = common.RateLimitedHTTPClient(*timeout, common.Every(*modoInterval, 1))
		u.cache = NewCache(*ttl)

		// keys may come from the environment or a .env file
		if u.modo.apiKey == "" {
			u.modo.apiKey = os.Getenv("MODO_API_KEY")
		}
		if u.elexon.apiKey == "" {
			u.elexon.apiKey = os.Getenv("ELEXON_API_KEY")
		}
	})
	return u
}

// NewUpstream builds an Upstream without flags. A nil cache disables caching.
func NewUpstream(elexon *Elexon, modo *Modo, cache *Cache) *Upstream {
	return &Upstream{elexon: elexon, modo: modo, cache: cache}
}

// Validate checks both providers.
func (u *Upstream) Validate() error {
	return errors.Join(u.elexon.Validate(), u.modo.Validate())
}

// Cache returns the result cache.
func (u *Upstream) Cache() *Cache {
	return u.cache
}

func (u *Upstream) PhysicalNotifications(ctx context.Context, from, to string, units []string) ([]types.PhysicalInterval, error) {
	key := cacheKey(StreamPhysicalNotifications, from, to, units)
	return cached(ctx, u.cache, StreamPhysicalNotifications, key, func(ctx context.Context) ([]types.PhysicalInterval, error) {
		return u.elexon.PhysicalNotifications(ctx, from, to, units)
	})
}

func (u *Upstream) MarketIndexPrices(ctx context.Context, from, to string) ([]types.MarketIndexQuote, error) {
	key := cacheKey(StreamMarketIndex, from, to, nil)
	return cached(ctx, u.cache, StreamMarketIndex, key, func(ctx context.Context) ([]types.MarketIndexQuote, error) {
		return u.elexon.MarketIndexPrices(ctx, from, to)
	})
}

func (u *Upstream) SystemPrices(ctx context.Context, from, to string) ([]types.SystemPrice, error) {
	key := cacheKey(StreamSystemPrices, from, to, nil)
	return cached(ctx, u.cache, StreamSystemPrices, key, func(ctx context.Context) ([]types.SystemPrice, error) {
		return u.elexon.SystemPrices(ctx, from, to)
	})
}

func (u *Upstream) BalancingSettlements(ctx context.Context, from, to string) ([]types.BalancingRecord, error) {
	key := cacheKey(StreamBalancing, from, to, nil)
	return cached(ctx, u.cache, StreamBalancing, key, func(ctx context.Context) ([]types.BalancingRecord, error) {
		return u.modo.BalancingSettlements(ctx, from, to)
	})
}

func (u *Upstream) AuctionResults(ctx context.Context, from, to string) ([]types.AuctionRecord, error) {
	key := cacheKey(StreamAuction, from, to, nil)
	return cached(ctx, u.cache, StreamAuction, key, func(ctx context.Context) ([]types.AuctionRecord, error) {
		return u.modo.AuctionResults(ctx, from, to)
	})
}
