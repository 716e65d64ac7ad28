package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bessleague/bessleague/pkg/assets"
	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/metrics"
	"github.com/bessleague/bessleague/pkg/revenue"
	"github.com/bessleague/bessleague/pkg/source"
	"github.com/bessleague/bessleague/pkg/storage"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"
	"golang.org/x/sync/errgroup"
)

// EmptyMessage is shown when a date produces no leaderboard rows.
const EmptyMessage = "no revenue data for this date, please choose a valid date"

// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// Registry is the asset lookup the service needs.
type Registry interface {
	revenue.Registry
	BalancingUnits() []string
}

// Result is the leaderboard for one settlement date.
type Result struct {
	RequestID string                 `json:"requestID"`
	Date      string                 `json:"date"`
	Rows      []types.LeaderboardRow `json:"rows"`

	// Notices holds one user facing message per failed stream.
	Notices []string       `json:"notices,omitempty"`
	Errors  []*StreamError `json:"-"`

	SkippedPeriods []int    `json:"skippedPeriods,omitempty"`
	Unmapped       int      `json:"unmappedAuctionRecords"`
	UnmappedUnits  []string `json:"unmappedAuctionUnits,omitempty"`
}

// Empty reports whether there are no rows to show.
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// DisplayRows returns the truncated view of every row.
func (r *Result) DisplayRows() []types.DisplayRow {
	out := make([]types.DisplayRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row.Display())
	}
	return out
}

// Service builds leaderboards from upstream data.
type Service struct {
	src    source.Source
	reg    Registry
	strict bool
}

// New returns a Service. In strict mode the first stream failure fails the
// whole build instead of zeroing that stream's column.
func New(src source.Source, reg Registry, strict bool) *Service {
	return &Service{src: src, reg: reg, strict: strict}
}

// Configured registers the service flags and loads the asset registry once
// flags are parsed.
func Configured(src source.Source, loader *assets.Loader, db storage.Database) *Service {
	strict := lflag.Bool("strict", false, "Fail the whole leaderboard when any revenue stream fails")

	s := &Service{src: src}
	lflag.Do(func() {
		s.strict = *strict
		reg, err := loader.Load(context.Background(), db)
		if err != nil {
			panic(fmt.Sprintf("failed to load assets: %v", err))
		}
		s.reg = reg
	})
	return s
}

// Registry returns the asset registry.
func (s *Service) Registry() Registry {
	return s.reg
}

type wholesaleOutcome struct {
	rows    []revenue.WholesaleRevenue
	skipped []int
	err     *StreamError
	sysErr  *StreamError
}

// Build fetches every stream for date in parallel and merges them. A failed
// stream becomes a notice and a zero column unless the service is strict.
// If the context is cancelled the context error is returned.
func (s *Service) Build(ctx context.Context, date string) (*Result, error) {
	if _, err := types.ParseSettlementDate(date); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	res := &Result{RequestID: uuid.NewString(), Date: date}
	ctx = log.WithAttrs(ctx, slog.String("reqID", res.RequestID), slog.String("date", date))
	start := time.Now()

	var (
		wholesale wholesaleOutcome
		bm        []revenue.BalancingRevenue
		bmErr     *StreamError
		auction   revenue.AuctionResult
		dfrErr    *StreamError
	)

	// streams never cancel each other so one failure cannot hide another
	var g errgroup.Group
	g.Go(func() error {
		wholesale = s.wholesale(ctx, date)
		return nil
	})
	g.Go(func() error {
		records, err := s.src.BalancingSettlements(ctx, date, date)
		if err == nil {
			bm, err = revenue.Balancing(records)
		}
		if err != nil {
			bmErr = newStreamError(StreamBalancing, date, err)
		}
		return nil
	})
	g.Go(func() error {
		records, err := s.src.AuctionResults(ctx, date, date)
		if err != nil {
			dfrErr = newStreamError(StreamAuction, date, err)
			return nil
		}
		if len(records) == 0 {
			dfrErr = newStreamError(StreamAuction, date, fmt.Errorf("no auction results: %w", revenue.ErrNoData))
			return nil
		}
		auction = revenue.Auction(records, s.reg)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.ObserveBuild(metrics.ResultError, time.Since(start))
		return nil, err
	}

	for _, se := range []*StreamError{wholesale.err, wholesale.sysErr, bmErr, dfrErr} {
		if se == nil {
			continue
		}
		res.Errors = append(res.Errors, se)
		res.Notices = append(res.Notices, se.Message())
		metrics.IncStreamFailure(string(se.Stream), string(se.Kind))
		log.Ctx(ctx).WarnContext(
			ctx,
			"revenue stream failed",
			slog.String("stream", string(se.Stream)),
			slog.String("kind", string(se.Kind)),
			slog.Any("error", se.Err),
		)
	}

	if len(res.Errors) > 0 && s.strict {
		metrics.ObserveBuild(metrics.ResultError, time.Since(start))
		return nil, res.Errors[0]
	}
	if wholesale.err != nil && bmErr != nil && dfrErr != nil {
		metrics.ObserveBuild(metrics.ResultError, time.Since(start))
		return nil, wholesale.err
	}

	if auction.Unmapped > 0 {
		metrics.AddAuctionUnmapped(auction.Unmapped)
		log.Ctx(ctx).WarnContext(
			ctx,
			"dropped auction records for unknown units",
			slog.Int("records", auction.Unmapped),
			slog.Any("units", auction.UnmappedUnits),
		)
	}
	if len(wholesale.skipped) > 0 {
		log.Ctx(ctx).InfoContext(ctx, "skipped settlement periods with no index volume", slog.Any("periods", wholesale.skipped))
	}

	res.Rows = revenue.Merge(s.reg, auction.Rows, wholesale.rows, bm, revenue.MergeOptions{
		Date:                 date,
		WholesaleUnavailable: wholesale.err != nil,
		AuctionUnavailable:   dfrErr != nil,
	})
	res.SkippedPeriods = wholesale.skipped
	res.Unmapped = auction.Unmapped
	res.UnmappedUnits = auction.UnmappedUnits

	metrics.ObserveBuild(metrics.ResultSuccess, time.Since(start))
	log.Ctx(ctx).InfoContext(
		ctx,
		"built leaderboard",
		slog.Int("rows", len(res.Rows)),
		slog.Int("failedStreams", len(res.Errors)),
		slog.Duration("took", time.Since(start)),
	)
	return res, nil
}

// wholesale fetches physical notifications, market index prices and system
// prices in parallel. Index data is required; system prices only feed the
// informational column. An empty feed counts as a failure with ErrNoData.
func (s *Service) wholesale(ctx context.Context, date string) wholesaleOutcome {
	var (
		out       wholesaleOutcome
		intervals []types.PhysicalInterval
		quotes    []types.MarketIndexQuote
		system    []types.SystemPrice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		intervals, err = s.src.PhysicalNotifications(gctx, date, date, s.reg.BalancingUnits())
		return err
	})
	g.Go(func() error {
		var err error
		quotes, err = s.src.MarketIndexPrices(gctx, date, date)
		return err
	})

	// system prices must not cancel the required fetches
	sysDone := make(chan error, 1)
	go func() {
		var err error
		system, err = s.src.SystemPrices(ctx, date, date)
		sysDone <- err
	}()

	err := g.Wait()
	switch {
	case err != nil:
	case len(intervals) == 0:
		err = fmt.Errorf("no physical notifications: %w", revenue.ErrNoData)
	case len(quotes) == 0:
		err = fmt.Errorf("no market index prices: %w", revenue.ErrNoData)
	}
	if err != nil {
		out.err = newStreamError(StreamWholesale, date, err)
	}
	sysErr := <-sysDone
	if sysErr == nil && len(system) == 0 {
		sysErr = fmt.Errorf("no system prices: %w", revenue.ErrNoData)
	}
	if sysErr != nil {
		out.sysErr = newStreamError(StreamSystemPrice, date, sysErr)
		system = nil
	}
	if out.err != nil {
		return out
	}

	index, skipped := revenue.ReconcileIndexPrices(quotes)
	out.skipped = skipped
	out.rows = revenue.Wholesale(revenue.Apportion(intervals), index, revenue.SystemPriceSeries(system))
	return out
}
