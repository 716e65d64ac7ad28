// Command leaderboard builds the leaderboard for one settlement date and
// writes it to a file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bessleague/bessleague/pkg/assets"
	"github.com/bessleague/bessleague/pkg/export"
	"github.com/bessleague/bessleague/pkg/leaderboard"
	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/metrics"
	"github.com/bessleague/bessleague/pkg/source"
	"github.com/bessleague/bessleague/pkg/storage"
	"github.com/bessleague/bessleague/pkg/types"

	"github.com/joho/godotenv"
	"github.com/levenlabs/go-lflag"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	src := source.Configured()
	s := storage.Configured()
	l := assets.Configured()
	svc := leaderboard.Configured(src, l, s)

	date := lflag.String("date", "", "Settlement date (YYYY-MM-DD), defaults to yesterday")
	out := lflag.String("out", "", "Output file, - for stdout, defaults to leaderboard-DATE.<format>")
	formatName := lflag.String("format", "", "Output format (csv, xlsx, pdf), defaults to the extension of out or csv")

	lflag.Configure()

	if _, err := log.SyncLevel(); err != nil {
		panic(err)
	}
	metrics.Init()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, svc, src, s, *date, *out, *formatName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *leaderboard.Service, src *source.Upstream, s storage.Database, date, out, formatName string) error {
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	if err := src.Validate(); err != nil {
		return fmt.Errorf("invalid upstream configuration: %w", err)
	}

	if date == "" {
		date = time.Now().UTC().AddDate(0, 0, -1).Format(time.DateOnly)
	}
	if formatName == "" && out != "" && out != "-" {
		formatName = strings.TrimPrefix(filepath.Ext(out), ".")
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if out == "" {
		out = format.Filename(date)
	}

	res, err := svc.Build(ctx, date)
	if err != nil {
		var streamErr *leaderboard.StreamError
		if errors.As(err, &streamErr) {
			return errors.New(streamErr.Message())
		}
		return fmt.Errorf("failed to build leaderboard: %w", err)
	}
	for _, notice := range res.Notices {
		fmt.Fprintln(os.Stderr, notice)
	}
	if res.Empty() {
		fmt.Fprintln(os.Stderr, leaderboard.EmptyMessage)
	}

	if err := writeFile(out, format, date, res.DisplayRows()); err != nil {
		metrics.IncExport(string(format), metrics.ResultError)
		return err
	}
	metrics.IncExport(string(format), metrics.ResultSuccess)
	log.Ctx(ctx).InfoContext(ctx, "wrote leaderboard", slog.String("date", date), slog.String("out", out), slog.Int("rows", len(res.Rows)))
	return nil
}

// writeFile renders rows to out, or to stdout when out is "-". The file is
// closed before returning so a failed flush is reported.
func writeFile(out string, format export.Format, date string, rows []types.DisplayRow) error {
	if out == "-" {
		if err := export.Write(os.Stdout, format, date, rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", format, err)
		}
		return nil
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := export.Write(f, format, date, rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", out, err)
	}
	return nil
}
