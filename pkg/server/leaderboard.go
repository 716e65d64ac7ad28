package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bessleague/bessleague/pkg/export"
	"github.com/bessleague/bessleague/pkg/leaderboard"
	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/metrics"
	"github.com/bessleague/bessleague/pkg/types"
)

type leaderboardResponse struct {
	*leaderboard.Result
	Display []types.DisplayRow `json:"display"`
	Message string             `json:"message,omitempty"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := r.URL.Query().Get("date")
	viewer := r.URL.Query().Get("viewer")
	if viewer == "" {
		viewer = s.getIdentity(r).Subject
	}

	var ticket *leaderboard.Ticket
	if viewer != "" {
		ctx, ticket = s.tracker.Begin(ctx, viewer, date)
	}
	res, err := s.builder.Build(ctx, date)
	if ticket != nil && !ticket.Finish() {
		metrics.IncBuildStale()
		log.Ctx(ctx).InfoContext(ctx, "discarding superseded leaderboard", slog.String("date", date), slog.String("viewer", viewer))
		writeJSONError(w, "request superseded by a newer date", http.StatusConflict)
		return
	}
	if err != nil {
		s.writeBuildError(w, r, date, err)
		return
	}

	resp := leaderboardResponse{Result: res, Display: res.DisplayRows()}
	if res.Empty() {
		resp.Message = leaderboard.EmptyMessage
	}
	writeJSON(w, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date := r.URL.Query().Get("date")
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.builder.Build(ctx, date)
	if err != nil {
		metrics.IncExport(string(format), metrics.ResultError)
		s.writeBuildError(w, r, date, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, date, res.DisplayRows()); err != nil {
		metrics.IncExport(string(format), metrics.ResultError)
		log.Ctx(ctx).ErrorContext(ctx, "failed to render export", slog.String("format", string(format)), slog.Any("error", err))
		writeJSONError(w, "failed to render export", http.StatusInternalServerError)
		return
	}
	metrics.IncExport(string(format), metrics.ResultSuccess)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(date)))
	if _, err := buf.WriteTo(w); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets := s.builder.Registry().Assets()
	if assets == nil {
		assets = []types.Asset{}
	}
	writeJSON(w, assets)
}

func (s *Server) writeBuildError(w http.ResponseWriter, r *http.Request, date string, err error) {
	ctx := r.Context()
	var streamErr *leaderboard.StreamError
	switch {
	case errors.Is(err, leaderboard.ErrInvalidDate):
		writeJSONError(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
	case errors.As(err, &streamErr):
		log.Ctx(ctx).WarnContext(ctx, "leaderboard stream failed", slog.String("date", date), slog.Any("error", err))
		writeJSONError(w, streamErr.Message(), http.StatusBadGateway)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Ctx(ctx).InfoContext(ctx, "leaderboard request canceled", slog.String("date", date), slog.Any("error", err))
		writeJSONError(w, "request canceled", http.StatusServiceUnavailable)
	default:
		log.Ctx(ctx).ErrorContext(ctx, "failed to build leaderboard", slog.String("date", date), slog.Any("error", err))
		writeJSONError(w, "failed to build leaderboard", http.StatusInternalServerError)
	}
}
