package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/CyanTarantula/trend-pulse/internal/globaltime"
	"github.com/CyanTarantula/trend-pulse/internal/merge"
	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

const snapshotCacheKey = "trends.snapshot"

var timeframeDays = map[string]int{
	"day":   1,
	"week":  7,
	"month": 30,
}

type trendsSnapshot struct {
	LastUpdated time.Time                 `json:"last_updated"`
	Generations map[string][]merge.Record `json:"generations"`
}

func (s *Server) handleTrends(c echo.Context) error {
	timeframe, ok := parseTimeframe(c)
	if !ok {
		return failParam(c, "timeframe", "must be one of day, week, month")
	}

	snapshot, err := s.loadSnapshot(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("load trends snapshot failed")
		return serverError(c, "Failed to load trends")
	}
	if timeframe != "" {
		snapshot = filterSnapshot(snapshot, timeframe, globaltime.UTC())
	}

	if principal, ok := principalFromContext(c); ok {
		s.logger.Debug().Str("app", principal.AppName).Str("timeframe", timeframe).Msg("trends served")
	}
	return success(c, snapshot)
}

func (s *Server) handleCategoryTrends(c echo.Context) error {
	category, err := signal.ParseCategory(c.Param("category"))
	if err != nil {
		return fail(c, http.StatusNotFound, "Unknown category")
	}
	timeframe, ok := parseTimeframe(c)
	if !ok {
		return failParam(c, "timeframe", "must be one of day, week, month")
	}

	snapshot, err := s.loadSnapshot(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Str("category", category.String()).Msg("load trends snapshot failed")
		return serverError(c, "Failed to load trends")
	}
	if timeframe != "" {
		snapshot = filterSnapshot(snapshot, timeframe, globaltime.UTC())
	}

	records := snapshot.Generations[category.String()]
	if records == nil {
		records = []merge.Record{}
	}
	return success(c, map[string]any{
		"last_updated": snapshot.LastUpdated,
		"category":     category.String(),
		"items":        records,
	})
}

func parseTimeframe(c echo.Context) (string, bool) {
	timeframe := strings.ToLower(strings.TrimSpace(c.QueryParam("timeframe")))
	if timeframe == "" {
		return "", true
	}
	_, ok := timeframeDays[timeframe]
	return timeframe, ok
}

// loadSnapshot returns the cached snapshot or reads every category table.
// Failed reads are never cached.
func (s *Server) loadSnapshot(ctx context.Context) (trendsSnapshot, error) {
	if cached, ok := s.cache.Get(snapshotCacheKey); ok {
		if snapshot, ok := cached.(trendsSnapshot); ok {
			return snapshot, nil
		}
	}

	snapshot := trendsSnapshot{
		LastUpdated: globaltime.UTC(),
		Generations: make(map[string][]merge.Record, len(signal.Categories)),
	}
	for _, category := range signal.Categories {
		table, err := s.tables.ReadTable(ctx, category)
		if err != nil {
			return trendsSnapshot{}, fmt.Errorf("read %s table: %w", category, err)
		}
		records, _ := merge.ParseRows(merge.SplitTable(table))
		snapshot.Generations[category.String()] = records
	}

	s.cache.Set(snapshotCacheKey, snapshot, cache.DefaultExpiration)
	return snapshot, nil
}

// filterSnapshot keeps records dated on or after now minus the timeframe and
// orders each category by score, highest first. The cached snapshot is not
// modified.
func filterSnapshot(snapshot trendsSnapshot, timeframe string, now time.Time) trendsSnapshot {
	cutoff := now.AddDate(0, 0, -timeframeDays[timeframe])

	filtered := trendsSnapshot{
		LastUpdated: snapshot.LastUpdated,
		Generations: make(map[string][]merge.Record, len(snapshot.Generations)),
	}
	for name, records := range snapshot.Generations {
		kept := make([]merge.Record, 0, len(records))
		for _, record := range records {
			day, err := globaltime.ParseDay(record.Date)
			if err != nil || day.Before(cutoff) {
				continue
			}
			kept = append(kept, record)
		}
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Score > kept[j].Score
		})
		filtered.Generations[name] = kept
	}
	return filtered
}
