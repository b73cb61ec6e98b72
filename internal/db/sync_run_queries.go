package db

import (
	"context"
	"fmt"
	"strings"
)

const (
	SyncRunStatusRunning = "running"
)

type SyncRunCounts struct {
	SignalsCollected int
	RecordsWritten   int
	CategoriesFailed int
	SourcesFailed    int
}

func (p *Pool) StartSyncRun(ctx context.Context, runUUID, trigger string) (*SyncRun, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	row := SyncRun{
		SyncRunUUID: strings.TrimSpace(runUUID),
		Trigger:     strings.TrimSpace(trigger),
		Status:      SyncRunStatusRunning,
		StartedAt:   p.gdb.NowFunc(),
	}
	if err := p.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert sync run: %w", err)
	}
	return &row, nil
}

func (p *Pool) FinishSyncRun(ctx context.Context, runUUID, status string, counts SyncRunCounts, errorMessage string) error {
	if err := p.ready(); err != nil {
		return err
	}

	var message any
	if trimmed := strings.TrimSpace(errorMessage); trimmed != "" {
		message = trimmed
	}

	res := p.gdb.WithContext(ctx).
		Model(&SyncRun{}).
		Where("sync_run_uuid = ?", strings.TrimSpace(runUUID)).
		Updates(map[string]any{
			"status":            strings.TrimSpace(status),
			"signals_collected": counts.SignalsCollected,
			"records_written":   counts.RecordsWritten,
			"categories_failed": counts.CategoriesFailed,
			"sources_failed":    counts.SourcesFailed,
			"error_message":     message,
			"finished_at":       p.gdb.NowFunc(),
		})
	if res.Error != nil {
		return fmt.Errorf("finish sync run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish sync run %s: %w", runUUID, ErrNoRows)
	}
	return nil
}

func (p *Pool) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	var rows []SyncRun
	if err := p.gdb.WithContext(ctx).
		Order("started_at DESC").
		Order("sync_run_id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return rows, nil
}
