package db

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/CyanTarantula/trend-pulse/internal/signal"
)

// ReadTable returns every stored row of a category table, header included, in
// position order. A table that was never written reads as empty.
func (p *Pool) ReadTable(ctx context.Context, category signal.Category) ([][]string, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	var stored []TableRow
	if err := p.gdb.WithContext(ctx).
		Where("category = ?", category.String()).
		Order("position ASC").
		Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("query %s table: %w", category, err)
	}

	rows := make([][]string, 0, len(stored))
	for _, row := range stored {
		var cells []string
		if err := json.Unmarshal([]byte(row.Cells), &cells); err != nil {
			return nil, fmt.Errorf("decode %s row %d: %w", category, row.Position, err)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// ClearTable deletes every row of a category table.
func (p *Pool) ClearTable(ctx context.Context, category signal.Category) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := p.gdb.WithContext(ctx).
		Where("category = ?", category.String()).
		Delete(&TableRow{}).Error; err != nil {
		return fmt.Errorf("clear %s table: %w", category, err)
	}
	return nil
}

// WriteTable stores rows as the full contents of a category table. Callers
// clear the table first; WriteTable itself only inserts.
func (p *Pool) WriteTable(ctx context.Context, category signal.Category, rows [][]string) error {
	if err := p.ready(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	now := p.gdb.NowFunc()
	stored := make([]TableRow, 0, len(rows))
	for i, cells := range rows {
		encoded, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("encode %s row %d: %w", category, i, err)
		}
		stored = append(stored, TableRow{
			Category:  category.String(),
			Position:  i,
			Cells:     string(encoded),
			CreatedAt: now,
		})
	}

	err := p.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(stored, 200).Error
	})
	if err != nil {
		return fmt.Errorf("write %s table: %w", category, err)
	}
	return nil
}
