package db

import (
	"context"
	"fmt"
	"strings"
)

func (p *Pool) CreateAPIKey(ctx context.Context, prefix, keyHash, appName, ownerEmail string) (*APIKey, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	row := APIKey{
		Prefix:     strings.TrimSpace(prefix),
		KeyHash:    strings.TrimSpace(keyHash),
		AppName:    strings.TrimSpace(appName),
		OwnerEmail: strings.ToLower(strings.TrimSpace(ownerEmail)),
		Active:     true,
		CreatedAt:  p.gdb.NowFunc(),
	}
	if err := p.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("insert api key: %w", err)
	}
	return &row, nil
}

func (p *Pool) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	var rows []APIKey
	if err := p.gdb.WithContext(ctx).Order("api_key_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return rows, nil
}

// GetActiveAPIKeyByPrefix returns ErrNoRows when no active key has prefix.
func (p *Pool) GetActiveAPIKeyByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}

	var rows []APIKey
	if err := p.gdb.WithContext(ctx).
		Where("prefix = ? AND active = ?", strings.TrimSpace(prefix), true).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query api key by prefix: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return &rows[0], nil
}

// RevokeAPIKey deactivates the key with prefix. It returns ErrNoRows when no
// active key matched.
func (p *Pool) RevokeAPIKey(ctx context.Context, prefix string) error {
	if err := p.ready(); err != nil {
		return err
	}

	res := p.gdb.WithContext(ctx).
		Model(&APIKey{}).
		Where("prefix = ? AND active = ?", strings.TrimSpace(prefix), true).
		Updates(map[string]any{
			"active":     false,
			"revoked_at": p.gdb.NowFunc(),
		})
	if res.Error != nil {
		return fmt.Errorf("revoke api key: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

func (p *Pool) TouchAPIKey(ctx context.Context, apiKeyID int64) error {
	if err := p.ready(); err != nil {
		return err
	}
	if err := p.gdb.WithContext(ctx).
		Model(&APIKey{}).
		Where("api_key_id = ?", apiKeyID).
		Update("last_used_at", p.gdb.NowFunc()).Error; err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}
	return nil
}
