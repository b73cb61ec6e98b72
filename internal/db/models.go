package db

import "time"

// TableRow is one row of a category table. Position 0 holds the header.
type TableRow struct {
	TableRowID int64     `gorm:"column:table_row_id;primaryKey;autoIncrement"`
	Category   string    `gorm:"column:category;type:text;not null;index:idx_table_rows_category_position,priority:1"`
	Position   int       `gorm:"column:position;not null;index:idx_table_rows_category_position,priority:2"`
	Cells      string    `gorm:"column:cells;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (TableRow) TableName() string { return "table_rows" }

// APIKey is an issued read API key. Only the bcrypt hash of the secret is
// stored; Prefix narrows the lookup before hash comparison.
type APIKey struct {
	APIKeyID   int64      `gorm:"column:api_key_id;primaryKey;autoIncrement"`
	Prefix     string     `gorm:"column:prefix;type:text;not null;uniqueIndex"`
	KeyHash    string     `gorm:"column:key_hash;type:text;not null"`
	AppName    string     `gorm:"column:app_name;type:text;not null"`
	OwnerEmail string     `gorm:"column:owner_email;type:text;not null;default:''"`
	Active     bool       `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
	LastUsedAt *time.Time `gorm:"column:last_used_at"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
}

func (APIKey) TableName() string { return "api_keys" }

// SyncRun records one pass of the sync pipeline.
type SyncRun struct {
	SyncRunID        int64      `gorm:"column:sync_run_id;primaryKey;autoIncrement"`
	SyncRunUUID      string     `gorm:"column:sync_run_uuid;type:text;not null;uniqueIndex"`
	Trigger          string     `gorm:"column:triggered_by;type:text;not null"`
	Status           string     `gorm:"column:status;type:text;not null;default:running"`
	SignalsCollected int        `gorm:"column:signals_collected;not null;default:0"`
	RecordsWritten   int        `gorm:"column:records_written;not null;default:0"`
	CategoriesFailed int        `gorm:"column:categories_failed;not null;default:0"`
	SourcesFailed    int        `gorm:"column:sources_failed;not null;default:0"`
	ErrorMessage     *string    `gorm:"column:error_message;type:text"`
	StartedAt        time.Time  `gorm:"column:started_at;not null"`
	FinishedAt       *time.Time `gorm:"column:finished_at"`
}

func (SyncRun) TableName() string { return "sync_runs" }

func autoMigrateModels() []any {
	return []any{
		&TableRow{},
		&APIKey{},
		&SyncRun{},
	}
}
