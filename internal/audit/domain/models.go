package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actions emitted by the pricing core.
const (
	ActionQuoteGenerated   = "quote.generated"
	ActionSnapshotted      = "pricing.snapshotted"
	ActionValidationFailed = "pricing.validation_failed"
	ActionEquipmentRented  = "equipment.rented"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	Action     string            `gorm:"type:text;not null;index"`
	ActorID    snowflake.ID      `gorm:"not null;default:0"`
	ActorName  string            `gorm:"type:text"`
	TargetType string            `gorm:"type:text;not null;index:ix_audit_logs_target,priority:1"`
	TargetID   snowflake.ID      `gorm:"not null;index:ix_audit_logs_target,priority:2"`
	Data       datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Event is the write-side shape; IDs and timestamps are assigned on record.
type Event struct {
	Action     string
	ActorID    snowflake.ID
	ActorName  string
	TargetType string
	TargetID   snowflake.ID
	Data       map[string]any
}

// Recorder is the audit sink. Record is best-effort: implementations log
// failures and return nil rather than failing the caller's operation.
// List pages newest-first; before narrows to rows older than the cursor.
type Recorder interface {
	Record(ctx context.Context, db *gorm.DB, event Event)
	List(ctx context.Context, db *gorm.DB, targetType string, targetID snowflake.ID, before *time.Time, limit int) ([]AuditLog, error)
}
