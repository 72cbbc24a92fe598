package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/reefward/diveops/internal/audit/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type recorder struct {
	node *snowflake.Node
	log  *zap.Logger
}

func NewRecorder(node *snowflake.Node, log *zap.Logger) domain.Recorder {
	return &recorder{node: node, log: log}
}

// Record writes an audit row. Failures are logged and swallowed: the
// audited operation must never fail because its trail could not be written.
func (r *recorder) Record(ctx context.Context, db *gorm.DB, event domain.Event) {
	row := domain.AuditLog{
		ID:         r.node.Generate(),
		Action:     event.Action,
		ActorID:    event.ActorID,
		ActorName:  event.ActorName,
		TargetType: event.TargetType,
		TargetID:   event.TargetID,
		Data:       datatypes.JSONMap(event.Data),
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		r.log.Warn("audit record failed",
			zap.String("action", event.Action),
			zap.Int64("target_id", int64(event.TargetID)),
			zap.Error(err),
		)
	}
}

func (r *recorder) List(ctx context.Context, db *gorm.DB, targetType string, targetID snowflake.ID, before *time.Time, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	q := db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID)
	if before != nil {
		q = q.Where("created_at < ?", *before)
	}
	var rows []domain.AuditLog
	err := q.Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
