package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"mess-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type LogOptions struct {
	UserID      uint
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Filter struct {
	UserID     uint
	EntityType string
	EntityID   uint
	Limit      int
}

const defaultListLimit = 200

type Recorder struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRecorder(db *gorm.DB, log zerolog.Logger) *Recorder {
	return &Recorder{db: db, log: log.With().Str("component", "audit").Logger()}
}

func (r *Recorder) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record writes an entry for a mutation that is already committed. A failed
// write is logged; it does not undo the mutation.
func (r *Recorder) Record(ctx context.Context, opts LogOptions) {
	if err := r.WriteLog(ctx, opts); err != nil {
		r.log.Error().Err(err).
			Str("entity_type", opts.EntityType).
			Uint("entity_id", opts.EntityID).
			Str("action", string(opts.Action)).
			Msg("audit log lost")
	}
}

func (r *Recorder) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	limit := f.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	logs := make([]models.AuditLog, 0)
	if err := q.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

// snapshot encodes v as JSON, "null" when absent.
func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
