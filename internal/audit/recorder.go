// Package audit records state-changing actions to the append-only audit log.
// Writes are synchronous: if the log cannot be written, the business
// operation that triggered it fails too, so audit loss is never silent.
package audit

import (
	"context"
	"log/slog"

	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/db/models"
	"github.com/ward-census/ward-census/internal/telemetry"
)

// Entity kinds recorded in the log.
const (
	EntityWard         = "WARD"
	EntityUser         = "USER"
	EntityHousehold    = "HOUSEHOLD"
	EntityFamilyMember = "FAMILY_MEMBER"
	EntityDashboard    = "DASHBOARD"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Recorder writes audit entries through the audit repository.
type Recorder struct {
	store  auditStore
	mirror *MultiShipper
}

// NewRecorder creates a Recorder backed by the given store
func NewRecorder(store auditStore) *Recorder {
	return &Recorder{store: store}
}

// SetMirror attaches an optional shipper that receives a copy of every entry
// after the database write succeeds. Mirror failures are logged, never
// returned: the database row is the authoritative record.
func (r *Recorder) SetMirror(ms *MultiShipper) {
	r.mirror = ms
}

// Record appends one audit entry. userID and wardID may be empty for system
// actions and unscoped entities respectively. The returned error is already
// classified.
func (r *Recorder) Record(ctx context.Context, userID, action, entity, entityID, wardID, details string) error {
	entry := &models.AuditLog{
		Action: action,
		Entity: entity,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}
	if wardID != "" {
		entry.WardID = &wardID
	}
	if details != "" {
		entry.Details = &details
	}

	if err := r.store.Create(ctx, entry); err != nil {
		slog.Error("audit write failed", "action", action, "entity", entity, "error", err)
		return apperr.Unexpected(err)
	}

	telemetry.AuditRecordsTotal.WithLabelValues(entity).Inc()
	slog.Debug("audit recorded", "seq", entry.Seq, "action", action, "entity", entity, "entity_id", entityID)

	if r.mirror != nil {
		shipped := &LogEntry{
			Timestamp: entry.CreatedAt,
			Seq:       entry.Seq,
			Action:    action,
			UserID:    userID,
			Entity:    entity,
			EntityID:  entityID,
			WardID:    wardID,
			Details:   details,
		}
		if err := r.mirror.Ship(ctx, shipped); err != nil {
			slog.Warn("audit mirror ship failed", "seq", entry.Seq, "error", err)
		}
	}
	return nil
}
