package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// EventLogRepository implements port.EventLog on sqlite
type EventLogRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewEventLogRepository creates a new event journal
func NewEventLogRepository(db *sqlite.DB, logger *zap.Logger) *EventLogRepository {
	return &EventLogRepository{
		db:     db,
		logger: logger,
	}
}

// Append journals the event. Replays of the same event id are ignored.
func (r *EventLogRepository) Append(ctx context.Context, evt *event.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = r.db.Executor(ctx).ExecContext(ctx, `
		INSERT OR IGNORE INTO event_log (id, type, subject_id, correlation_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		evt.ID, string(evt.Type), evt.SubjectID, evt.CorrelationID, string(payload), evt.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append event", zap.String("event_id", evt.ID), zap.Error(err))
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListBySubject returns the journal of one record, oldest first
func (r *EventLogRepository) ListBySubject(ctx context.Context, subjectID string) ([]port.EventRecord, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, type, subject_id, correlation_id, payload, occurred_at
		FROM event_log
		WHERE subject_id = ?
		ORDER BY occurred_at, rowid
	`, subjectID)
	if err != nil {
		r.logger.Error("Failed to list events", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var records []port.EventRecord
	for rows.Next() {
		var rec port.EventRecord
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.SubjectID, &rec.CorrelationID, &rec.Payload, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ port.EventLog = (*EventLogRepository)(nil)
