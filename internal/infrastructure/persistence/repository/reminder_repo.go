package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ReminderRepository implements port.ReminderRepository on sqlite
type ReminderRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *sqlite.DB, logger *zap.Logger) *ReminderRepository {
	return &ReminderRepository{
		db:     db,
		logger: logger,
	}
}

const reminderSelect = `
	SELECT id, text, due_date, status, created_at, completed_at
	FROM reminders`

// Create stores a new reminder at the end of the list
func (r *ReminderRepository) Create(ctx context.Context, rem *entity.Reminder) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO reminders (id, seq, text, due_date, status, created_at, completed_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM reminders), ?, ?, ?, ?, ?)
	`,
		rem.ID, rem.Text, rem.DueDate, string(rem.Status), rem.CreatedAt, nullTime(rem.CompletedAt),
	)
	if err != nil {
		r.logger.Error("Failed to create reminder", zap.String("reminder_id", rem.ID), zap.Error(err))
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

// GetByID retrieves a reminder
func (r *ReminderRepository) GetByID(ctx context.Context, id string) (*entity.Reminder, error) {
	rem, err := scanReminder(r.db.Executor(ctx).QueryRowContext(ctx, reminderSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reminder %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get reminder", zap.String("reminder_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return rem, nil
}

// Update writes the mutable reminder fields
func (r *ReminderRepository) Update(ctx context.Context, rem *entity.Reminder) error {
	res, err := r.db.Executor(ctx).ExecContext(ctx,
		`UPDATE reminders SET text = ?, due_date = ?, status = ?, completed_at = ? WHERE id = ?`,
		rem.Text, rem.DueDate, string(rem.Status), nullTime(rem.CompletedAt), rem.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update reminder", zap.String("reminder_id", rem.ID), zap.Error(err))
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reminder %s: %w", rem.ID, port.ErrNotFound)
	}
	return nil
}

// List returns reminders in creation order
func (r *ReminderRepository) List(ctx context.Context) ([]*entity.Reminder, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, reminderSelect+` ORDER BY seq`)
	if err != nil {
		r.logger.Error("Failed to list reminders", zap.Error(err))
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*entity.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

func scanReminder(s scanner) (*entity.Reminder, error) {
	var rem entity.Reminder
	var status string
	var completedAt sql.NullTime

	if err := s.Scan(&rem.ID, &rem.Text, &rem.DueDate, &status, &rem.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	rem.Status = entity.ReminderStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		rem.CompletedAt = &t
	}
	return &rem, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ port.ReminderRepository = (*ReminderRepository)(nil)
