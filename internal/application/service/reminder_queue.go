package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bharatbiz/bizagent/internal/application/dispatcher"
	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/domain/event"
	"github.com/google/uuid"
)

// DueDateLayout is the layout of defaulted due dates
const DueDateLayout = "2006-01-02"

// ErrEmptyReminder is returned when a reminder has no text
var ErrEmptyReminder = errors.New("reminder text is empty")

// ReminderQueue stores reminders. They move Pending -> Completed only and
// are never deleted.
type ReminderQueue interface {
	// Schedule creates a pending reminder. An empty due date means today.
	Schedule(ctx context.Context, text, dueDate string) (*entity.Reminder, error)
	// Complete marks a pending reminder done. Unknown ids and completed
	// reminders are a no-op reported by changed=false.
	Complete(ctx context.Context, id string) (r *entity.Reminder, changed bool, err error)
	List(ctx context.Context) ([]*entity.Reminder, error)
}

type reminderQueueImpl struct {
	repo port.ReminderRepository
	publisher
	options
}

// NewReminderQueue creates a new ReminderQueue
func NewReminderQueue(
	repo port.ReminderRepository,
	d dispatcher.Dispatcher,
	logger Logger,
	opts ...Option,
) ReminderQueue {
	return &reminderQueueImpl{
		repo:      repo,
		publisher: publisher{dispatcher: d, logger: logger},
		options:   buildOptions(opts),
	}
}

func (s *reminderQueueImpl) Schedule(ctx context.Context, text, dueDate string) (*entity.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyReminder
	}

	now := s.now()
	dueDate = strings.TrimSpace(dueDate)
	if dueDate == "" {
		dueDate = now.Format(DueDateLayout)
	}

	r := &entity.Reminder{
		ID:        uuid.NewString(),
		Text:      text,
		DueDate:   dueDate,
		Status:    entity.ReminderPending,
		CreatedAt: now,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.logger.Error("Failed to create reminder", "error", err)
		return nil, fmt.Errorf("create reminder: %w", err)
	}

	s.logger.Info("Reminder scheduled", "reminder_id", r.ID, "due_date", r.DueDate)
	s.publish(ctx, event.TypeReminderCreated, r.ID, map[string]interface{}{event.KeyReminder: r})

	return r, nil
}

func (s *reminderQueueImpl) Complete(ctx context.Context, id string) (*entity.Reminder, bool, error) {
	r, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, port.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("Failed to get reminder", "error", err, "reminder_id", id)
		return nil, false, fmt.Errorf("get reminder: %w", err)
	}

	if !r.IsPending() {
		return r, false, nil
	}

	completedAt := s.now()
	r.Status = entity.ReminderCompleted
	r.CompletedAt = &completedAt

	if err := s.repo.Update(ctx, r); err != nil {
		s.logger.Error("Failed to complete reminder", "error", err, "reminder_id", id)
		return nil, false, fmt.Errorf("update reminder: %w", err)
	}

	s.logger.Info("Reminder completed", "reminder_id", id)
	s.publish(ctx, event.TypeReminderCompleted, r.ID, map[string]interface{}{event.KeyReminder: r})

	return r, true, nil
}

func (s *reminderQueueImpl) List(ctx context.Context) ([]*entity.Reminder, error) {
	reminders, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list reminders", "error", err)
		return nil, err
	}
	return reminders, nil
}
