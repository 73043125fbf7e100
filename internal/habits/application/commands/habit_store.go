package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/cadence/internal/habits/domain"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// habitStore is the load/save cycle every habit command shares.
type habitStore struct {
	habitRepo  domain.Repository
	outboxRepo outbox.Repository
	now        func() time.Time
}

func newHabitStore(habitRepo domain.Repository, outboxRepo outbox.Repository) habitStore {
	return habitStore{
		habitRepo:  habitRepo,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

// today is the calendar day of the store's clock in local time.
func (s habitStore) today() domain.Day {
	return domain.DayOf(s.now())
}

// loadOwned finds a habit and verifies that userID owns it.
func (s habitStore) loadOwned(ctx context.Context, habitID, userID uuid.UUID) (*domain.Habit, error) {
	habit, err := s.habitRepo.FindByID(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("find habit: %w", err)
	}
	if habit == nil {
		return nil, ErrHabitNotFound
	}
	if habit.UserID() != userID {
		return nil, ErrNotOwner
	}
	return habit, nil
}

// save persists the habit and writes its pending events to the outbox.
func (s habitStore) save(ctx context.Context, habit *domain.Habit, userID uuid.UUID) error {
	if err := s.habitRepo.Save(ctx, habit); err != nil {
		return fmt.Errorf("save habit: %w", err)
	}
	return s.publish(ctx, habit, userID)
}

// publish queues the habit's pending events without touching the habit rows.
func (s habitStore) publish(ctx context.Context, habit *domain.Habit, userID uuid.UUID) error {
	events := habit.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.EventMetadataFromContext(ctx, userID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := s.outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return fmt.Errorf("save outbox messages: %w", err)
	}
	habit.ClearDomainEvents()
	return nil
}
