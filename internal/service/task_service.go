package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util"
)

// TaskService coordinates task workflows. Authorization happens in the
// request pipeline before these methods run; existence resolution happens
// here, which is what keeps 404 ahead of 403 for per-resource routes.
type TaskService struct {
	tasks      repository.TaskRepository
	dispatcher events.Dispatcher
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// TaskUpdateInput describes mutable task fields.
type TaskUpdateInput struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
}

// NewTaskService constructs the service.
func NewTaskService(tasks repository.TaskRepository, dispatcher events.Dispatcher) *TaskService {
	return &TaskService{tasks: tasks, dispatcher: dispatcher}
}

// Create stores a task owned by the given subject.
func (s *TaskService) Create(ctx context.Context, ownerID string, input TaskCreateInput) (*domain.Task, error) {
	task := &domain.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTaskCreated, ownerID, events.TaskEventPayload{TaskID: task.ID, Title: task.Title})
	return task, nil
}

// GetByID resolves a task row, mapping an absent id to NotFound. Callers
// run this before any ownership decision.
func (s *TaskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", nil)
		}
		return nil, err
	}
	return task, nil
}

// ListByOwner returns the owner's tasks.
func (s *TaskService) ListByOwner(ctx context.Context, ownerID string, filter repository.TaskFilter) ([]domain.Task, error) {
	return s.tasks.ListByOwner(ctx, ownerID, filter)
}

// ListAll enumerates every owner's tasks for administrative callers.
func (s *TaskService) ListAll(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return s.tasks.ListAll(ctx, filter)
}

// Update applies the provided fields to an already-authorized task.
func (s *TaskService) Update(ctx context.Context, task *domain.Task, input TaskUpdateInput) (*domain.Task, error) {
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	if input.Completed != nil && *input.Completed {
		s.publish(ctx, events.EventTaskCompleted, task.OwnerID, events.TaskEventPayload{TaskID: task.ID, Title: task.Title})
	}
	return task, nil
}

// Complete marks an already-authorized task done.
func (s *TaskService) Complete(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task.Completed {
		return task, nil
	}
	task.Completed = true
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTaskCompleted, task.OwnerID, events.TaskEventPayload{TaskID: task.ID, Title: task.Title})
	return task, nil
}

// Delete removes an already-authorized task.
func (s *TaskService) Delete(ctx context.Context, task *domain.Task) error {
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("task", nil)
		}
		return err
	}
	s.publish(ctx, events.EventTaskDeleted, task.OwnerID, events.TaskEventPayload{TaskID: task.ID})
	return nil
}

func (s *TaskService) publish(ctx context.Context, eventType events.EventType, subjectID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
