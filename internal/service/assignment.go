package service

import (
	"context"
	"fmt"

	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/repository"
)

type AssignmentService struct {
	store repository.Store
}

func NewAssignmentService(store repository.Store) *AssignmentService {
	return &AssignmentService{store: store}
}

// NextTask returns the lowest-id open task the worker has not answered yet,
// or nil when there is none.
func (s *AssignmentService) NextTask(ctx context.Context, workerID int64) (*domain.TaskSummary, error) {
	task, err := s.store.NextTaskForWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("next task: %w", err)
	}
	return task, nil
}
