// Package task はタスク管理のドメインサービスを提供する。
package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"github.com/hitoshi/taskman/internal/security"
)

// MetricsRecorder はタスク操作のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordTaskCreated()
	RecordTaskDeleted()
}

// Service はタスクのCRUDと一覧取得を提供する。
// すべての操作は所有者IDでスコープされ、他ユーザーのタスクには届かない。
type Service struct {
	taskRepo  repository.TaskRepository
	sanitizer security.TextSanitizerService
	metrics   MetricsRecorder
}

// NewService はタスクサービスを生成する。metricsはnilでもよい。
func NewService(taskRepo repository.TaskRepository, sanitizer security.TextSanitizerService, metrics MetricsRecorder) *Service {
	return &Service{
		taskRepo:  taskRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// CreateParams はタスク作成の入力を表す。
type CreateParams struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
}

// Create は新しいタスクを作成する。
// タイトルと説明はマークアップを除去してから保存する。
func (s *Service) Create(ctx context.Context, ownerID string, params CreateParams) (*model.Task, error) {
	now := time.Now()
	t := &model.Task{
		ID:          uuid.New().String(),
		UserID:      ownerID,
		Title:       s.sanitizer.Sanitize(params.Title),
		Description: s.sanitizer.Sanitize(params.Description),
		Status:      model.TaskStatus(params.Status),
		Priority:    model.TaskPriority(params.Priority),
		DueDate:     params.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTaskCreated()
	}
	slog.Info("タスクを作成しました", "task_id", t.ID, "user_id", ownerID)
	return t, nil
}

// UpdateParams はタスク更新の入力を表す。
// nilのフィールドは「変更しない」を意味する。
type UpdateParams struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	ClearDue    bool
}

// Update は既存タスクを部分更新する。
// 所有者が一致するタスクが存在しない場合はTASK_NOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, ownerID, taskID string, params UpdateParams) (*model.Task, error) {
	t, err := s.taskRepo.FindByOwnerAndID(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	if params.Title != nil {
		t.Title = s.sanitizer.Sanitize(*params.Title)
	}
	if params.Description != nil {
		t.Description = s.sanitizer.Sanitize(*params.Description)
	}
	if params.Status != nil {
		t.Status = model.TaskStatus(*params.Status)
	}
	if params.Priority != nil {
		t.Priority = model.TaskPriority(*params.Priority)
	}
	if params.DueDate != nil {
		t.DueDate = params.DueDate
	} else if params.ClearDue {
		t.DueDate = nil
	}
	t.UpdatedAt = time.Now()

	updated, err := s.taskRepo.Update(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	// 取得と更新の間に削除された場合
	if !updated {
		return nil, model.NewTaskNotFoundError(taskID)
	}

	slog.Info("タスクを更新しました", "task_id", taskID, "user_id", ownerID)
	return t, nil
}

// Get は所有者のタスクを1件取得する。
func (s *Service) Get(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	t, err := s.taskRepo.FindByOwnerAndID(ctx, ownerID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if t == nil {
		return nil, model.NewTaskNotFoundError(taskID)
	}
	return t, nil
}

// Delete は所有者のタスクを削除する。
// 対象が存在しない場合はTASK_NOT_FOUNDを返し、繰り返し呼んでも結果は変わらない。
func (s *Service) Delete(ctx context.Context, ownerID, taskID string) error {
	deleted, err := s.taskRepo.DeleteByOwnerAndID(ctx, ownerID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return model.NewTaskNotFoundError(taskID)
	}

	if s.metrics != nil {
		s.metrics.RecordTaskDeleted()
	}
	slog.Info("タスクを削除しました", "task_id", taskID, "user_id", ownerID)
	return nil
}

// List は所有者のタスク一覧をフィルタ付きで取得する。
func (s *Service) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}
