package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
	"github.com/hitoshi/taskman/internal/validation"
)

// --- モック定義 ---

type mockTaskService struct {
	createFn func(ctx context.Context, ownerID string, params task.CreateParams) (*model.Task, error)
	updateFn func(ctx context.Context, ownerID, taskID string, params task.UpdateParams) (*model.Task, error)
	getFn    func(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	deleteFn func(ctx context.Context, ownerID, taskID string) error
	listFn   func(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error)
}

func (m *mockTaskService) Create(ctx context.Context, ownerID string, params task.CreateParams) (*model.Task, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, params)
	}
	return &model.Task{ID: "task-1", UserID: ownerID, Title: params.Title}, nil
}

func (m *mockTaskService) Update(ctx context.Context, ownerID, taskID string, params task.UpdateParams) (*model.Task, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, taskID, params)
	}
	return &model.Task{ID: taskID, UserID: ownerID}, nil
}

func (m *mockTaskService) Get(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	if m.getFn != nil {
		return m.getFn(ctx, ownerID, taskID)
	}
	return &model.Task{ID: taskID, UserID: ownerID}, nil
}

func (m *mockTaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, taskID)
	}
	return nil
}

func (m *mockTaskService) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, filter)
	}
	return nil, nil
}

func newTestTaskHandler(svc *mockTaskService) *TaskHandler {
	return NewTaskHandler(svc, validation.New())
}

// authedRequest はユーザーIDをコンテキストに載せたリクエストを作る。
func authedRequest(method, target, body, userID string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
}

// withURLParam はchiのURLパラメータをリクエストに注入する。
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// --- 作成 ---

func TestTaskHandler_Create_Success(t *testing.T) {
	var gotOwner string
	var gotParams task.CreateParams
	h := newTestTaskHandler(&mockTaskService{
		createFn: func(ctx context.Context, ownerID string, params task.CreateParams) (*model.Task, error) {
			gotOwner = ownerID
			gotParams = params
			return &model.Task{
				ID:       "task-1",
				UserID:   ownerID,
				Title:    params.Title,
				Status:   model.TaskStatus(params.Status),
				Priority: model.TaskPriority(params.Priority),
				DueDate:  params.DueDate,
			}, nil
		},
	})

	body := `{"title":"買い物","description":"牛乳","status":"To do","priority":"Low","dueDate":"2026-09-01"}`
	rec := httptest.NewRecorder()
	h.Create(rec, authedRequest(http.MethodPost, "/api/task", body, "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if gotOwner != "user-1" {
		t.Errorf("owner = %q, want user-1", gotOwner)
	}
	if gotParams.DueDate == nil || !gotParams.DueDate.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("due date = %v", gotParams.DueDate)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp["status"] != "To do" || resp["priority"] != "Low" {
		t.Errorf("status/priority round-trip failed: %v", resp)
	}
}

func TestTaskHandler_Create_ValidationFailure_Returns403(t *testing.T) {
	h := newTestTaskHandler(&mockTaskService{
		createFn: func(ctx context.Context, ownerID string, params task.CreateParams) (*model.Task, error) {
			t.Fatal("service must not be called on validation failure")
			return nil, nil
		},
	})

	tests := []struct {
		name string
		body string
	}{
		{"title missing", `{"status":"To do","priority":"Low"}`},
		{"unknown status", `{"title":"a","status":"Done","priority":"Low"}`},
		{"unknown priority", `{"title":"a","status":"To do","priority":"Urgent"}`},
		{"camel-cased status", `{"title":"a","status":"ToDo","priority":"Low"}`},
		{"bad due date", `{"title":"a","status":"To do","priority":"Low","dueDate":"tomorrow"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, authedRequest(http.MethodPost, "/api/task", tt.body, "user-1"))

			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
		})
	}
}

// --- 更新 ---

func TestTaskHandler_Update_PartialBody(t *testing.T) {
	var gotParams task.UpdateParams
	h := newTestTaskHandler(&mockTaskService{
		updateFn: func(ctx context.Context, ownerID, taskID string, params task.UpdateParams) (*model.Task, error) {
			gotParams = params
			return &model.Task{ID: taskID, UserID: ownerID, Status: model.TaskStatusCompleted}, nil
		},
	})

	req := authedRequest(http.MethodPut, "/api/task/task-1", `{"status":"Completed"}`, "user-1")
	req = withURLParam(req, "id", "task-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if gotParams.Status == nil || *gotParams.Status != "Completed" {
		t.Errorf("status param = %v", gotParams.Status)
	}
	if gotParams.Title != nil || gotParams.Description != nil || gotParams.Priority != nil {
		t.Errorf("omitted fields must stay nil: %+v", gotParams)
	}
	if gotParams.ClearDue {
		t.Error("ClearDue must be false when dueDate key is absent")
	}
}

func TestTaskHandler_Update_NullDueDate_ClearsDeadline(t *testing.T) {
	var gotParams task.UpdateParams
	h := newTestTaskHandler(&mockTaskService{
		updateFn: func(ctx context.Context, ownerID, taskID string, params task.UpdateParams) (*model.Task, error) {
			gotParams = params
			return &model.Task{ID: taskID, UserID: ownerID}, nil
		},
	})

	req := authedRequest(http.MethodPut, "/api/task/task-1", `{"dueDate":null}`, "user-1")
	req = withURLParam(req, "id", "task-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !gotParams.ClearDue {
		t.Error("explicit dueDate null must clear the deadline")
	}
	if gotParams.DueDate != nil {
		t.Errorf("DueDate = %v, want nil", gotParams.DueDate)
	}
}

func TestTaskHandler_Update_NotFound_Returns404(t *testing.T) {
	h := newTestTaskHandler(&mockTaskService{
		updateFn: func(ctx context.Context, ownerID, taskID string, params task.UpdateParams) (*model.Task, error) {
			return nil, model.NewTaskNotFoundError(taskID)
		},
	})

	req := authedRequest(http.MethodPut, "/api/task/missing", `{"title":"x"}`, "user-1")
	req = withURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeTaskNotFound {
		t.Errorf("code = %q, want TASK_NOT_FOUND", body.Code)
	}
}

func TestTaskHandler_Update_InvalidEnum_Returns403(t *testing.T) {
	h := newTestTaskHandler(&mockTaskService{
		updateFn: func(ctx context.Context, ownerID, taskID string, params task.UpdateParams) (*model.Task, error) {
			t.Fatal("service must not be called with an invalid enum")
			return nil, nil
		},
	})

	req := authedRequest(http.MethodPut, "/api/task/task-1", `{"status":"Done"}`, "user-1")
	req = withURLParam(req, "id", "task-1")
	rec := httptest.NewRecorder()
	h.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// --- 削除 ---

func TestTaskHandler_Delete_Success(t *testing.T) {
	var gotOwner, gotID string
	h := newTestTaskHandler(&mockTaskService{
		deleteFn: func(ctx context.Context, ownerID, taskID string) error {
			gotOwner, gotID = ownerID, taskID
			return nil
		},
	})

	req := authedRequest(http.MethodDelete, "/api/task/task-1", "", "user-1")
	req = withURLParam(req, "id", "task-1")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotOwner != "user-1" || gotID != "task-1" {
		t.Errorf("delete scoped to %q/%q", gotOwner, gotID)
	}
}

func TestTaskHandler_Delete_Missing_Returns404(t *testing.T) {
	h := newTestTaskHandler(&mockTaskService{
		deleteFn: func(ctx context.Context, ownerID, taskID string) error {
			return model.NewTaskNotFoundError(taskID)
		},
	})

	req := authedRequest(http.MethodDelete, "/api/task/ghost", "", "user-1")
	req = withURLParam(req, "id", "ghost")
	rec := httptest.NewRecorder()
	h.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// --- 一覧 ---

func TestTaskHandler_List_NoQuery_EmptyFilter(t *testing.T) {
	var gotFilter model.TaskFilter
	h := newTestTaskHandler(&mockTaskService{
		listFn: func(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
			gotFilter = filter
			return []*model.Task{{ID: "task-1", UserID: ownerID}}, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/task", "", "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !gotFilter.Empty() {
		t.Errorf("filter = %+v, want empty", gotFilter)
	}
}

func TestTaskHandler_List_ParsesFacets(t *testing.T) {
	var gotFilter model.TaskFilter
	h := newTestTaskHandler(&mockTaskService{
		listFn: func(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
			gotFilter = filter
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet,
		"/api/task?status=To+do&priority=High&startDate=2026-09-01&endDate=2026-09-30", "", "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotFilter.Status != "To do" || gotFilter.Priority != "High" {
		t.Errorf("facets = %q/%q", gotFilter.Status, gotFilter.Priority)
	}
	if !gotFilter.HasDateRange() {
		t.Fatal("expected date range to be applied")
	}
	if !gotFilter.DueFrom.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DueFrom = %v, want start of day UTC", gotFilter.DueFrom)
	}
	wantTo := time.Date(2026, 9, 30, 23, 59, 59, 999999999, time.UTC)
	if !gotFilter.DueTo.Equal(wantTo) {
		t.Errorf("DueTo = %v, want end of day UTC", gotFilter.DueTo)
	}
}

func TestTaskHandler_List_LoneDateBound_Ignored(t *testing.T) {
	var gotFilter model.TaskFilter
	h := newTestTaskHandler(&mockTaskService{
		listFn: func(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
			gotFilter = filter
			return nil, nil
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/task?startDate=2026-09-01", "", "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotFilter.HasDateRange() {
		t.Error("lone startDate must not produce a date range")
	}
}

func TestTaskHandler_List_EmptyResult_ReturnsJSONArray(t *testing.T) {
	h := newTestTaskHandler(&mockTaskService{})

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/task", "", "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}
