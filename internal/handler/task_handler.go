package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/task"
	"github.com/hitoshi/taskman/internal/validation"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// Create は新しいタスクを作成する。
	Create(ctx context.Context, ownerID string, params task.CreateParams) (*model.Task, error)
	// Update は既存タスクを部分更新する。未検出時はTASK_NOT_FOUNDを返す。
	Update(ctx context.Context, ownerID, taskID string, params task.UpdateParams) (*model.Task, error)
	// Get は所有者のタスクを1件取得する。
	Get(ctx context.Context, ownerID, taskID string) (*model.Task, error)
	// Delete は所有者のタスクを削除する。未検出時はTASK_NOT_FOUNDを返す。
	Delete(ctx context.Context, ownerID, taskID string) error
	// List は所有者のタスク一覧をフィルタ付きで取得する。
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error)
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service   TaskServiceInterface
	validator *validation.Validator
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, validator *validation.Validator) *TaskHandler {
	return &TaskHandler{
		service:   service,
		validator: validator,
	}
}

// updateTaskRequest はタスク更新リクエストのボディ。
// nilのフィールドは「変更しない」を意味する。dueDateにnullを明示すると期限を外す。
type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`

	dueDateSet bool
}

// UnmarshalJSON はdueDateキーの有無を記録する。
// キーなしとnull指定を区別するために必要になる。
func (r *updateTaskRequest) UnmarshalJSON(data []byte) error {
	type alias updateTaskRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, a.dueDateSet = keys["dueDate"]

	*r = updateTaskRequest(a)
	return nil
}

// taskResponse はタスク情報のAPIレスポンス。
type taskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Create はタスク作成を処理する。
// POST /api/task
//
// 検証エラーは従来クライアントとの互換のため403で返す。
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req validation.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.validator.Task(req); err != nil {
		handleValidationError(w, http.StatusForbidden, err)
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("dueDate は日付形式で指定してください"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, task.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     dueDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toTaskResponse(created))
}

// Update はタスクの部分更新を処理する。
// PUT /api/task/:id
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	taskID := chi.URLParam(r, "id")

	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.Status != nil && !model.TaskStatus(*req.Status).Valid() {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("status は 'To do'・'In Progress'・'Completed' のいずれかを指定してください"))
		return
	}
	if req.Priority != nil && !model.TaskPriority(*req.Priority).Valid() {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("priority は 'Low'・'Medium'・'High' のいずれかを指定してください"))
		return
	}

	params := task.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("dueDate は日付形式で指定してください"))
			return
		}
		params.DueDate = due
	} else if req.dueDateSet {
		// dueDate: null は期限の削除
		params.ClearDue = true
	}

	updated, err := h.service.Update(r.Context(), userID, taskID, params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toTaskResponse(updated))
}

// Get はタスク詳細を取得する。
// GET /api/task/:id
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	t, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toTaskResponse(t))
}

// Delete はタスク削除を処理する。
// DELETE /api/task/:id
//
// 既に存在しないIDに対しては何度呼んでも404を返す。
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "タスクを削除しました。"})
}

// List はタスク一覧を取得する。
// GET /api/task?status=&priority=&startDate=&endDate=
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	tasks, err := h.service.List(r.Context(), userID, parseTaskFilter(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		results[i] = toTaskResponse(t)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// --- ヘルパー関数 ---

// toTaskResponse はmodel.TaskからAPIレスポンスに変換する。
func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// parseDueDate は期限文字列を解釈する。空文字列はnilを返す。
// "2006-01-02" とRFC 3339の両形式を受け付ける。
func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

// parseTaskFilter はクエリパラメータから一覧フィルタを組み立てる。
//
// 期限範囲はstartDateとendDateの両方が日付として解釈できたときのみ適用し、
// 片方だけの指定や解釈できない値は黙って無視する。
// 範囲は startDate のUTC 0時から endDate のUTC 23:59:59.999999999 までの閉区間。
func parseTaskFilter(r *http.Request) model.TaskFilter {
	q := r.URL.Query()
	filter := model.TaskFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}

	start, errStart := time.Parse("2006-01-02", q.Get("startDate"))
	end, errEnd := time.Parse("2006-01-02", q.Get("endDate"))
	if errStart == nil && errEnd == nil {
		from := start.UTC()
		to := end.UTC().Add(24*time.Hour - time.Nanosecond)
		filter.DueFrom = &from
		filter.DueTo = &to
	}

	return filter
}
