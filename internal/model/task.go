// Package model はドメインモデルを定義する。
package model

import "time"

// TaskStatus はタスクの進行状態を表す。
// 表記は "To do" / "In Progress" / "Completed" に正規化する。
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "To do"
	TaskStatusInProgress TaskStatus = "In Progress"
	TaskStatusCompleted  TaskStatus = "Completed"
)

// Valid はステータスが定義済みの値かどうかを返す。
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

// Valid は優先度が定義済みの値かどうかを返す。
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task はユーザーが管理するタスクを表す。
// 各タスクは必ず1人のユーザーに属する（UserIDは外部キー）。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFilter はタスク一覧の絞り込み条件を表す。
// Status / Priority は空文字列のとき未指定。
// 期限範囲はDueFromとDueToの両方が揃ったときのみ適用する（片方だけは無視する）。
// 指定されたファセット同士はOR結合し、所有者条件とAND結合する。
type TaskFilter struct {
	Status   string
	Priority string
	DueFrom  *time.Time
	DueTo    *time.Time
}

// HasDateRange は期限範囲フィルタが有効かどうかを返す。
func (f TaskFilter) HasDateRange() bool {
	return f.DueFrom != nil && f.DueTo != nil
}

// Empty はフィルタが1つも指定されていないかどうかを返す。
func (f TaskFilter) Empty() bool {
	return f.Status == "" && f.Priority == "" && !f.HasDateRange()
}
