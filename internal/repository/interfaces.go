// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/taskman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// TaskRepository はタスクデータの永続化インターフェース。
// すべての読み取り・変更は所有者IDでスコープされる。
type TaskRepository interface {
	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// FindByOwnerAndID は所有者とタスクIDでタスクを取得する。
	// 見つからない場合（他ユーザーのタスクを含む）はnilを返す。
	FindByOwnerAndID(ctx context.Context, ownerID, id string) (*model.Task, error)

	// Update はタスク全体を上書き更新する。
	// 所有者が一致する行が存在しない場合はfalseを返す。
	Update(ctx context.Context, task *model.Task) (bool, error)

	// DeleteByOwnerAndID は所有者とタスクIDでタスクを削除する。
	// 削除対象が存在しない場合はfalseを返す（何度呼んでも同じ結果になる）。
	DeleteByOwnerAndID(ctx context.Context, ownerID, id string) (bool, error)

	// ListByOwner は所有者のタスク一覧をフィルタ付きで取得する。
	// フィルタのファセット同士はOR結合し、所有者条件と必ずAND結合する。
	ListByOwner(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error)
}
