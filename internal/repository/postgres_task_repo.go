package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/taskman/internal/model"
)

// taskColumns はタスクのSELECT句で使用するカラム並び。
const taskColumns = "id, user_id, title, description, status, priority, due_date, created_at, updated_at"

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, user_id, title, description, status, priority, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		task.ID, task.UserID, task.Title, task.Description,
		string(task.Status), string(task.Priority), nullableTime(task.DueDate),
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// FindByOwnerAndID は所有者とタスクIDでタスクを取得する。
// 見つからない場合（他ユーザーのタスクを含む）はnilを返す。
func (r *PostgresTaskRepo) FindByOwnerAndID(ctx context.Context, ownerID, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 AND id = $2`,
		ownerID, id,
	)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// Update はタスク全体を上書き更新する。
// 所有者が一致する行が存在しない場合はfalseを返す。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks
		 SET title = $1, description = $2, status = $3, priority = $4, due_date = $5, updated_at = $6
		 WHERE user_id = $7 AND id = $8`,
		task.Title, task.Description, string(task.Status), string(task.Priority),
		nullableTime(task.DueDate), task.UpdatedAt,
		task.UserID, task.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteByOwnerAndID は所有者とタスクIDでタスクを削除する。
// 削除対象が存在しない場合はfalseを返す。
func (r *PostgresTaskRepo) DeleteByOwnerAndID(ctx context.Context, ownerID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListByOwner は所有者のタスク一覧をフィルタ付きで取得する。
func (r *PostgresTaskRepo) ListByOwner(ctx context.Context, ownerID string, filter model.TaskFilter) ([]*model.Task, error) {
	query, args := buildListQuery(ownerID, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// buildListQuery は一覧取得のSQLとバインド引数を構築する。
//
// 所有者条件は常に先頭の必須AND条件で、クエリパラメータで上書きできない。
// 指定されたファセット（ステータス・優先度・期限範囲）は互いにOR結合する:
// いずれか1つにマッチするタスクが結果に含まれる（絞り込みのANDではない）。
// ファセットが1つもなければ所有者条件のみに帰着する。
// 期限範囲は両端を含む。
func buildListQuery(ownerID string, filter model.TaskFilter) (string, []any) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{ownerID}

	var facets []string

	if filter.Status != "" {
		args = append(args, filter.Status)
		facets = append(facets, fmt.Sprintf("status = $%d", len(args)))
	}

	if filter.Priority != "" {
		args = append(args, filter.Priority)
		facets = append(facets, fmt.Sprintf("priority = $%d", len(args)))
	}

	if filter.HasDateRange() {
		args = append(args, *filter.DueFrom)
		fromIdx := len(args)
		args = append(args, *filter.DueTo)
		toIdx := len(args)
		facets = append(facets, fmt.Sprintf("(due_date >= $%d AND due_date <= $%d)", fromIdx, toIdx))
	}

	if len(facets) > 0 {
		query += " AND (" + strings.Join(facets, " OR ") + ")"
	}

	query += " ORDER BY created_at DESC, id"

	return query, args
}

// rowScanner は*sql.Rowと*sql.Rowsの共通部分。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask は1行をmodel.Taskに読み取る。
func scanTask(row rowScanner) (*model.Task, error) {
	task := &model.Task{}
	var dueDate sql.NullTime

	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description,
		&task.Status, &task.Priority, &dueDate,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}

	return task, nil
}

// nullableTime は*time.TimeをNULL許容のバインド値に変換する。
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
