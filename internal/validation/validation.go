// Package validation はリクエストペイロードの検証スキーマを提供する。
//
// 構造タグによる宣言的な制約（必須・長さ・メール形式）に加え、
// タスクのステータス・優先度は閉じた列挙への所属を検証する。
// 検証は副作用を持たず、失敗時は対象フィールドを特定できるAPIErrorを返す。
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/taskman/internal/model"
)

// SignupInput はサインアップのリクエストボディ。
type SignupInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// SigninInput はサインインのリクエストボディ。
type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// TaskInput はタスク作成のリクエストボディ。
// DueDateは "2006-01-02" またはRFC 3339形式の文字列を受け付ける（任意項目）。
type TaskInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"omitempty"`
	Status      string `json:"status" validate:"required,taskstatus"`
	Priority    string `json:"priority" validate:"required,taskpriority"`
	DueDate     string `json:"dueDate" validate:"omitempty"`
}

// Validator は各ペイロードの検証器。スレッドセーフで再利用できる。
type Validator struct {
	validate *validator.Validate
}

// New は列挙検証を登録済みのValidatorを生成する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// 列挙への所属チェック。登録失敗はタグ名の衝突などプログラミングエラーのみ。
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return model.TaskStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("taskpriority", func(fl validator.FieldLevel) bool {
		return model.TaskPriority(fl.Field().String()).Valid()
	})

	return &Validator{validate: v}
}

// Signup はサインアップペイロードを検証する。
func (v *Validator) Signup(in SignupInput) error {
	return v.check(in)
}

// Signin はサインインペイロードを検証する。
func (v *Validator) Signin(in SigninInput) error {
	return v.check(in)
}

// Task はタスクペイロードを検証する。
func (v *Validator) Task(in TaskInput) error {
	return v.check(in)
}

// check は構造体を検証し、失敗時にフィールド単位の理由を持つAPIErrorへ変換する。
func (v *Validator) check(in any) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError等、入力起因でない失敗
		return model.NewValidationError("invalid payload")
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describeFieldError(fe))
	}
	return model.NewValidationError(strings.Join(details, "; "))
}

// describeFieldError は検証失敗1件をクライアント向けの静的文言に変換する。
func describeFieldError(fe validator.FieldError) string {
	field := jsonFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s は必須です", field)
	case "email":
		return fmt.Sprintf("%s はメールアドレス形式で指定してください", field)
	case "min":
		return fmt.Sprintf("%s は%s文字以上で指定してください", field, fe.Param())
	case "taskstatus":
		return fmt.Sprintf("%s は 'To do'・'In Progress'・'Completed' のいずれかを指定してください", field)
	case "taskpriority":
		return fmt.Sprintf("%s は 'Low'・'Medium'・'High' のいずれかを指定してください", field)
	default:
		return fmt.Sprintf("%s が不正です", field)
	}
}

// jsonFieldName はGoのフィールド名をワイヤ上のJSONキー名に揃える。
func jsonFieldName(name string) string {
	switch name {
	case "DueDate":
		return "dueDate"
	default:
		return strings.ToLower(name[:1]) + name[1:]
	}
}
