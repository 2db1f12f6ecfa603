// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザー入力のタスクタイトル・説明文をサニタイズし、
// 格納型XSSからAPIの利用側（フロントエンド）を保護する。
// bluemondayの厳格ポリシーですべてのHTMLタグと属性を除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はプレーンテキストサニタイズ機能のインターフェースを定義する。
// タスクの保存前（作成・更新）に使用される。
type TextSanitizerService interface {
	// Sanitize は入力からHTMLタグと制御的なマークアップをすべて除去して返す。
	// タスクのタイトル・説明はプレーンテキストとして扱うため、許可タグは存在しない。
	// 前後の空白は取り除く。同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（許可タグなし）を使用するため、scriptタグやon*イベント属性を
// 含むあらゆるマークアップが本文から除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からHTMLをすべて除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	cleaned := s.policy.Sanitize(raw)
	// StrictPolicyはテキストをHTMLエスケープして返すため、
	// プレーンテキストとして保存する前に実体参照を戻す。
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
