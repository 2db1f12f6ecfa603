package security

import "testing"

func TestTextSanitizer_RemovesMarkup(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"プレーンテキストはそのまま", "買い物リストを作る", "買い物リストを作る"},
		{"scriptタグ除去", `<script>alert("x")</script>レポート提出`, "レポート提出"},
		{"インラインイベント除去", `<img src=x onerror=alert(1)>会議準備`, "会議準備"},
		{"装飾タグもテキスト化", "<strong>重要</strong>なタスク", "重要なタスク"},
		{"前後空白の除去", "  タイトル  ", "タイトル"},
		{"空文字列", "", ""},
		{"アンカー除去", `<a href="https://example.com">リンク</a>`, "リンク"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	in := `<script>bad()</script>タスク & メモ`
	once := s.Sanitize(in)
	twice := s.Sanitize(once)

	if once != twice {
		t.Errorf("sanitize should be idempotent: first %q, second %q", once, twice)
	}
}

func TestTextSanitizer_KeepsLiteralSpecialChars(t *testing.T) {
	s := NewTextSanitizer()

	// タグではない記号はプレーンテキストとして保持される
	if got := s.Sanitize("A & B"); got != "A & B" {
		t.Errorf("Sanitize(%q) = %q, want %q", "A & B", got, "A & B")
	}
}
