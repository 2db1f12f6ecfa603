// Package token は署名付きベアラートークンの発行と検証を提供する。
//
// トークンはHS256署名のJWTで、ユーザーIDと絶対有効期限のみを持つ。
// サーバー側に状態は持たず、有効性は署名と期限の再計算だけで決まる。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 検証失敗の理由。認可ゲートは両者を区別せず401として扱う。
var (
	// ErrTokenMalformed はデコード不能または署名不一致のトークンを表す。
	ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")
	// ErrTokenExpired は有効期限切れのトークンを表す。
	ErrTokenExpired = errors.New("token is expired")
)

// claims はトークンに埋め込む情報。
// ユーザーIDのクレーム名は "id"（ワイヤ互換のため固定）。
type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// Codec はトークンの発行・検証を行う。
// 秘密鍵とTTLは起動時に確定し、以降は変更されない。
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec はCodecを生成する。
// ttlは発行時点からの有効期間を指定する。
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

// TTL は発行するトークンの有効期間を返す。
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue は指定ユーザーIDを埋め込んだ署名付きトークンを発行する。
// 有効期限は発行時刻 + TTL に固定される。
func (c *Codec) Issue(userID string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID: userID,
	})

	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、埋め込まれたユーザーIDを返す。
// 期限切れはErrTokenExpired、それ以外の検証失敗はErrTokenMalformedを返す。
func (c *Codec) Verify(tokenString string) (string, error) {
	parsed := &claims{}

	_, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}

	if parsed.UserID == "" {
		return "", ErrTokenMalformed
	}

	return parsed.UserID, nil
}
