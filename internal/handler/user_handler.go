package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/validation"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Signup は新規ユーザーを登録する。メールアドレス重複時はUSER_EXISTSを返す。
	Signup(ctx context.Context, name, email, password string) (*model.User, error)
	// Signin は認証情報を検証しユーザーを返す。不一致時はINVALID_CREDENTIALSを返す。
	Signin(ctx context.Context, email, password string) (*model.User, error)
	// Get は指定IDのユーザーを取得する。未検出時はUSER_NOT_FOUNDを返す。
	Get(ctx context.Context, id string) (*model.User, error)
}

// TokenIssuer は認証トークンの発行インターフェース。
type TokenIssuer interface {
	Issue(userID string) (string, error)
	TTL() time.Duration
}

// CookieSettings はトークンクッキーの属性設定。
type CookieSettings struct {
	Secure bool
	Domain string
}

// UserHandler はユーザー認証・管理のHTTPハンドラー。
type UserHandler struct {
	service   UserServiceInterface
	issuer    TokenIssuer
	validator *validation.Validator
	cookie    CookieSettings
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, issuer TokenIssuer, validator *validation.Validator, cookie CookieSettings) *UserHandler {
	return &UserHandler{
		service:   service,
		issuer:    issuer,
		validator: validator,
		cookie:    cookie,
	}
}

// userIDResponse はサインアップ・サインイン成功時のレスポンス。
type userIDResponse struct {
	UserID string `json:"userId"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Signup は新規ユーザー登録を処理する。
// POST /api/user/signup
//
// 検証エラーは従来クライアントとの互換のため401で返す。
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req validation.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.validator.Signup(req); err != nil {
		handleValidationError(w, http.StatusUnauthorized, err)
		return
	}

	u, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.issueTokenCookie(w, u.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, userIDResponse{UserID: u.ID})
}

// Signin は既存ユーザーのサインインを処理する。
// POST /api/user/signin
//
// 検証エラー・認証情報不一致はいずれも403で返す。
func (h *UserHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req validation.SigninInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.validator.Signin(req); err != nil {
		handleValidationError(w, http.StatusForbidden, err)
		return
	}

	u, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.issueTokenCookie(w, u.ID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, userIDResponse{UserID: u.ID})
}

// Logout はトークンクッキーを破棄する。
// POST /api/user/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "ログアウトしました。"})
}

// Me は認証済みユーザー自身の情報を返す。
// GET /api/v1/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	u, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
}

// issueTokenCookie はトークンを発行しクッキーとして書き込む。
// クッキーの寿命はトークンのTTLと一致させる。
func (h *UserHandler) issueTokenCookie(w http.ResponseWriter, userID string) error {
	tok, err := h.issuer.Issue(userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    tok,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
