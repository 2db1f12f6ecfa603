package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskman/internal/middleware"
	"github.com/hitoshi/taskman/internal/validation"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HTTPMetrics       middleware.HTTPMetricsRecorder
	Logger            *slog.Logger

	// トークン発行とクッキー属性
	TokenIssuer TokenIssuer
	Cookie      CookieSettings

	// サービス
	UserService UserServiceInterface
	TaskService TaskServiceInterface

	// 死活監視
	DB DBPinger

	// 公開エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→ [公開ルート | Auth → RateLimit(General) → 保護ルート]
//
// サインアップ・サインインには認証ゲートの代わりにIP単位のレート制限を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	validator := validation.New()
	userHandler := NewUserHandler(deps.UserService, deps.TokenIssuer, validator, deps.Cookie)
	taskHandler := NewTaskHandler(deps.TaskService, validator)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Check)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// サインアップ・サインイン（認証試行レート制限を適用）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthAttemptMiddleware())
		r.Post("/api/user/signup", userHandler.Signup)
		r.Post("/api/user/signin", userHandler.Signin)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セッション確認
		r.Get("/check", checkHandler)

		// ユーザー管理
		r.Post("/api/user/logout", userHandler.Logout)
		r.Get("/api/v1/user/me", userHandler.Me)

		// タスク管理
		r.Route("/api/task", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Put("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)
			})
		})
	})

	return r
}

// checkHandler は認証ゲートを通過したことだけを確認する。
// GET /check
func checkHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "checked"})
}
