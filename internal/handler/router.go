package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/kondate/internal/auth"
	"github.com/hitoshi/kondate/internal/metrics"
	"github.com/hitoshi/kondate/internal/middleware"
	"github.com/hitoshi/kondate/internal/recipe"
	"github.com/hitoshi/kondate/internal/session"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger
	DB     *sql.DB

	// セッションとレート制限
	Codec       *session.Codec
	RateLimiter *middleware.RateLimiter

	// 認証
	AuthService   AuthServiceInterface
	OAuthProvider auth.OAuthProvider
	AuthConfig    AuthHandlerConfig

	// レシピ生成
	Generator     recipe.Generator
	RecipeTimeout time.Duration

	// メトリクス
	Metrics  metrics.MetricsCollector
	Gatherer prometheus.Gatherer
}

// NewRouter は全ルートとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → StatusMetrics → Logging
//
// 認証ページ（/auth/*）はガードの外、/と/recipeはRequireUserの内側に置く。
// /recipeのみユーザー単位のレート制限を追加する。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	rd, err := newRenderer()
	if err != nil {
		return nil, err
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.OAuthProvider, deps.Codec, deps.Metrics, rd, deps.AuthConfig)
	pageHandler := NewPageHandler(deps.AuthService, deps.Generator, deps.Codec, deps.Metrics, rd, deps.RecipeTimeout)

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewStatusMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Get("/", authHandler.EmailEntryPage)
		r.Post("/", authHandler.EmailEntrySubmit)

		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.LoginSubmit)

		r.Get("/register", authHandler.RegisterPage)
		r.Post("/register", authHandler.RegisterSubmit)

		r.Post("/logout", authHandler.Logout)

		// Google OAuthフロー
		r.Get("/google", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)
	})

	r.Get("/health", NewHealthHandler(deps.DB))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証が必要なルート ---

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser(deps.Codec))

		r.Get("/", pageHandler.Index)

		// レシピ生成はLLM呼び出しを伴うためレート制限を追加
		r.With(deps.RateLimiter.Middleware()).Get("/recipe", pageHandler.Recipe)
	})

	return r, nil
}

// NewHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
