// Package handler はサーバーレンダリングされたページのHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/kondate/internal/auth"
	"github.com/hitoshi/kondate/internal/metrics"
	"github.com/hitoshi/kondate/internal/model"
	"github.com/hitoshi/kondate/internal/session"
)

const (
	oauthStateCookie = "oauth_state"
	oauthTimeout     = 10 * time.Second
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, form auth.RegisterForm) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	UserExists(ctx context.Context, email string) (bool, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	CompleteOAuthLogin(ctx context.Context, profile auth.Profile) (*model.User, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	GoogleEnabled bool
}

// AuthHandler はパスワード認証とGoogle OAuthのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	oauth    auth.OAuthProvider
	codec    *session.Codec
	metrics  metrics.MetricsCollector
	renderer *renderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, oauth auth.OAuthProvider, codec *session.Codec, collector metrics.MetricsCollector, rd *renderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		oauth:    oauth,
		codec:    codec,
		metrics:  collector,
		renderer: rd,
		config:   config,
	}
}

// --- テンプレートデータ ---

type authEmailData struct {
	Email         string
	RedirectTo    string
	FieldErrors   model.FieldErrors
	GoogleEnabled bool
}

type loginData struct {
	Email       string
	RedirectTo  string
	FieldErrors model.FieldErrors
	Error       string
}

type registerData struct {
	Email       string
	FirstName   string
	LastName    string
	RedirectTo  string
	FieldErrors model.FieldErrors
	Error       string
}

// EmailEntryPage はメールアドレス入力ページを表示する。
// GET /auth
func (h *AuthHandler) EmailEntryPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfLoggedIn(w, r) {
		return
	}

	h.renderer.render(w, http.StatusOK, "auth_email", authEmailData{
		RedirectTo:    r.URL.Query().Get("redirectTo"),
		GoogleEnabled: h.config.GoogleEnabled,
	})
}

// EmailEntrySubmit はメールアドレスを検証し、登録状況に応じて
// ログインまたは登録ページへ振り分ける。
// POST /auth
func (h *AuthHandler) EmailEntrySubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	redirectTo := r.URL.Query().Get("redirectTo")

	email, fieldErrs := auth.ParseEmailForm(r.PostForm)
	if fieldErrs != nil {
		h.renderer.render(w, http.StatusBadRequest, "auth_email", authEmailData{
			Email:         r.PostForm.Get("email"),
			RedirectTo:    redirectTo,
			FieldErrors:   fieldErrs,
			GoogleEnabled: h.config.GoogleEnabled,
		})
		return
	}

	exists, err := h.service.UserExists(r.Context(), email)
	if err != nil {
		slog.Error("failed to check user existence", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	params := url.Values{"email": {email}}
	if redirectTo != "" {
		params.Set("redirectTo", redirectTo)
	}

	target := "/auth/register?" + params.Encode()
	if exists {
		target = "/auth/login?" + params.Encode()
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// LoginPage はログインフォームを表示する。
// GET /auth/login?email=xxx
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfLoggedIn(w, r) {
		return
	}

	h.renderer.render(w, http.StatusOK, "auth_login", loginData{
		Email:      r.URL.Query().Get("email"),
		RedirectTo: r.URL.Query().Get("redirectTo"),
	})
}

// LoginSubmit はログインフォームを処理する。
// POST /auth/login
func (h *AuthHandler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	redirectTo := r.URL.Query().Get("redirectTo")

	form, fieldErrs := auth.ParseLoginForm(r.PostForm)
	if fieldErrs != nil {
		h.renderer.render(w, http.StatusBadRequest, "auth_login", loginData{
			Email:       r.PostForm.Get("email"),
			RedirectTo:  redirectTo,
			FieldErrors: fieldErrs,
		})
		return
	}

	user, err := h.service.Login(r.Context(), form.Email, form.Password)
	if errors.Is(err, model.ErrInvalidCredentials) {
		h.metrics.RecordLoginFailure("password")
		h.renderer.render(w, http.StatusBadRequest, "auth_login", loginData{
			Email:      form.Email,
			RedirectTo: redirectTo,
			Error:      "Incorrect login",
		})
		return
	}
	if err != nil {
		slog.Error("login failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordLoginSuccess("password")
	http.SetCookie(w, h.codec.Issue(user.ID))
	http.Redirect(w, r, safeRedirect(redirectTo), http.StatusFound)
}

// RegisterPage は登録フォームを表示する。
// GET /auth/register?email=xxx
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfLoggedIn(w, r) {
		return
	}

	h.renderer.render(w, http.StatusOK, "auth_register", registerData{
		Email:      r.URL.Query().Get("email"),
		RedirectTo: r.URL.Query().Get("redirectTo"),
	})
}

// RegisterSubmit は登録フォームを処理する。
// メールアドレスの重複はストア層の一意制約違反として通知されるため、
// 事前チェックは行わず model.ErrEmailTaken だけをフォームエラーに写す。
// POST /auth/register
func (h *AuthHandler) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	redirectTo := r.URL.Query().Get("redirectTo")

	form, fieldErrs := auth.ParseRegisterForm(r.PostForm)
	if fieldErrs != nil {
		h.renderer.render(w, http.StatusBadRequest, "auth_register", registerData{
			Email:       r.PostForm.Get("email"),
			FirstName:   r.PostForm.Get("firstName"),
			LastName:    r.PostForm.Get("lastName"),
			RedirectTo:  redirectTo,
			FieldErrors: fieldErrs,
		})
		return
	}

	user, err := h.service.Register(r.Context(), form)
	if errors.Is(err, model.ErrEmailTaken) {
		h.renderer.render(w, http.StatusBadRequest, "auth_register", registerData{
			Email:      form.Email,
			FirstName:  form.FirstName,
			LastName:   form.LastName,
			RedirectTo: redirectTo,
			Error:      "user-exists",
		})
		return
	}
	if err != nil {
		slog.Error("registration failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordRegistration()
	h.metrics.RecordLoginSuccess("password")
	http.SetCookie(w, h.codec.Issue(user.ID))
	http.Redirect(w, r, safeRedirect(redirectTo), http.StatusFound)
}

// Logout はセッションを破棄しログインページへ戻す。
// セッションがない・無効な場合も同じ動きをする（冪等）。
// ユーザーが解決できた場合はメールアドレスをプリフィルとして引き継ぐ。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	target := "/auth/login"

	if userID, ok := h.codec.Read(r); ok {
		if user, err := h.service.CurrentUser(r.Context(), userID); err == nil {
			target += "?email=" + url.QueryEscape(user.Email)
		}
	}

	http.SetCookie(w, h.codec.Clear())
	http.Redirect(w, r, target, http.StatusFound)
}

// GoogleLogin はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.config.GoogleEnabled {
		http.NotFound(w, r)
		return
	}

	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.oauth.LoginURL(h.callbackURI(r), state), http.StatusTemporaryRedirect)
}

// GoogleCallback はOAuthコールバックを処理する。
// プロバイダーがエラーを返した場合やプロファイルが不完全な場合は
// セッションを発行せずトップへ戻す。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.config.GoogleEnabled {
		http.NotFound(w, r)
		return
	}

	// プロバイダー側で拒否された場合（アクセス拒否など）
	if oauthErr := r.URL.Query().Get("error"); oauthErr != "" {
		slog.Warn("oauth provider returned error", slog.String("error", oauthErr))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		http.Error(w, "invalid state parameter", http.StatusBadRequest)
		return
	}

	// stateクッキーを削除
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), oauthTimeout)
	defer cancel()

	profile, err := h.oauth.ExchangeCode(ctx, code, h.callbackURI(r))
	if errors.Is(err, model.ErrTokenExchangeFailed) || errors.Is(err, model.ErrProfileIncomplete) {
		slog.Warn("oauth login rejected", slog.String("error", err.Error()))
		h.metrics.RecordLoginFailure("google")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err != nil {
		slog.Error("oauth code exchange failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.service.CompleteOAuthLogin(ctx, *profile)
	if err != nil {
		slog.Error("oauth login failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordLoginSuccess("google")
	http.SetCookie(w, h.codec.Issue(user.ID))
	http.Redirect(w, r, "/", http.StatusFound)
}

// redirectIfLoggedIn はログイン済みユーザーをトップへ戻す。
// 認証ページはログイン済みユーザーには表示しない。
func (h *AuthHandler) redirectIfLoggedIn(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := h.codec.Read(r); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return true
	}
	return false
}

// callbackURI はリクエストのホストからOAuthコールバックURIを組み立てる。
// Cookieがsecureでない環境（ローカル開発）のみhttpを使う。
func (h *AuthHandler) callbackURI(r *http.Request) string {
	scheme := "https"
	if !h.config.CookieSecure {
		scheme = "http"
	}
	return scheme + "://" + r.Host + auth.CallbackPath
}

// safeRedirect はredirectToをルート相対パスに限定する。
// 外部URLやプロトコル相対URLへのオープンリダイレクトを防ぐ。
func safeRedirect(redirectTo string) string {
	if strings.HasPrefix(redirectTo, "/") && !strings.HasPrefix(redirectTo, "//") {
		return redirectTo
	}
	return "/"
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
