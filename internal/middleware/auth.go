// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/kondate/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// AuthEntryPath は未認証リクエストのリダイレクト先。
const AuthEntryPath = "/auth"

// RequireUser は署名付きセッションCookieを検証するミドルウェアを返す。
// セッションが欠落・無効な場合は認証入口へリダイレクトし、元のリクエスト
// パス（クエリ含む）をredirectToパラメータとして保存する。
// 有効な場合はユーザーIDをリクエストコンテキストに注入する。
// ユーザーレコードの存在はここでは再確認しない（CurrentUser側で行う）。
func RequireUser(codec *session.Codec) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := codec.Read(r)
			if !ok {
				RedirectToAuth(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectToAuth は元のリクエストパスを保存して認証入口へリダイレクトする。
// 例: /recipe?id=eggs → /auth?redirectTo=%2Frecipe%3Fid%3Deggs
func RedirectToAuth(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	params := url.Values{"redirectTo": {target}}
	http.Redirect(w, r, AuthEntryPath+"?"+params.Encode(), http.StatusFound)
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// RequireUserを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
