package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// NewRecoveryMiddleware はハンドラー内のpanicを捕捉してスタックトレース付きで記録し、
// プロセスを落とさずに500を返すミドルウェアを生成する。
// レスポンス書き込み後のpanicではヘッダーを上書きできないが、その場合も記録だけは行う。
func NewRecoveryMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				slog.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("stack", string(debug.Stack())),
				)
				http.Error(w, "Interner Serverfehler", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
