package middleware

import "net/http"

// HTTPStatusRecorder はレスポンスのステータスコードを記録するメトリクス収集の窓口。
type HTTPStatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// NewStatusMetricsMiddleware はレスポンスごとにステータスコードをメトリクスへ記録する
// ミドルウェアを返す。ハンドラーが明示的にWriteHeaderを呼ばない場合は200として数える。
func NewStatusMetricsMiddleware(recorder HTTPStatusRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}
			next.ServeHTTP(rec, r)
			recorder.RecordHTTPStatus(rec.statusCode)
		})
	}
}
