package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- モック定義 ---

type mockStatusRecorder struct {
	statuses []int
}

func (m *mockStatusRecorder) RecordHTTPStatus(statusCode int) {
	m.statuses = append(m.statuses, statusCode)
}

var _ HTTPStatusRecorder = (*mockStatusRecorder)(nil)

// --- テスト ---

func TestStatusMetricsMiddleware_RecordsStatusCode(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    int
	}{
		{
			name: "明示的なWriteHeaderのステータスを記録する",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: http.StatusNotFound,
		},
		{
			name: "WriteHeaderなしのレスポンスは200として記録する",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			},
			want: http.StatusOK,
		},
		{
			name: "リダイレクトのステータスを記録する",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/auth", http.StatusFound)
			},
			want: http.StatusFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockStatusRecorder{}
			handler := NewStatusMetricsMiddleware(recorder)(tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if len(recorder.statuses) != 1 {
				t.Fatalf("expected 1 recorded status, got %d", len(recorder.statuses))
			}
			if recorder.statuses[0] != tt.want {
				t.Errorf("recorded status = %d, want %d", recorder.statuses[0], tt.want)
			}
		})
	}
}
