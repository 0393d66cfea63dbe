package handler

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames は埋め込みテンプレートのページ一覧。
// 各ページはbase.htmlのレイアウトと組み合わせてパースする。
var pageNames = []string{
	"index",
	"recipe",
	"auth_email",
	"auth_login",
	"auth_register",
}

// templates はページ名からパース済みテンプレートへのマップを構築する。
// パース失敗は起動時のエラーとして扱う。
func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// renderer はパース済みテンプレートを保持しページを描画する。
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &renderer{pages: pages}, nil
}

// render はページを指定ステータスで描画する。
// 描画エラーはヘッダー送信後に起きうるためログに残すだけにする。
func (rd *renderer) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := rd.pages[page]
	if !ok {
		slog.Error("unknown template", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		slog.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
	}
}
