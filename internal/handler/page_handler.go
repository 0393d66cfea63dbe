package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/kondate/internal/metrics"
	"github.com/hitoshi/kondate/internal/middleware"
	"github.com/hitoshi/kondate/internal/model"
	"github.com/hitoshi/kondate/internal/recipe"
	"github.com/hitoshi/kondate/internal/session"
)

// PageHandler は認証必須ページ（食材選択・レシピ）のHTTPハンドラー。
type PageHandler struct {
	service   AuthServiceInterface
	generator recipe.Generator
	codec     *session.Codec
	metrics   metrics.MetricsCollector
	renderer  *renderer

	// timeout はレシピ生成の実行上限。
	timeout time.Duration
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(service AuthServiceInterface, generator recipe.Generator, codec *session.Codec, collector metrics.MetricsCollector, rd *renderer, timeout time.Duration) *PageHandler {
	return &PageHandler{
		service:   service,
		generator: generator,
		codec:     codec,
		metrics:   collector,
		renderer:  rd,
		timeout:   timeout,
	}
}

type indexData struct {
	User    *model.User
	Catalog []string
}

type recipeData struct {
	Recipe *model.Recipe
	Error  string
}

// Index は食材選択ページを表示する。
// GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	h.renderer.render(w, http.StatusOK, "index", indexData{
		User:    user,
		Catalog: recipe.Catalog,
	})
}

// Recipe は選択された食材からレシピを生成して表示する。
// 食材は繰り返しのidクエリパラメータで渡される（/recipe?id=eier&id=milch）。
// GET /recipe
func (h *PageHandler) Recipe(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentUser(w, r); !ok {
		return
	}

	ingredients := r.URL.Query()["id"]
	if len(ingredients) == 0 {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	generated, err := h.generator.Generate(ctx, ingredients)
	h.metrics.RecordRecipeLatency(time.Since(start))

	if err != nil {
		h.metrics.RecordRecipeFailure()

		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("recipe generation timed out", slog.Int("ingredients", len(ingredients)))
			h.renderer.render(w, http.StatusGatewayTimeout, "recipe", recipeData{
				Error: "Die Rezeptsuche hat zu lange gedauert. Bitte versuche es erneut.",
			})
			return
		}

		slog.Error("recipe generation failed", slog.String("error", err.Error()))
		h.renderer.render(w, http.StatusBadGateway, "recipe", recipeData{
			Error: "Es konnte kein Rezept erstellt werden. Bitte versuche es erneut.",
		})
		return
	}

	h.metrics.RecordRecipeSuccess()
	h.renderer.render(w, http.StatusOK, "recipe", recipeData{Recipe: generated})
}

// currentUser はコンテキストのユーザーIDからユーザーを解決する。
// セッションは有効だがユーザーが消えている場合は強制ログアウトして
// ログインページへ戻す。
func (h *PageHandler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		middleware.RedirectToAuth(w, r)
		return nil, false
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if errors.Is(err, model.ErrUserGone) {
		http.SetCookie(w, h.codec.Clear())
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return nil, false
	}
	if err != nil {
		slog.Error("failed to load current user", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return user, true
}
