package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/kondate/internal/middleware"
	"github.com/hitoshi/kondate/internal/model"
	"github.com/hitoshi/kondate/internal/recipe"
	"github.com/hitoshi/kondate/internal/session"
)

// --- モック定義 ---

type mockGenerator struct {
	generateFn func(ctx context.Context, ingredients []string) (*model.Recipe, error)
}

func (m *mockGenerator) Generate(ctx context.Context, ingredients []string) (*model.Recipe, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, ingredients)
	}
	return &model.Recipe{Title: "Testgericht", Emoji: "🍳", Description: "lecker"}, nil
}

var _ recipe.Generator = (*mockGenerator)(nil)

// --- ヘルパー ---

func newTestPageHandler(t *testing.T, service AuthServiceInterface, gen recipe.Generator, m *recordingMetrics) (*PageHandler, *session.Codec) {
	t.Helper()
	rd, err := newRenderer()
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	codec := testCodec()
	return NewPageHandler(service, gen, codec, m, rd, 10*time.Second), codec
}

func authedRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
}

// --- テスト ---

func TestIndex_RendersGreetingAndCatalog(t *testing.T) {
	h, _ := newTestPageHandler(t, &mockAuthService{}, &mockGenerator{}, &recordingMetrics{})

	w := httptest.NewRecorder()
	h.Index(w, authedRequest(http.MethodGet, "/"))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Taro") {
		t.Error("index should greet the user by first name")
	}
	if !strings.Contains(body, "Welche Zutaten hast du noch?") {
		t.Error("index should contain the picker prompt")
	}
	if !strings.Contains(body, "eier") {
		t.Error("index should contain catalog entries")
	}
}

func TestIndex_UserGoneForcesLogout(t *testing.T) {
	service := &mockAuthService{
		currentUserFn: func(_ context.Context, _ string) (*model.User, error) {
			return nil, model.ErrUserGone
		},
	}
	h, _ := newTestPageHandler(t, service, &mockGenerator{}, &recordingMetrics{})

	w := httptest.NewRecorder()
	h.Index(w, authedRequest(http.MethodGet, "/"))

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != "/auth/login" {
		t.Errorf("location = %q, want /auth/login", loc)
	}

	cookie := sessionCookieFrom(t, resp)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie should be cleared when the user is gone")
	}
}

func TestRecipe_RendersGeneratedRecipe(t *testing.T) {
	m := &recordingMetrics{}
	var gotIngredients []string
	gen := &mockGenerator{
		generateFn: func(_ context.Context, ingredients []string) (*model.Recipe, error) {
			gotIngredients = ingredients
			return &model.Recipe{
				Title:       "Eier-Milch-Wunder",
				Emoji:       "🍳🥛✨",
				Description: "Ein schnelles Gericht.",
				Ingredients: []model.RecipeIngredient{
					{Name: "eier", Amount: "3", Unit: "stück"},
				},
				Steps: []model.RecipeStep{
					{Description: "Eier verquirlen.", Ingredients: []string{"eier"}, Appliances: []string{"herd"}},
				},
			}, nil
		},
	}
	h, _ := newTestPageHandler(t, &mockAuthService{}, gen, m)

	w := httptest.NewRecorder()
	h.Recipe(w, authedRequest(http.MethodGet, "/recipe?id=eier&id=milch"))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if len(gotIngredients) != 2 || gotIngredients[0] != "eier" || gotIngredients[1] != "milch" {
		t.Errorf("ingredients = %v, want [eier milch]", gotIngredients)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Eier-Milch-Wunder") {
		t.Error("response should contain the recipe title")
	}
	if !strings.Contains(body, "Eier verquirlen.") {
		t.Error("response should contain the step description")
	}
	if m.recipeSuccess != 1 || m.latencies != 1 {
		t.Errorf("metrics = success:%d latency:%d, want 1/1", m.recipeSuccess, m.latencies)
	}
}

func TestRecipe_NoIngredientsRedirectsHome(t *testing.T) {
	h, _ := newTestPageHandler(t, &mockAuthService{}, &mockGenerator{}, &recordingMetrics{})

	w := httptest.NewRecorder()
	h.Recipe(w, authedRequest(http.MethodGet, "/recipe"))

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Errorf("location = %q, want /", loc)
	}
}

func TestRecipe_TimeoutRendersError(t *testing.T) {
	m := &recordingMetrics{}
	gen := &mockGenerator{
		generateFn: func(ctx context.Context, _ []string) (*model.Recipe, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h, _ := newTestPageHandler(t, &mockAuthService{}, gen, m)

	w := httptest.NewRecorder()
	h.Recipe(w, authedRequest(http.MethodGet, "/recipe?id=eier"))

	resp := w.Result()
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusGatewayTimeout)
	}
	if !strings.Contains(w.Body.String(), "zu lange gedauert") {
		t.Error("response should contain the timeout message")
	}
	if m.recipeFail != 1 {
		t.Errorf("recipeFail = %d, want 1", m.recipeFail)
	}
}

func TestRecipe_GenerationFailureRendersError(t *testing.T) {
	gen := &mockGenerator{
		generateFn: func(_ context.Context, _ []string) (*model.Recipe, error) {
			return nil, recipe.ErrBadRecipePayload
		},
	}
	h, _ := newTestPageHandler(t, &mockAuthService{}, gen, &recordingMetrics{})

	w := httptest.NewRecorder()
	h.Recipe(w, authedRequest(http.MethodGet, "/recipe?id=eier"))

	resp := w.Result()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
	if !strings.Contains(w.Body.String(), "kein Rezept") {
		t.Error("response should contain the failure message")
	}
}
