// Package recipe は手持ちの食材リストからLLMでレシピを生成する。
package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/hitoshi/kondate/internal/model"
)

var (
	// ErrNoIngredients は食材が一つも指定されなかった場合のエラー。
	ErrNoIngredients = errors.New("no ingredients given")
	// ErrBadRecipePayload はLLMの応答がレシピとして解釈できなかった場合のエラー。
	ErrBadRecipePayload = errors.New("recipe payload could not be parsed")
)

// appliances はプロンプトに埋め込む固定の調理器具リスト。
var appliances = []string{"backofen", "herd", "mikrowelle"}

// recipeSchema はLLMに渡すレシピのJSONスキーマ。
// descriptionフィールドは各項目に何を期待するかの指示になっている。
const recipeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "<hier bitte einen coolen und womöglich lustigen titel für dieses rezept finden>"},
    "emoji": {"type": "string", "description": "<ein passende emojikombination aus 3 emojis für dieses rezept>"},
    "description": {"type": "string", "description": "<eine kurze beschreibung, die appetit auf das gericht macht und grob umschreibt, was das gericht am ende werden soll>"},
    "ingredients": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "description": "<name der hauptzutat>"},
          "amount": {"type": "string", "description": "<notwendige menge der hauptzutat im rezept als nummer>"},
          "unit": {"type": "string", "description": "<einheit der menge der hauptzutat, wie beispielsweise kilogramm oder liter>"},
          "alternative": {
            "type": "object",
            "properties": {
              "name": {"type": "string", "description": "<name der alternativzutat, falls die hauptzutat nicht im haus sein sollte. Die Alternativzutat sollte ein ähnlich gutes ergebnis des rezeptes liefern und die hauptzutat sehr gut ersetzen können.>"},
              "amount": {"type": "string", "description": "<notwendige menge der alternativzutat im rezept als nummer>"},
              "unit": {"type": "string", "description": "<einheit der menge der alternativzutat, wie beispielsweise kilogramm oder liter>"}
            },
            "required": ["name", "amount", "unit"]
          }
        },
        "required": ["name", "amount", "unit", "alternative"]
      }
    },
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "description": {"type": "string", "description": "<hier eine vollständige und verständliche Beschreibung des schrittes, um das rezept zu kochen>"},
          "ingredients": {"type": "array", "items": {"type": "string"}, "description": "<jede in diesem schritt verwendete zutat>"},
          "appliances": {"type": "array", "items": {"type": "string"}, "description": "<jedes in diesem schritt verwendete Küchengerät>"}
        },
        "required": ["description", "ingredients", "appliances"]
      }
    }
  },
  "required": ["title", "emoji", "description", "ingredients", "steps"]
}`

// Generator はレシピ生成のインターフェース。
type Generator interface {
	// Generate は食材リストからレシピを生成する。
	// 呼び出し側がcontextでタイムアウトを設定する。
	Generate(ctx context.Context, ingredients []string) (*model.Recipe, error)
}

// OpenAIGenerator はOpenAIのchat completion（JSONモード）でレシピを生成する。
// クライアントは起動時に一度だけ構築し、リクエスト間で共有する。
type OpenAIGenerator struct {
	llm llms.Model
}

// NewOpenAIGenerator はOpenAIGeneratorを生成する。
func NewOpenAIGenerator(apiKey, modelName string) (*OpenAIGenerator, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIGenerator{llm: llm}, nil
}

// Generate は食材リストからレシピを生成する。
func (g *OpenAIGenerator) Generate(ctx context.Context, ingredients []string) (*model.Recipe, error) {
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}

	start := time.Now()

	resp, err := g.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, buildPrompt(ingredients)),
		},
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("recipe generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrBadRecipePayload)
	}

	recipe, err := parseRecipe(resp.Choices[0].Content)
	if err != nil {
		return nil, err
	}

	slog.Info("recipe generated",
		slog.Int("ingredients", len(ingredients)),
		slog.Duration("duration", time.Since(start)),
	)

	return recipe, nil
}

// buildPrompt は食材リストと調理器具、JSONスキーマを埋め込んだプロンプトを組み立てる。
func buildPrompt(ingredients []string) string {
	return fmt.Sprintf(`ich bin auf der suche nach einem rezept, welches ausschließlich folgende zutaten enthalten darf:
%s.
gewürze habe ich alle gängigen zuhause. An Küchenaustattung habe ich: %s.
bitte geb mir ein für mich individuelles und leckeres rezept aus, welches ich mit meinen vorhandenen Zutaten & Küchenaustattung kochen kann.
dies bitte in form einer json. Die JSON Struktur sieht folgendermaßen aus und ist ein valides json schema: %s. Bitte gebe mir als antwort eine valide json anhand des schemas. im feld "description" steht eine anweisung, was ich hier erwarte. die json soll kein json schema sein, sondern nach dem schema aufgebaut sein.`,
		strings.Join(ingredients, ", "),
		strings.Join(appliances, ", "),
		recipeSchema,
	)
}

// parseRecipe はLLMの応答をmodel.Recipeとして解釈する。
func parseRecipe(content string) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := json.Unmarshal([]byte(content), &recipe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecipePayload, err)
	}
	if recipe.Title == "" || len(recipe.Steps) == 0 {
		return nil, fmt.Errorf("%w: missing title or steps", ErrBadRecipePayload)
	}
	return &recipe, nil
}

// compile-time interface check
var _ Generator = (*OpenAIGenerator)(nil)
