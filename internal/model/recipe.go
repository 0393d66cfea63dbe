// Package model はドメインモデルを定義する。
package model

// Recipe はLLMが生成したレシピを表す。
// フィールド構成はプロンプトに埋め込むJSONスキーマと一致させること。
type Recipe struct {
	Title       string             `json:"title"`
	Emoji       string             `json:"emoji"`
	Description string             `json:"description"`
	Ingredients []RecipeIngredient `json:"ingredients"`
	Steps       []RecipeStep       `json:"steps"`
}

// RecipeIngredient はレシピの主材料と、置き換え可能な代替材料を表す。
type RecipeIngredient struct {
	Name        string                `json:"name"`
	Amount      string                `json:"amount"`
	Unit        string                `json:"unit"`
	Alternative AlternativeIngredient `json:"alternative"`
}

// AlternativeIngredient は主材料が手元にない場合の代替材料を表す。
type AlternativeIngredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// RecipeStep は調理手順の1ステップを表す。
// IngredientsとAppliancesは手順文中で強調表示するために使う。
type RecipeStep struct {
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Appliances  []string `json:"appliances"`
}
