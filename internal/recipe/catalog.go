package recipe

// Catalog はタグ入力のオートコンプリートに出す食材の候補リスト。
// 選んだ食材は /recipe への繰り返しクエリパラメータidとして送られる。
var Catalog = []string{
	"eier",
	"milch",
	"butter",
	"mehl",
	"zucker",
	"salz",
	"reis",
	"nudeln",
	"kartoffeln",
	"tomaten",
	"zwiebeln",
	"knoblauch",
	"paprika",
	"karotten",
	"zucchini",
	"champignons",
	"spinat",
	"käse",
	"sahne",
	"joghurt",
	"hähnchenbrust",
	"hackfleisch",
	"lachs",
	"thunfisch",
	"tofu",
	"linsen",
	"kichererbsen",
	"brokkoli",
	"zitrone",
	"äpfel",
}
