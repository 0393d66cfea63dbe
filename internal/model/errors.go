// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// 認証・登録フローで発生するビジネスルール違反のエラー。
// ユーザーには一般的なメッセージのみを表示し、詳細はログに残す。
var (
	// ErrEmailTaken は登録済みメールアドレスでの再登録を表す。
	// usersテーブルのUNIQUE制約違反のみを発生源とする。
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials はログイン失敗を表す。
	// メール未登録とパスワード不一致を区別せず同一のエラーに畳み込む。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserGone はセッションが参照するユーザーが存在しないことを表す。
	// 500ではなく強制ログアウトで回復する。
	ErrUserGone = errors.New("user no longer exists")

	// ErrTokenExchangeFailed はOAuth認可コードの交換失敗を表す。
	ErrTokenExchangeFailed = errors.New("oauth token exchange failed")

	// ErrProfileIncomplete はOAuthプロファイルに必須項目（email, id）が
	// 欠けていることを表す。
	ErrProfileIncomplete = errors.New("oauth profile missing required fields")
)

// FieldErrors はフォーム入力のフィールド単位のバリデーションエラー。
// ストアアクセスの前に境界で一度だけ評価される。
type FieldErrors map[string]string

// Error はerrorインターフェースを実装する。
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

// Has は指定フィールドにエラーがあるかどうかを返す。
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}
