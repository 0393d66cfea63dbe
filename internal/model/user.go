// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// PasswordHashはOAuthのみで登録したユーザーの場合nilになる。
type User struct {
	ID           string
	Email        string
	PasswordHash *string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword はパスワード認証が可能なユーザーかどうかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
