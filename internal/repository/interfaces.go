// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/kondate/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	// 照合は格納された値との完全一致（大文字小文字を区別する）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// emailのUNIQUE制約違反の場合はmodel.ErrEmailTakenを返す。
	// 事前の存在チェックは行わず、制約違反を重複登録の唯一の判定源とする。
	Create(ctx context.Context, user *model.User) error
}
