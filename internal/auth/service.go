// Package auth はパスワード認証、OAuth認証フロー、ユーザー登録を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/kondate/internal/model"
	"github.com/hitoshi/kondate/internal/repository"
)

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Register は新規ユーザーを作成する。
// メールアドレスの重複はストア層のUNIQUE制約違反（model.ErrEmailTaken）として
// 通知される。事前の存在チェックは行わない。
func (s *Service) Register(ctx context.Context, form RegisterForm) (*model.User, error) {
	hash, err := HashPassword(form.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        form.Email,
		PasswordHash: &hash,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Login はメールアドレスとパスワードでユーザーを認証する。
// メール未登録・パスワード未設定（OAuth専用アカウント）・パスワード不一致は
// すべてmodel.ErrInvalidCredentialsに畳み込み、登録状況を漏らさない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user == nil || !user.HasPassword() {
		return nil, model.ErrInvalidCredentials
	}

	if err := VerifyPassword(*user.PasswordHash, password); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("method", "password"),
	)

	return user, nil
}

// UserExists は指定メールアドレスのユーザーが登録済みかどうかを返す。
// 認証入口の振り分け（ログイン/登録）に使う。
func (s *Service) UserExists(ctx context.Context, email string) (bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to find user: %w", err)
	}
	return user != nil, nil
}

// CurrentUser はセッションのユーザーIDからユーザーを取得する。
// ユーザーが存在しない場合（セッション発行後に削除された等）は
// model.ErrUserGoneを返し、呼び出し側は強制ログアウトで回復する。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserGone
	}
	return user, nil
}

// CompleteOAuthLogin はOAuthプロファイルを登録済みユーザーに解決する。
// 同一メールアドレスのユーザーが存在する場合はそのユーザーにログインし、
// 存在しない場合はパスワードなしの新規ユーザーを作成する。
// これによりパスワードアカウントとOAuthアカウントは同一ユーザーIDに収束する。
func (s *Service) CompleteOAuthLogin(ctx context.Context, profile Profile) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user != nil {
		slog.Info("user logged in",
			slog.String("user_id", user.ID),
			slog.String("method", "google"),
		)
		return user, nil
	}

	now := time.Now()
	newUser := &model.User{
		ID:        uuid.New().String(),
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.userRepo.Create(ctx, newUser)
	if errors.Is(err, model.ErrEmailTaken) {
		// 検索とINSERTの間に同一メールの登録が完了した場合は
		// 既存ユーザーへのログインとして1回だけやり直す
		user, err := s.userRepo.FindByEmail(ctx, profile.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to find user after conflict: %w", err)
		}
		if user == nil {
			return nil, model.ErrUserGone
		}
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	slog.Info("oauth user created",
		slog.String("user_id", newUser.ID),
	)

	return newUser, nil
}
