package repository

import (
	"context"
	"errors"

	"pharmacy/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// 管理画面のユーザー一覧検索
type UserListQuery struct {
	Page   int
	Limit  int
	Search string
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ユーザー情報の更新=>最終ログイン・OTP・パスワード変更など
	Update(ctx context.Context, user *model.User) error
	// name/emailの部分一致検索＋ページング（管理画面用）
	List(ctx context.Context, q UserListQuery) ([]model.User, int64, error)
}
