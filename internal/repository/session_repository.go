package repository

import (
	"context"
	"errors"

	"pharmacy/internal/domain/model"
)

var ErrSessionNotFound = errors.New("session not found")

// ログインセッションの保存・取得・削除
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	DeleteByID(ctx context.Context, sessionID string) error
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	//強制ログアウト用（パスワード再設定など）
	DeleteAllByUserID(ctx context.Context, userID int64) error
}
