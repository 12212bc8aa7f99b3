package auth

import (
	"context"

	"pharmacy/internal/repository"
)

// ログアウトはセッション行の削除。
type LogoutUsecase struct {
	sessionRepo repository.SessionRepository
}

func NewLogoutUsecase(sessionRepo repository.SessionRepository) *LogoutUsecase {
	return &LogoutUsecase{sessionRepo: sessionRepo}
}

// Cookieの平文トークンを受け取り、対応する行を消す。
// 行が無くても成功扱い（すでに消えている＝ログアウト済み）。
func (u *LogoutUsecase) Execute(ctx context.Context, plainToken string) error {
	if plainToken == "" {
		return nil
	}
	return u.sessionRepo.DeleteByTokenHash(ctx, hashToken(plainToken))
}
