package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"pharmacy/internal/domain/model"
	"pharmacy/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// handlerがJSONにして返す
type LoginOutput struct {
	User model.User `json:"user"`
}

// handlerがCookieに詰めるために必要な値
type SessionSideEffect struct {
	PlainSessionToken string
}

// メールまたはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	verifier    PasswordVerifier
	idGen       IDGenerator
	clock       Clock
	sessionTTL  time.Duration
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	verifier PasswordVerifier,
	idGen IDGenerator,
	clock Clock,
	sessionTTL time.Duration,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		verifier:    verifier,
		idGen:       idGen,
		clock:       clock,
		sessionTTL:  sessionTTL,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, SessionSideEffect, error) {
	var out LoginOutput
	var side SessionSideEffect

	if in.Email == "" || in.Password == "" {
		return out, side, ErrInvalidInput
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, side, ErrInvalidCredentials
		}
		return out, side, err
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, side, ErrInvalidCredentials
	}

	//セッション発行
	now := u.clock.Now()
	plainToken, err := startSession(ctx, u.sessionRepo, u.idGen, user.ID, in.UserAgent, now, u.sessionTTL)
	if err != nil {
		return out, side, err
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return out, side, err
	}

	out.User = *user
	side.PlainSessionToken = plainToken
	return out, side, nil
}

// セッション行を作成し、Cookieに入れる平文トークンを返す。
// DBにはsha256ハッシュだけを保存する。
func startSession(
	ctx context.Context,
	sessionRepo repository.SessionRepository,
	idGen IDGenerator,
	userID int64,
	userAgent string,
	now time.Time,
	ttl time.Duration,
) (string, error) {
	plainToken, err := generateSecureToken(32)
	if err != nil {
		return "", err
	}

	session := &model.Session{
		ID:        idGen.NewID(),
		UserID:    userID,
		TokenHash: hashToken(plainToken),
		UserAgent: userAgent,
		ExpiresAt: now.Add(ttl),
	}

	if err := sessionRepo.Create(ctx, session); err != nil {
		return "", err
	}

	return plainToken, nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

func generateSecureToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", fmt.Errorf("bytesLen must be positive")
	}

	// ランダムなバイト列を作る（OSが持つ安全な乱数）
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
