package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"pharmacy/internal/repository"
)

var (
	// forgotで未登録メールを指定した
	ErrEmailNotFound = errors.New("email not found")

	// OTPが違う・期限切れ
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
)

// OTPの有効期限
const otpTTL = 10 * time.Minute

// ForgotPasswordUsecaseは6桁OTPを発行してメールで送る。
type ForgotPasswordUsecase struct {
	userRepo repository.UserRepository
	mailer   Mailer
	clock    Clock
}

func NewForgotPasswordUsecase(
	userRepo repository.UserRepository,
	mailer Mailer,
	clock Clock,
) *ForgotPasswordUsecase {
	return &ForgotPasswordUsecase{
		userRepo: userRepo,
		mailer:   mailer,
		clock:    clock,
	}
}

func (u *ForgotPasswordUsecase) Execute(ctx context.Context, email string) error {
	if email == "" {
		return ErrInvalidInput
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	//6桁OTPを作る
	otp, err := generateOTP()
	if err != nil {
		return err
	}

	//保存するのはハッシュのみ
	now := u.clock.Now()
	expires := now.Add(otpTTL)
	otpHash := hashToken(otp)

	user.ResetTokenHash = &otpHash
	user.ResetTokenExpiresAt = &expires
	user.UpdatedAt = now

	if err := u.userRepo.Update(ctx, user); err != nil {
		return err
	}

	//メール送信
	subject := "Password reset code"
	body := fmt.Sprintf("Your password reset code is: %s\nIt expires in 10 minutes.", otp)
	return u.mailer.Send(ctx, user.Email, subject, body)
}

// 6桁のランダムな数字列
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ResetPasswordUsecaseはOTPを検証してパスワードを更新する。
// 更新とセッション破棄はまとめて1トランザクションで行う。
type ResetPasswordUsecase struct {
	userRepo repository.UserRepository
	tx       repository.TransactionManager
	hasher   PasswordHasher
	clock    Clock
}

func NewResetPasswordUsecase(
	userRepo repository.UserRepository,
	tx repository.TransactionManager,
	hasher PasswordHasher,
	clock Clock,
) *ResetPasswordUsecase {
	return &ResetPasswordUsecase{
		userRepo: userRepo,
		tx:       tx,
		hasher:   hasher,
		clock:    clock,
	}
}

type ResetPasswordInput struct {
	Email       string
	OTP         string
	NewPassword string
}

func (u *ResetPasswordUsecase) Execute(ctx context.Context, in ResetPasswordInput) error {
	if in.Email == "" || in.OTP == "" || in.NewPassword == "" {
		return ErrInvalidInput
	}
	if len(in.NewPassword) < 8 {
		return ErrPasswordTooShort
	}
	if isWeakPassword(in.NewPassword) {
		return ErrWeakPassword
	}

	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidOrExpiredOTP
		}
		return err
	}

	now := u.clock.Now()

	//OTP照合（未発行・期限切れ・不一致はすべて同じエラー）
	if user.ResetTokenHash == nil || user.ResetTokenExpiresAt == nil {
		return ErrInvalidOrExpiredOTP
	}
	if now.After(*user.ResetTokenExpiresAt) {
		return ErrInvalidOrExpiredOTP
	}
	if *user.ResetTokenHash != hashToken(in.OTP) {
		return ErrInvalidOrExpiredOTP
	}

	hashed, err := u.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hashed
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	user.UpdatedAt = now

	//パスワード更新と全セッション破棄はセットで成立させる
	return u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if err := r.Users().Update(ctx, user); err != nil {
			return err
		}
		return r.Sessions().DeleteAllByUserID(ctx, user.ID)
	})
}
