package unit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"pharmacy/internal/domain/model"
	"pharmacy/internal/repository"
	auth "pharmacy/internal/usecase/auth_usecase"
)

// =====================
// Mocks
// =====================

type AuthUserRepoMock struct {
	mock.Mock
}

func (m *AuthUserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	// DBでの採番を再現
	if args.Error(0) == nil && user.ID == 0 {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *AuthUserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthUserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthUserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *AuthUserRepoMock) List(ctx context.Context, q repository.UserListQuery) ([]model.User, int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

var _ repository.UserRepository = (*AuthUserRepoMock)(nil)

type AuthSessionRepoMock struct {
	mock.Mock
}

func (m *AuthSessionRepoMock) Create(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *AuthSessionRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	args := m.Called(ctx, tokenHash)
	if s, ok := args.Get(0).(*model.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuthSessionRepoMock) DeleteByID(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *AuthSessionRepoMock) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *AuthSessionRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

var _ repository.SessionRepository = (*AuthSessionRepoMock)(nil)

type AuthMailerMock struct {
	mock.Mock
}

func (m *AuthMailerMock) Send(ctx context.Context, to string, subject string, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

var _ auth.Mailer = (*AuthMailerMock)(nil)

// 固定時刻
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// 連番のID生成
type seqIDGen struct {
	n int
}

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("session-id-%d", g.n)
}

// bcryptの代わり（テストを速くする）
type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

type stubVerifier struct{}

func (stubVerifier) Verify(plain string, hashed string) bool {
	return hashed == "hashed:"+plain
}

// テスト用の素通しTxManager
type passthroughTxManager struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
}

func (m passthroughTxManager) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	return fn(passthroughTxRepos{m.users, m.sessions})
}

type passthroughTxRepos struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
}

func (r passthroughTxRepos) Users() repository.UserRepository       { return r.users }
func (r passthroughTxRepos) Sessions() repository.SessionRepository { return r.sessions }

var _ repository.TransactionManager = (*passthroughTxManager)(nil)

func sha256hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// =====================
// Register
// =====================

func TestRegister_Success_StartsSession(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	sessionRepo := new(AuthSessionRepoMock)

	userRepo.On("FindByEmail", ctx, "new@example.com").Return(nil, repository.ErrUserNotFound)
	userRepo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	var created *model.Session
	sessionRepo.On("Create", ctx, mock.AnythingOfType("*model.Session")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*model.Session) }).
		Return(nil)

	uc := auth.NewRegisterUserUsecase(userRepo, sessionRepo, stubHasher{}, &seqIDGen{}, fixedClock{testNow}, 24*time.Hour)

	out, side, err := uc.Execute(ctx, auth.RegisterUserInput{
		Name:     "Tanaka",
		Email:    "new@example.com",
		Password: "s3cure-pass",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Tanaka", out.User.Name)
	assert.Equal(t, model.RoleUser, out.User.Role)
	assert.Equal(t, "hashed:s3cure-pass", out.User.PasswordHash)

	// 登録直後にセッションが発行されている
	assert.NotEmpty(t, side.PlainSessionToken)
	if assert.NotNil(t, created) {
		// DBに入るのは平文ではなくハッシュ
		assert.Equal(t, sha256hex(side.PlainSessionToken), created.TokenHash)
		assert.Equal(t, testNow.Add(24*time.Hour), created.ExpiresAt)
	}
	userRepo.AssertExpectations(t)
	sessionRepo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	sessionRepo := new(AuthSessionRepoMock)

	userRepo.On("FindByEmail", ctx, "taken@example.com").
		Return(&model.User{ID: 1, Email: "taken@example.com"}, nil)

	uc := auth.NewRegisterUserUsecase(userRepo, sessionRepo, stubHasher{}, &seqIDGen{}, fixedClock{testNow}, 24*time.Hour)

	_, _, err := uc.Execute(ctx, auth.RegisterUserInput{
		Name:     "Tanaka",
		Email:    "taken@example.com",
		Password: "s3cure-pass",
	})

	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_InvalidInput(t *testing.T) {
	uc := auth.NewRegisterUserUsecase(new(AuthUserRepoMock), new(AuthSessionRepoMock), stubHasher{}, &seqIDGen{}, fixedClock{testNow}, 24*time.Hour)
	ctx := context.Background()

	cases := []struct {
		name string
		in   auth.RegisterUserInput
		want error
	}{
		{"名前なし", auth.RegisterUserInput{Name: " ", Email: "a@example.com", Password: "s3cure-pass"}, auth.ErrInvalidInput},
		{"email形式不正", auth.RegisterUserInput{Name: "A", Email: "not-an-email", Password: "s3cure-pass"}, auth.ErrInvalidEmailFormat},
		{"短すぎる", auth.RegisterUserInput{Name: "A", Email: "a@example.com", Password: "short"}, auth.ErrPasswordTooShort},
		{"弱いパスワード", auth.RegisterUserInput{Name: "A", Email: "a@example.com", Password: "password1"}, auth.ErrWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := uc.Execute(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// =====================
// Login
// =====================

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	sessionRepo := new(AuthSessionRepoMock)

	user := &model.User{ID: 7, Email: "u@example.com", PasswordHash: "hashed:correct-pass", Role: model.RoleUser}
	userRepo.On("FindByEmail", ctx, "u@example.com").Return(user, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*model.User")).Return(nil)
	sessionRepo.On("Create", ctx, mock.AnythingOfType("*model.Session")).Return(nil)

	uc := auth.NewLoginUsecase(userRepo, sessionRepo, stubVerifier{}, &seqIDGen{}, fixedClock{testNow}, 24*time.Hour)

	out, side, err := uc.Execute(ctx, auth.LoginInput{Email: "u@example.com", Password: "correct-pass"})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), out.User.ID)
	assert.NotEmpty(t, side.PlainSessionToken)
	// 最終ログイン時刻が更新されている
	if assert.NotNil(t, out.User.LastLoginAt) {
		assert.Equal(t, testNow, *out.User.LastLoginAt)
	}
	sessionRepo.AssertExpectations(t)
}

// パスワード不一致ではセッションを作らない
func TestLogin_WrongPassword_NoSession(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	sessionRepo := new(AuthSessionRepoMock)

	user := &model.User{ID: 7, Email: "u@example.com", PasswordHash: "hashed:correct-pass"}
	userRepo.On("FindByEmail", ctx, "u@example.com").Return(user, nil)

	uc := auth.NewLoginUsecase(userRepo, sessionRepo, stubVerifier{}, &seqIDGen{}, fixedClock{testNow}, 24*time.Hour)

	_, _, err := uc.Execute(ctx, auth.LoginInput{Email: "u@example.com", Password: "wrong"})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// 未登録メールもパスワード不一致と同じエラー（存在を漏らさない）
func TestLogin_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)

	userRepo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	uc := auth.NewLoginUsecase(userRepo, new(AuthSessionRepoMock), stubVerifier{}, &seqIDGen{}, fixedClock{testNow}, 24*time.Hour)

	_, _, err := uc.Execute(ctx, auth.LoginInput{Email: "nobody@example.com", Password: "whatever"})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

// =====================
// Logout
// =====================

func TestLogout_DeletesByTokenHash(t *testing.T) {
	ctx := context.Background()
	sessionRepo := new(AuthSessionRepoMock)

	sessionRepo.On("DeleteByTokenHash", ctx, sha256hex("plain-token")).Return(nil)

	uc := auth.NewLogoutUsecase(sessionRepo)

	assert.NoError(t, uc.Execute(ctx, "plain-token"))
	sessionRepo.AssertExpectations(t)
}

// Cookieが無くてもログアウトは成功扱い
func TestLogout_EmptyToken(t *testing.T) {
	sessionRepo := new(AuthSessionRepoMock)
	uc := auth.NewLogoutUsecase(sessionRepo)

	assert.NoError(t, uc.Execute(context.Background(), ""))
	sessionRepo.AssertNotCalled(t, "DeleteByTokenHash", mock.Anything, mock.Anything)
}

// =====================
// パスワード再設定
// =====================

func TestForgotPassword_StoresOTPHashAndSendsMail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	mailer := new(AuthMailerMock)

	user := &model.User{ID: 7, Email: "u@example.com"}
	userRepo.On("FindByEmail", ctx, "u@example.com").Return(user, nil)

	var saved *model.User
	userRepo.On("Update", ctx, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.User) }).
		Return(nil)
	mailer.On("Send", ctx, "u@example.com", mock.Anything, mock.Anything).Return(nil)

	uc := auth.NewForgotPasswordUsecase(userRepo, mailer, fixedClock{testNow})

	assert.NoError(t, uc.Execute(ctx, "u@example.com"))

	if assert.NotNil(t, saved) {
		// 平文OTPは保存されない
		assert.NotNil(t, saved.ResetTokenHash)
		assert.Len(t, *saved.ResetTokenHash, 64)
		if assert.NotNil(t, saved.ResetTokenExpiresAt) {
			assert.Equal(t, testNow.Add(10*time.Minute), *saved.ResetTokenExpiresAt)
		}
	}
	mailer.AssertExpectations(t)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	mailer := new(AuthMailerMock)

	userRepo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, repository.ErrUserNotFound)

	uc := auth.NewForgotPasswordUsecase(userRepo, mailer, fixedClock{testNow})

	err := uc.Execute(ctx, "nobody@example.com")

	assert.ErrorIs(t, err, auth.ErrEmailNotFound)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResetPassword_Success_RevokesAllSessions(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	sessionRepo := new(AuthSessionRepoMock)

	otpHash := sha256hex("123456")
	expires := testNow.Add(5 * time.Minute)
	user := &model.User{
		ID:                  7,
		Email:               "u@example.com",
		PasswordHash:        "hashed:old-pass",
		ResetTokenHash:      &otpHash,
		ResetTokenExpiresAt: &expires,
	}
	userRepo.On("FindByEmail", ctx, "u@example.com").Return(user, nil)

	var saved *model.User
	userRepo.On("Update", ctx, mock.AnythingOfType("*model.User")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*model.User) }).
		Return(nil)
	sessionRepo.On("DeleteAllByUserID", ctx, int64(7)).Return(nil)

	tx := passthroughTxManager{users: userRepo, sessions: sessionRepo}
	uc := auth.NewResetPasswordUsecase(userRepo, tx, stubHasher{}, fixedClock{testNow})

	err := uc.Execute(ctx, auth.ResetPasswordInput{
		Email:       "u@example.com",
		OTP:         "123456",
		NewPassword: "brand-new-pass",
	})

	assert.NoError(t, err)
	if assert.NotNil(t, saved) {
		assert.Equal(t, "hashed:brand-new-pass", saved.PasswordHash)
		// OTPは使い捨て
		assert.Nil(t, saved.ResetTokenHash)
		assert.Nil(t, saved.ResetTokenExpiresAt)
	}
	// 既存セッションは全部破棄
	sessionRepo.AssertExpectations(t)
}

func TestResetPassword_WrongOTP(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)
	sessionRepo := new(AuthSessionRepoMock)

	otpHash := sha256hex("123456")
	expires := testNow.Add(5 * time.Minute)
	user := &model.User{ID: 7, Email: "u@example.com", ResetTokenHash: &otpHash, ResetTokenExpiresAt: &expires}
	userRepo.On("FindByEmail", ctx, "u@example.com").Return(user, nil)

	tx := passthroughTxManager{users: userRepo, sessions: sessionRepo}
	uc := auth.NewResetPasswordUsecase(userRepo, tx, stubHasher{}, fixedClock{testNow})

	err := uc.Execute(ctx, auth.ResetPasswordInput{Email: "u@example.com", OTP: "654321", NewPassword: "brand-new-pass"})

	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredOTP)
	userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestResetPassword_ExpiredOTP(t *testing.T) {
	ctx := context.Background()
	userRepo := new(AuthUserRepoMock)

	otpHash := sha256hex("123456")
	expires := testNow.Add(-time.Minute)
	user := &model.User{ID: 7, Email: "u@example.com", ResetTokenHash: &otpHash, ResetTokenExpiresAt: &expires}
	userRepo.On("FindByEmail", ctx, "u@example.com").Return(user, nil)

	tx := passthroughTxManager{users: userRepo, sessions: new(AuthSessionRepoMock)}
	uc := auth.NewResetPasswordUsecase(userRepo, tx, stubHasher{}, fixedClock{testNow})

	err := uc.Execute(ctx, auth.ResetPasswordInput{Email: "u@example.com", OTP: "123456", NewPassword: "brand-new-pass"})

	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredOTP)
}
