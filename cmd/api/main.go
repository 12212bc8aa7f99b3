package main

import (
	"time"

	"pharmacy/internal/config"
	"pharmacy/internal/domain/model"
	"pharmacy/internal/handler"
	"pharmacy/internal/infra/db"
	"pharmacy/internal/infra/mail"
	infraRepo "pharmacy/internal/infra/repository"
	"pharmacy/internal/server"
	"pharmacy/internal/usecase"
	auth "pharmacy/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	// .envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Product{},
		&model.ProductComment{},
		&model.Cart{},
		&model.CartItem{},
		&model.AuditLog{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserRepository(gormDB)
	sessionRepo := infraRepo.NewSessionRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//OTPメール
	mailer := mail.NewSMTPMailer(cfg)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, sessionRepo, hasher, idGen, clock, sessionTTL)
	loginUC := auth.NewLoginUsecase(userRepo, sessionRepo, verifier, idGen, clock, sessionTTL)
	logoutUC := auth.NewLogoutUsecase(sessionRepo)
	forgotUC := auth.NewForgotPasswordUsecase(userRepo, mailer, clock)
	resetUC := auth.NewResetPasswordUsecase(userRepo, txManager, hasher, clock)

	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo)
	productUC := usecase.NewProductUsecase(productRepo, auditRepo)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo)

	//Handler生成
	authH := handler.NewAuthHandler(cfg, registerUC, loginUC, logoutUC, forgotUC, resetUC, userRepo, sessionRepo)
	productH := handler.NewProductHandler(productUC)
	cartH := handler.NewCartHandler(cartUC)
	adminProductH := handler.NewAdminProductHandler(cfg, productUC)
	adminUserH := handler.NewAdminUserHandler(adminUserUC)
	provinceH := handler.NewProvinceHandler()

	//Server起動
	e := server.New(cfg, authH, productH, cartH, adminProductH, adminUserH, provinceH, sessionRepo, userRepo)

	addr := ":" + cfg.Port
	if err := server.Start(e, addr); err != nil {
		panic(err)
	}
}
